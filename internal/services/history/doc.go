// Package history persists collected samples so operators can inspect
// recent collector output after the fact.
//
// Only sample data is persisted. Schedule state (due timestamps, health)
// is deliberately in-memory only and resets on restart.
package history
