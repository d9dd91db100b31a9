// Package collectors provides the collector contract plumbing (Base) and
// the agent's built-in collectors.
//
// A collector is anything the scheduler can run: it has a stable name, a
// fixed interval, a Run body, an in-progress flag it clears itself, a
// health state, and an optional telemetry/critical capability expressed by
// implementing the scheduler's marker interfaces.
package collectors
