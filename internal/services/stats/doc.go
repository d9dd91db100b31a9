// Package stats counts scheduling occurrences and exposes them (plus Go
// process metrics) over HTTP in prometheus format.
package stats
