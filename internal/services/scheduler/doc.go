// Package scheduler runs registered collectors on fixed per-collector
// intervals and dispatches them onto a bounded worker pool.
//
// # Overview
//
// A single dispatch loop owns the registry of (collector, next-due)
// entries. Each iteration it sleeps toward the smallest registered
// interval, then evaluates every due collector: muted collectors are
// skipped (and counted), mode-denied collectors are skipped (and counted),
// idle collectors are handed to the pool, and collectors still running from
// a previous interval are demoted through the health lifecycle
// healthy, slow, muted. A due slot is always consumed, run or not, so an
// overrunning collector never accumulates a backlog of missed firings.
//
// # Degradation
//
// One overrun is tolerated (slow). A second consecutive overrun mutes the
// collector permanently; muted collectors stop consuming pool capacity but
// keep reporting a "muted" occurrence at their own cadence. The one
// exception is a collector carrying the Critical capability: finding it
// still in progress stops the whole scheduler with a distinct error, since
// the agent cannot usefully run without it.
//
// # Lifecycle
//
// Register all collectors first, then Start. There is no collector removal
// and no standalone Stop: the loop runs until its context is cancelled or a
// critical collector forces a fatal stop. Observe termination via Done()
// and Err(). The enabled flag, mode, and contention toggle are safe to flip
// while the loop runs.
package scheduler
