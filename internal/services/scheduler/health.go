package scheduler

// OverrunNext returns the health state after a collector is found still in
// progress at its due time, and whether this is the Healthy to Slow edge,
// the only edge reported as a "slow" occurrence. Slow to Muted is silent;
// the muted state itself is reported on every subsequent due cycle instead.
//
// A single overrun is tolerated as transient slowness. The second
// consecutive overrun mutes the collector permanently so it stops consuming
// pool capacity while staying visible in telemetry.
func OverrunNext(h HealthState) (next HealthState, slowEdge bool) {
	switch h {
	case Healthy:
		return Slow, true
	case Slow:
		return Muted, false
	default:
		// Muted is terminal; the loop never routes muted collectors here,
		// but the function stays total.
		return Muted, false
	}
}
