package scheduler

// CanSchedule reports whether the collector's category is admitted under the
// given mode:
//
//	mode       telemetry  ordinary
//	rca        no         yes
//	telemetry  yes        no
//	dual       yes        yes
//
// Denial carries no state change; the dispatch loop logs the skip and the
// collector's schedule still advances.
func CanSchedule(c Collector, mode Mode) bool {
	if _, ok := c.(Telemetry); ok {
		return mode == ModeDual || mode == ModeTelemetry
	}
	return mode == ModeDual || mode == ModeRCA
}
