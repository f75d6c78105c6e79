package sendbwe

// isInStartPhase reports whether nowMs is still within the startup window
// that began at the first receiver report.
func (e *Estimator) isInStartPhase(nowMs int64) bool {
	return e.firstReportMs == neverMs || nowMs-e.firstReportMs < startPhaseMs
}

// updateUMA computes the one-shot startup/ramp-up/convergence telemetry
// described in spec §4.7. lostPackets is the lost-packet count for the
// single report just processed, already converted from Q8 by the caller.
func (e *Estimator) updateUMA(nowMs, rttMs int64, lostPackets int32) {
	bitrateKbps := int64(e.bitrate+500) / 1000

	for i := range rampupMetrics {
		if !e.rampupReached[i] && bitrateKbps >= rampupMetrics[i].bitrateKbps {
			e.metrics.Counts100000(rampupMetrics[i].name, nowMs-e.firstReportMs)
			e.rampupReached[i] = true
		}
	}

	switch {
	case e.isInStartPhase(nowMs):
		e.initiallyLostPackets += lostPackets
	case e.umaState == umaNoUpdate:
		e.umaState = umaFirstDone
		e.bitrateAt2sKbps = bitrateKbps
		e.metrics.CountsWithBounds("BWE.InitiallyLostPackets", int64(e.initiallyLostPackets), 0, 100, 50)
		e.metrics.CountsWithBounds("BWE.InitialRtt", rttMs, 0, 2000, 50)
		e.metrics.CountsWithBounds("BWE.InitialBandwidthEstimate", e.bitrateAt2sKbps, 0, 2000, 50)
	case e.umaState == umaFirstDone && nowMs-e.firstReportMs >= convergenceTimeMs:
		e.umaState = umaDone
		diff := e.bitrateAt2sKbps - bitrateKbps
		if diff < 0 {
			diff = 0
		}
		e.metrics.CountsWithBounds("BWE.InitialVsConvergedDiff", diff, 0, 2000, 50)
	}
}
