package sendbwe

// feedbackStale reports whether the most recent receiver report is too old
// to be trusted for loss-based decisions (spec §4.4).
func feedbackStale(deltaReportMs int64) bool {
	return deltaReportMs >= (12*feedbackIntervalMs)/10
}

// maybeTimeoutCut applies the one-shot x0.8 defensive cut when feedback has
// been absent for more than feedbackTimeoutIntervals report periods, the
// feedback-timeout experiment is enabled, and more than timeoutCutCooldownMs
// has elapsed since the last cut. It reports whether a cut was applied.
func (e *Estimator) maybeTimeoutCut(nowMs, deltaFeedbackMs int64) bool {
	if deltaFeedbackMs <= feedbackTimeoutIntervals*feedbackIntervalMs {
		return false
	}
	if e.lastTimeoutMs != neverMs && nowMs-e.lastTimeoutMs <= timeoutCutCooldownMs {
		return false
	}
	if !e.feedbackTimeoutExperiment {
		return false
	}
	e.log.Warnf("feedback timed out (%d ms), reducing bitrate", deltaFeedbackMs)
	e.bitrate = uint32(float64(e.bitrate) * 0.8)
	e.lostAccQ8 = 0
	e.expectedAcc = 0
	e.lastTimeoutMs = nowMs
	return true
}
