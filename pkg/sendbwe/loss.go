package sendbwe

// onReceiverBlock folds one receiver report into the loss accumulator
// (spec §4.3). It always updates liveness/RTT bookkeeping; it only
// publishes a new smoothed loss fraction and ticks the control loop once
// enough packets have been accounted for.
func (e *Estimator) onReceiverBlock(fracQ8 uint8, rttMs int64, packets int32, nowMs int64) {
	e.lastFeedbackMs = nowMs
	if e.firstReportMs == neverMs {
		e.firstReportMs = nowMs
	}
	e.lastRTTMs = rttMs

	if packets > 0 {
		numLostQ8 := int64(fracQ8) * int64(packets)
		e.lostAccQ8 += numLostQ8
		e.expectedAcc += packets

		// Don't generate a loss rate until it can be based on enough
		// packets; no UMA update either, matching the original's early
		// return (spec §4.3).
		if e.expectedAcc < minPacketsForLossUpdate {
			return
		}

		e.hasDecreasedSinceLastLoss = false
		e.lastFractionLoss = uint8(e.lostAccQ8 / int64(e.expectedAcc))

		e.lostAccQ8 = 0
		e.expectedAcc = 0
		e.lastPacketReportMs = nowMs
		e.updateEstimate(nowMs)
	}
	// (frac_q8 x packets) >> 8 is a deliberate fixed-point conversion from
	// Q8 loss to a lost-packet count; preserve bit-exactly (spec §9).
	e.updateUMA(nowMs, rttMs, int32((int64(fracQ8)*int64(packets))>>8))
}
