package sendbwe

// cap clamps candidate into [minConfigured, min(maxConfigured, receiverCap,
// delayCap)]. Receiver/delay caps apply before the configured max, and the
// configured floor is applied last so a low floor can never be overridden
// by a lower cap (spec §4.1).
func (e *Estimator) cap(nowMs int64, candidate uint32) uint32 {
	if e.receiverCap > 0 && candidate > e.receiverCap {
		candidate = e.receiverCap
	}
	if e.delayCap > 0 && candidate > e.delayCap {
		candidate = e.delayCap
	}
	if candidate > e.maxConfigured {
		candidate = e.maxConfigured
	}
	if candidate < e.minConfigured {
		if e.lastLowBitrateLogMs == neverMs || nowMs-e.lastLowBitrateLogMs > lowBitrateLogPeriodMs {
			e.log.Warnf("estimated available bandwidth %d kbps is below configured min bitrate %d kbps",
				candidate/1000, e.minConfigured/1000)
			e.lastLowBitrateLogMs = nowMs
		}
		candidate = e.minConfigured
	}
	return candidate
}
