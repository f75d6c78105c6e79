// Package sendbwe implements the send-side loss-based bandwidth estimator
// used by a real-time media sender to decide how many bits per second it
// may transmit over a lossy, delay-variable path.
package sendbwe

// neverMs is the sentinel value for timestamp fields that have never been
// set, matching the "-1 means never" convention used throughout the
// original estimator.
const neverMs int64 = -1

const (
	// increaseIntervalMs is the width of the min-bitrate sliding window and
	// the cadence the additive-increase rule assumes receiver reports
	// arrive at.
	increaseIntervalMs int64 = 1000
	// decreaseIntervalMs is the base cooldown between multiplicative
	// decreases; the actual cooldown also adds the last observed RTT.
	decreaseIntervalMs int64 = 300
	// startPhaseMs is the duration after the first receiver report during
	// which startup probing is permitted.
	startPhaseMs int64 = 2000
	// convergenceTimeMs is how long after the first report convergence
	// telemetry is emitted.
	convergenceTimeMs int64 = 20000
	// minPacketsForLossUpdate gates how many packets must be accounted for
	// before a smoothed loss fraction is published.
	minPacketsForLossUpdate int32 = 20
	// defaultMaxBitrateBps is used when no configured max is supplied.
	defaultMaxBitrateBps uint32 = 1_000_000_000
	// lowBitrateLogPeriodMs debounces the below-floor warning.
	lowBitrateLogPeriodMs int64 = 10000
	// eventLogPeriodMs debounces loss-based BWE event emission absent any
	// other trigger.
	eventLogPeriodMs int64 = 5000
	// feedbackIntervalMs is the assumed RTCP feedback cadence; receiver
	// reports are expected roughly every 1.5s.
	feedbackIntervalMs int64 = 1500
	// feedbackTimeoutIntervals is the number of feedbackIntervalMs periods
	// of total silence before the feedback-timeout cut may fire.
	feedbackTimeoutIntervals int64 = 3
	// timeoutCutCooldownMs rate-limits the feedback-timeout cut.
	timeoutCutCooldownMs int64 = 1000

	defaultLowLossThreshold       float64 = 0.02
	defaultHighLossThreshold      float64 = 0.10
	defaultBitrateThresholdKbps   int64   = 0
	maxExperimentBitrateKbps      int64   = 2_147_483
)

// umaState tracks which one-shot startup/convergence telemetry has already
// been emitted, so it is never emitted twice.
type umaState int

const (
	umaNoUpdate umaState = iota
	umaFirstDone
	umaDone
)

// rampupMetric names a ramp-up-time histogram and the bitrate, in kbps,
// whose first crossing it records.
type rampupMetric struct {
	name        string
	bitrateKbps int64
}

var rampupMetrics = [3]rampupMetric{
	{name: "BWE.RampUpTimeTo500kbpsInMs", bitrateKbps: 500},
	{name: "BWE.RampUpTimeTo1000kbpsInMs", bitrateKbps: 1000},
	{name: "BWE.RampUpTimeTo2000kbpsInMs", bitrateKbps: 2000},
}
