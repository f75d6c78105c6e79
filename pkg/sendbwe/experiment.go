package sendbwe

import (
	"fmt"
	"strings"
)

const (
	lossExperimentKey    = "BweLossExperiment"
	feedbackTimeoutKey   = "WebRTC-FeedbackTimeout"
	lossExperimentPrefix = "Enabled"
)

// lossExperimentParams holds the parsed outcome of the loss-threshold
// experiment tunable (spec §4.8).
type lossExperimentParams struct {
	lowLossThreshold    float64
	highLossThreshold   float64
	bitrateThresholdBps int64
}

func defaultLossExperimentParams() lossExperimentParams {
	return lossExperimentParams{
		lowLossThreshold:    defaultLowLossThreshold,
		highLossThreshold:   defaultHighLossThreshold,
		bitrateThresholdBps: defaultBitrateThresholdKbps * 1000,
	}
}

// loadExperiments queries finder for the loss-threshold and
// feedback-timeout tunables. Any parse failure falls back to defaults and
// logs a warning rather than propagating an error, per spec §4.8/§7.
func loadExperiments(finder TunableFinder, log warner) (lossExperimentParams, bool) {
	params := defaultLossExperimentParams()

	value := finder.Find(lossExperimentKey)
	if strings.HasPrefix(value, lossExperimentPrefix) {
		if parsed, ok := parseLossExperiment(value); ok {
			log.Infof("enabled BweLossExperiment with parameters %v, %v, %d",
				parsed.lowLossThreshold, parsed.highLossThreshold, parsed.bitrateThresholdBps/1000)
			params = parsed
		} else {
			log.Warnf("failed to parse parameters for BweLossExperiment experiment from tunable string, using default")
		}
	}

	timeoutEnabled := finder.Find(feedbackTimeoutKey) != ""
	return params, timeoutEnabled
}

// parseLossExperiment parses a value of the form "Enabled-<low>,<high>,<kbps>"
// and validates it per spec §4.8.
func parseLossExperiment(value string) (lossExperimentParams, bool) {
	var low, high float64
	var kbps int64
	n, err := fmt.Sscanf(value, lossExperimentPrefix+"-%f,%f,%d", &low, &high, &kbps)
	if err != nil || n != 3 {
		return lossExperimentParams{}, false
	}
	if !(low > 0 && low <= 1) {
		return lossExperimentParams{}, false
	}
	if !(high > 0 && high <= 1) {
		return lossExperimentParams{}, false
	}
	if low > high {
		return lossExperimentParams{}, false
	}
	if kbps < 0 || kbps >= maxExperimentBitrateKbps {
		return lossExperimentParams{}, false
	}
	return lossExperimentParams{
		lowLossThreshold:    low,
		highLossThreshold:   high,
		bitrateThresholdBps: kbps * 1000,
	}, true
}

// warner is the minimal slice of logging.LeveledLogger the experiment
// loader needs; it keeps this file independent from the logging package
// import beyond what's required.
type warner interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}
