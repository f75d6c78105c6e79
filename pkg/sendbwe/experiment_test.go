package sendbwe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLossExperimentValid(t *testing.T) {
	params, ok := parseLossExperiment("Enabled-0.05,0.20,500")
	require.True(t, ok)
	require.InDelta(t, 0.05, params.lowLossThreshold, 1e-9)
	require.InDelta(t, 0.20, params.highLossThreshold, 1e-9)
	require.Equal(t, int64(500_000), params.bitrateThresholdBps)
}

func TestParseLossExperimentRejectsInvalid(t *testing.T) {
	cases := []string{
		"Disabled",
		"Enabled-0,0.2,500",        // low must be > 0
		"Enabled-0.5,0.2,500",      // low must be <= high
		"Enabled-0.1,1.5,500",      // high must be <= 1
		"Enabled-0.1,0.2,-5",       // kbps must be >= 0
		"Enabled-0.1,0.2,9999999999", // kbps must be < 2147483
		"Enabled-not,a,number",
	}
	for _, c := range cases {
		_, ok := parseLossExperiment(c)
		require.Falsef(t, ok, "expected %q to be rejected", c)
	}
}

func TestLoadExperimentsFallsBackToDefaults(t *testing.T) {
	log := logDiscard{}
	params, timeoutEnabled := loadExperiments(MapTunableFinder{}, log)
	require.Equal(t, defaultLowLossThreshold, params.lowLossThreshold)
	require.Equal(t, defaultHighLossThreshold, params.highLossThreshold)
	require.Equal(t, int64(0), params.bitrateThresholdBps)
	require.False(t, timeoutEnabled)
}

func TestLoadExperimentsParsesAndEnablesTimeout(t *testing.T) {
	log := logDiscard{}
	finder := MapTunableFinder{
		lossExperimentKey:  "Enabled-0.03,0.15,200",
		feedbackTimeoutKey: "Enabled",
	}
	params, timeoutEnabled := loadExperiments(finder, log)
	require.InDelta(t, 0.03, params.lowLossThreshold, 1e-9)
	require.InDelta(t, 0.15, params.highLossThreshold, 1e-9)
	require.Equal(t, int64(200_000), params.bitrateThresholdBps)
	require.True(t, timeoutEnabled)
}

type logDiscard struct{}

func (logDiscard) Infof(string, ...interface{}) {}
func (logDiscard) Warnf(string, ...interface{}) {}
