package sendbwe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedbackStaleThreshold(t *testing.T) {
	require.False(t, feedbackStale(1799))
	require.True(t, feedbackStale(1800))
	require.True(t, feedbackStale(1801))
}

func TestMaybeTimeoutCutRequiresExperimentEnabled(t *testing.T) {
	e := NewEstimator(&recordingEventLogger{}, WithTunableFinder(MapTunableFinder{}))
	e.SetBitrates(400_000, 0, 2_000_000)
	e.lastFeedbackMs = 0

	cut := e.maybeTimeoutCut(5000, 5000)
	require.False(t, cut)
	require.Equal(t, uint32(400_000), e.bitrate)
}

func TestMaybeTimeoutCutAppliesOncePerCooldown(t *testing.T) {
	finder := MapTunableFinder{feedbackTimeoutKey: "Enabled"}
	e := NewEstimator(&recordingEventLogger{}, WithTunableFinder(finder))
	e.SetBitrates(400_000, 0, 2_000_000)
	e.lastFeedbackMs = 0

	cut := e.maybeTimeoutCut(5000, 5000)
	require.True(t, cut)
	require.Equal(t, uint32(320_000), e.bitrate)

	// Even with continued starvation, no second cut inside the cooldown.
	cut = e.maybeTimeoutCut(5500, 5500)
	require.False(t, cut)
	require.Equal(t, uint32(320_000), e.bitrate)

	// After the cooldown elapses, another cut is allowed.
	cut = e.maybeTimeoutCut(6001, 6001)
	require.True(t, cut)
	require.Equal(t, uint32(256_000), e.bitrate)
}
