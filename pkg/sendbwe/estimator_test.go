package sendbwe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEstimator() *Estimator {
	return NewEstimator(&recordingEventLogger{}, WithTunableFinder(MapTunableFinder{}))
}

func TestColdStartNoLoss(t *testing.T) {
	e := newTestEstimator()
	e.SetSendBitrate(300_000)
	e.SetMinMax(50_000, 2_000_000)

	e.UpdateReceiverEstimate(0, 800_000)
	bitrate, _, _ := e.CurrentEstimate()
	require.Equal(t, uint32(300_000), bitrate, "a receiver cap above the current bitrate must not raise it by itself")

	e.UpdateDelayBasedEstimate(100, 600_000)
	e.UpdateEstimate(100)
	bitrate, _, _ = e.CurrentEstimate()
	require.GreaterOrEqual(t, bitrate, uint32(600_000))
}

func TestSteadyIncreaseAcrossReports(t *testing.T) {
	e := newTestEstimator()
	e.SetSendBitrate(300_000)
	e.SetMinMax(50_000, 10_000_000)

	// Establish a first report with zero loss. No caps are set, so the
	// startup branch leaves the bitrate alone and the increase rule runs.
	e.UpdateReceiverBlock(0, 50, 50, 0)
	prev, _, _ := e.CurrentEstimate()

	for i, now := range []int64{1000, 2000, 3000} {
		e.UpdateReceiverBlock(0, 50, 50, now)
		got, _, _ := e.CurrentEstimate()
		require.Greater(t, got, prev, "report %d should increase the estimate", i)
		require.LessOrEqual(t, got, e.GetMinBitrate()+10_000_000)
		prev = got
	}
}

func TestLossDrivenHold(t *testing.T) {
	e := newTestEstimator()
	e.SetSendBitrate(500_000)
	e.SetMinMax(50_000, 2_000_000)
	e.UpdateReceiverBlock(0, 40, 100, 0) // leave startup with zero loss

	before, _, _ := e.CurrentEstimate()
	e.UpdateReceiverBlock(15, 40, 100, 5000) // ~5.9% loss, between low/high thresholds
	after, _, _ := e.CurrentEstimate()
	require.Equal(t, before, after, "loss strictly between the low and high thresholds must not change the estimate")
}

func TestLossDrivenDecreaseWithHysteresis(t *testing.T) {
	e := newTestEstimator()
	e.SetSendBitrate(500_000)
	e.SetMinMax(50_000, 2_000_000)

	e.UpdateReceiverBlock(40, 100, 100, 500) // ~15.6% loss, first-ever report
	got, _, _ := e.CurrentEstimate()
	require.Equal(t, uint32(460_937), got)

	// A second identical report shortly after must not decrease further:
	// the 300ms+rtt cooldown since the last decrease hasn't elapsed yet.
	e.UpdateReceiverBlock(40, 100, 100, 600)
	got2, _, _ := e.CurrentEstimate()
	require.Equal(t, got, got2)
}

func TestFeedbackTimeoutCutsBitrate(t *testing.T) {
	finder := MapTunableFinder{feedbackTimeoutKey: "Enabled"}
	e := NewEstimator(&recordingEventLogger{}, WithTunableFinder(finder))
	e.SetSendBitrate(400_000)
	e.SetMinMax(50_000, 2_000_000)
	e.lastFeedbackMs = 0
	e.lastPacketReportMs = 0
	e.firstReportMs = 0

	e.UpdateEstimate(5000)
	got, _, _ := e.CurrentEstimate()
	require.Equal(t, uint32(320_000), got)

	e.UpdateEstimate(5500)
	got2, _, _ := e.CurrentEstimate()
	require.Equal(t, got, got2, "no further cut before the 1000ms cooldown elapses")
}

func TestReceiverCapTightensBelowCurrent(t *testing.T) {
	e := newTestEstimator()
	e.SetSendBitrate(800_000)
	e.SetMinMax(50_000, 2_000_000)

	e.UpdateReceiverEstimate(0, 500_000)
	got, _, _ := e.CurrentEstimate()
	require.Equal(t, uint32(500_000), got)
}

func TestSetSendBitrateDoesNotCapImmediately(t *testing.T) {
	e := newTestEstimator()
	e.SetMinMax(50_000, 200_000)
	e.SetSendBitrate(900_000)

	got, _, _ := e.CurrentEstimate()
	require.Equal(t, uint32(900_000), got, "SetSendBitrate must not immediately clamp to max (spec §9)")

	e.UpdateEstimate(0)
	got, _, _ = e.CurrentEstimate()
	require.LessOrEqual(t, got, uint32(200_000))
}

func TestIdempotentUpdateEstimate(t *testing.T) {
	e := newTestEstimator()
	e.SetSendBitrate(500_000)
	e.SetMinMax(50_000, 2_000_000)
	e.UpdateReceiverBlock(5, 40, 100, 0)

	first, _, _ := e.CurrentEstimate()
	e.UpdateEstimate(0)
	second, _, _ := e.CurrentEstimate()
	require.Equal(t, first, second)
}

func TestInvariantBoundsHoldAfterCapping(t *testing.T) {
	e := newTestEstimator()
	e.SetSendBitrate(500_000)
	e.SetMinMax(100_000, 1_000_000)
	e.UpdateReceiverEstimate(0, 2_000_000)
	e.UpdateDelayBasedEstimate(0, 2_000_000)

	got, _, _ := e.CurrentEstimate()
	require.GreaterOrEqual(t, got, e.GetMinBitrate())
	require.LessOrEqual(t, got, e.maxConfigured)
}
