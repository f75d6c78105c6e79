package sendbwe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingEventLogger struct {
	calls int
}

func (r *recordingEventLogger) LogLossBasedBweUpdate(uint32, uint8, int32) {
	r.calls++
}

func TestCapOrderingReceiverAndDelayBeforeMax(t *testing.T) {
	e := NewEstimator(&recordingEventLogger{}, WithTunableFinder(MapTunableFinder{}))
	e.SetBitrates(0, 0, 1_000_000)
	e.receiverCap = 900_000
	e.delayCap = 800_000

	got := e.cap(0, 2_000_000)
	require.Equal(t, uint32(800_000), got, "receiver/delay caps apply before configured max")
}

func TestCapFloorAppliedLast(t *testing.T) {
	e := NewEstimator(&recordingEventLogger{}, WithTunableFinder(MapTunableFinder{}))
	e.SetBitrates(0, 100_000, 1_000_000)
	e.receiverCap = 50_000 // below the configured floor

	got := e.cap(0, 200_000)
	require.Equal(t, uint32(100_000), got, "the configured floor must win even over a lower cap")
}

func TestCapBelowFloorWarningDebounced(t *testing.T) {
	e := NewEstimator(&recordingEventLogger{}, WithTunableFinder(MapTunableFinder{}))
	e.SetBitrates(0, 100_000, 1_000_000)

	e.cap(0, 10_000)
	require.Equal(t, int64(0), e.lastLowBitrateLogMs)

	e.cap(5000, 10_000)
	require.Equal(t, int64(0), e.lastLowBitrateLogMs, "within 10s of the last warning, the timestamp must not move")

	e.cap(10_001, 10_000)
	require.Equal(t, int64(10_001), e.lastLowBitrateLogMs)
}
