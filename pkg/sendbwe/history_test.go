package sendbwe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinBitrateHistoryMonotoneAndMin(t *testing.T) {
	var h minBitrateHistory

	h.push(0, 100)
	h.push(100, 200)
	h.push(200, 50)
	require.Equal(t, uint32(50), h.min(), "a lower bitrate should dominate higher earlier entries")

	h.push(300, 300)
	require.Equal(t, uint32(50), h.min(), "a higher bitrate should not displace the current minimum")
}

func TestMinBitrateHistoryExpiryOffByOne(t *testing.T) {
	var h minBitrateHistory
	h.push(0, 10)

	// age(0,1000) + 1 = 1001 > 1000: the "+1" fudge expires a point
	// exactly 1000ms old, one push earlier than a naive ">1000" check
	// would. This is the bit-exact behavior of the original estimator
	// (spec §9) and must not be "corrected".
	h.push(1000, 20)
	require.Equal(t, uint32(20), h.min())

	h.push(1001, 5)
	require.False(t, h.empty())
	require.Equal(t, uint32(5), h.min())
}

func TestMinBitrateHistoryClear(t *testing.T) {
	var h minBitrateHistory
	h.push(0, 10)
	require.False(t, h.empty())
	h.clear()
	require.True(t, h.empty())
}
