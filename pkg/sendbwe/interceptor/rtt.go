package interceptor

import (
	"math"
	"time"
)

const (
	ntpEpochOffsetSec int64 = 2208988800
	usPerSec          int64 = 1_000_000
)

// compactNTPNow returns the current wallclock time as an RTCP compact NTP
// timestamp (the middle 32 bits of a full 64-bit NTP timestamp).
func compactNTPNow() uint32 {
	return compactNTP(time.Now())
}

func compactNTP(t time.Time) uint32 {
	us := t.UnixMicro() + ntpEpochOffsetSec*usPerSec
	sec := uint32(us / usPerSec)
	frac := uint32((us % usPerSec) << 32 / usPerSec)
	return (sec << 16) | (frac >> 16)
}

// rttFromLSR computes a round-trip estimate in milliseconds from a Receiver
// Report's last-SR and delay-since-last-SR fields, per RFC 3550 section
// 6.4.1: rtt = now - lsr - dlsr, all in compact NTP units (1/65536s).
//
// Returns -1 when the receiver never echoed a sender report (lsr == 0),
// meaning no RTT sample is available yet.
func rttFromLSR(nowCompactNTP, lsr, dlsr uint32) int64 {
	if lsr == 0 {
		return -1
	}
	elapsed := int64(nowCompactNTP) - int64(lsr) - int64(dlsr)
	return int64(math.Round(float64(elapsed) * 1000 / 65536))
}
