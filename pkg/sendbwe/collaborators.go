package sendbwe

import (
	"os"

	"github.com/pion/logging"
)

// EventLogger receives an entry from the loss-based control loop when
// capping changes the candidate bitrate, when the published loss fraction
// changes, on the first run, or when more than eventLogPeriodMs has passed
// since the last entry. Implementations must not block; the estimator
// treats this as fire-and-forget.
type EventLogger interface {
	LogLossBasedBweUpdate(bitrateBps uint32, lossQ8 uint8, expectedPackets int32)
}

// TunableFinder resolves a named tunable to its raw string value, returning
// "" when the tunable is unset. It models the field-trial-style registry
// the original estimator reads experiment overrides from.
type TunableFinder interface {
	Find(key string) string
}

// MetricsSink receives one-shot startup and convergence histograms emitted
// by the telemetry emitter (spec §4.7).
type MetricsSink interface {
	// Counts100000 records value into a histogram bucketed across
	// [0, 100000], used for the ramp-up-time metrics.
	Counts100000(name string, value int64)
	// CountsWithBounds records value into a histogram with an explicit
	// range and bucket count.
	CountsWithBounds(name string, value, min, max int64, buckets int)
}

// HostFloor returns the absolute minimum bitrate the enclosing controller
// will ever accept, regardless of what SetMinMax is asked to configure.
type HostFloor func() uint32

// MapTunableFinder is a TunableFinder backed by a plain map, intended for
// tests and for embedders that already centralize their own tunables.
type MapTunableFinder map[string]string

// Find implements TunableFinder.
func (m MapTunableFinder) Find(key string) string {
	return m[key]
}

// EnvTunableFinder is a TunableFinder backed by process environment
// variables, the "environment-provided key/value lookup" described in
// spec §4.8.
type EnvTunableFinder struct{}

// Find implements TunableFinder.
func (EnvTunableFinder) Find(key string) string {
	v, _ := os.LookupEnv(key)
	return v
}

// NoopMetricsSink discards every histogram sample. It is the default
// MetricsSink so the estimator never needs a nil check on the hot path.
type NoopMetricsSink struct{}

// Counts100000 implements MetricsSink.
func (NoopMetricsSink) Counts100000(string, int64) {}

// CountsWithBounds implements MetricsSink.
func (NoopMetricsSink) CountsWithBounds(string, int64, int64, int64, int) {}

// loggingEventLogger adapts a pion/logging.LeveledLogger into an
// EventLogger, the same way pion-bwe's SendSideController borrows a
// logging.LeveledLogger for its own event trace rather than inventing a
// bespoke sink type.
type loggingEventLogger struct {
	log logging.LeveledLogger
}

// NewLoggingEventLogger wraps a pion/logging.LeveledLogger as an
// EventLogger, for hosts that want the update trace folded into their
// existing logger rather than a custom sink.
func NewLoggingEventLogger(log logging.LeveledLogger) EventLogger {
	return loggingEventLogger{log: log}
}

// LogLossBasedBweUpdate implements EventLogger.
func (l loggingEventLogger) LogLossBasedBweUpdate(bitrateBps uint32, lossQ8 uint8, expectedPackets int32) {
	l.log.Tracef("loss-based bwe update: bitrate=%d lossQ8=%d expectedPackets=%d", bitrateBps, lossQ8, expectedPackets)
}
