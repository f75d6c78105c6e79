package interceptor

import (
	"errors"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/logging"

	"github.com/thesyncim/sendbwe/pkg/sendbwe"
)

// FactoryOption configures a Factory.
type FactoryOption func(*Factory) error

// Factory creates SenderBWEInterceptor instances for each PeerConnection.
// Register it with a Pion interceptor.Registry to run loss-based bandwidth
// estimation on the send side.
type Factory struct {
	initialBitrate uint32
	minBitrate     uint32
	maxBitrate     uint32
	logFactory     logging.LoggerFactory
	tunables       sendbwe.TunableFinder
	metrics        sendbwe.MetricsSink
	eventLog       sendbwe.EventLogger
	clock          func() int64
}

// WithInitialBitrate sets the bitrate installed on the estimator before
// any feedback arrives. Default: 300 kbps.
func WithInitialBitrate(bitrateBps uint32) FactoryOption {
	return func(f *Factory) error {
		if bitrateBps == 0 {
			return errors.New("initial bitrate must be positive")
		}
		f.initialBitrate = bitrateBps
		return nil
	}
}

// WithMinMaxBitrate sets the configured floor and ceiling. Default:
// 10 kbps .. 1 Gbps.
func WithMinMaxBitrate(minBps, maxBps uint32) FactoryOption {
	return func(f *Factory) error {
		if minBps > maxBps {
			return errors.New("min bitrate must not exceed max bitrate")
		}
		f.minBitrate = minBps
		f.maxBitrate = maxBps
		return nil
	}
}

// WithFactoryLoggerFactory overrides the pion/logging factory used by the
// estimator and, when no WithFactoryEventLogger is given, by its default
// event logger.
func WithFactoryLoggerFactory(lf logging.LoggerFactory) FactoryOption {
	return func(f *Factory) error {
		f.logFactory = lf
		return nil
	}
}

// WithFactoryTunableFinder overrides how field-trial-style experiment
// strings are resolved. Default: environment variables.
func WithFactoryTunableFinder(finder sendbwe.TunableFinder) FactoryOption {
	return func(f *Factory) error {
		f.tunables = finder
		return nil
	}
}

// WithFactoryMetricsSink routes the estimator's one-shot UMA-style
// histograms to a caller-supplied sink. Default: discarded.
func WithFactoryMetricsSink(sink sendbwe.MetricsSink) FactoryOption {
	return func(f *Factory) error {
		f.metrics = sink
		return nil
	}
}

// WithFactoryEventLogger routes the estimator's per-update event log to a
// caller-supplied sink. Default: a pion/logging-backed logger at Trace level.
func WithFactoryEventLogger(log sendbwe.EventLogger) FactoryOption {
	return func(f *Factory) error {
		f.eventLog = log
		return nil
	}
}

// WithClock overrides the wallclock source the interceptor uses to drive
// the estimator. Tests can inject a fake to make the tick loop and
// feedback timestamps deterministic. Default: time.Now, in milliseconds.
func WithClock(clock func() int64) FactoryOption {
	return func(f *Factory) error {
		if clock == nil {
			return errors.New("clock must not be nil")
		}
		f.clock = clock
		return nil
	}
}

// NewFactory creates a Factory configured with the given options.
func NewFactory(opts ...FactoryOption) (*Factory, error) {
	f := &Factory{
		initialBitrate: 300_000,
		minBitrate:     10_000,
		maxBitrate:     1_000_000_000,
		logFactory:     logging.NewDefaultLoggerFactory(),
		tunables:       sendbwe.EnvTunableFinder{},
		metrics:        sendbwe.NoopMetricsSink{},
		clock:          func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// NewInterceptor creates a new SenderBWEInterceptor for a PeerConnection.
func (f *Factory) NewInterceptor(_ string) (interceptor.Interceptor, error) {
	estOpts := []sendbwe.Option{
		sendbwe.WithLoggerFactory(f.logFactory),
		sendbwe.WithTunableFinder(f.tunables),
		sendbwe.WithMetricsSink(f.metrics),
	}

	var eventLog sendbwe.EventLogger
	if f.eventLog != nil {
		eventLog = f.eventLog
	} else {
		eventLog = sendbwe.NewLoggingEventLogger(f.logFactory.NewLogger("sendbwe"))
	}

	est := sendbwe.NewEstimator(eventLog, estOpts...)
	est.SetMinMax(f.minBitrate, f.maxBitrate)
	est.SetSendBitrate(f.initialBitrate)

	return newSenderBWEInterceptor(est, f.clock), nil
}
