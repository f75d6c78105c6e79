package sendbwe

import (
	"github.com/pion/logging"
)

// Option configures an Estimator at construction time.
type Option func(*Estimator)

// WithLoggerFactory configures the logging.LoggerFactory the estimator
// pulls its warning/trace logger from. Defaults to
// logging.NewDefaultLoggerFactory(), matching pion-bwe's
// gcc.SendSideController.
func WithLoggerFactory(lf logging.LoggerFactory) Option {
	return func(e *Estimator) {
		e.logFactory = lf
	}
}

// WithTunableFinder configures the registry the experiment loader (spec
// §4.8) reads BweLossExperiment and WebRTC-FeedbackTimeout from. Defaults
// to EnvTunableFinder.
func WithTunableFinder(f TunableFinder) Option {
	return func(e *Estimator) {
		e.tunables = f
	}
}

// WithMetricsSink configures the histogram sink the telemetry emitter
// (spec §4.7) writes to. Defaults to NoopMetricsSink.
func WithMetricsSink(m MetricsSink) Option {
	return func(e *Estimator) {
		e.metrics = m
	}
}

// WithHostFloor configures the absolute minimum bitrate the enclosing
// controller will ever accept. Defaults to a floor of 0.
func WithHostFloor(f HostFloor) Option {
	return func(e *Estimator) {
		e.hostFloor = f
	}
}

// Estimator is the send-side loss-based bandwidth estimator. It is not
// internally synchronized: every method assumes single-threaded access
// from the embedding's network/worker context, and every timestamp is
// supplied by the caller in milliseconds (see spec §5/§9).
type Estimator struct {
	bitrate uint32

	minConfigured uint32
	maxConfigured uint32

	receiverCap uint32
	delayCap    uint32

	lastFractionLoss       uint8
	lastLoggedFractionLoss uint8
	lastRTTMs              int64

	lostAccQ8   int64
	expectedAcc int32

	hasDecreasedSinceLastLoss bool
	minHistory                minBitrateHistory

	firstReportMs       int64
	lastFeedbackMs      int64
	lastPacketReportMs  int64
	lastTimeoutMs       int64
	lastDecreaseMs      int64
	lastLowBitrateLogMs int64
	lastEventLogMs      int64

	umaState              umaState
	bitrateAt2sKbps       int64
	initiallyLostPackets  int32
	rampupReached         [3]bool

	lowLossThresh             float64
	highLossThresh            float64
	bitrateThresholdBps       int64
	feedbackTimeoutExperiment bool

	logFactory logging.LoggerFactory
	log        logging.LeveledLogger
	eventLog   EventLogger
	metrics    MetricsSink
	tunables   TunableFinder
	hostFloor  HostFloor
}

// NewEstimator creates an Estimator bound to eventLog, which must outlive
// the Estimator (spec §9, "borrowed, non-owning reference"). The estimator
// starts with no bitrate installed; call SetSendBitrate or SetBitrates
// before the first UpdateEstimate-driving call.
func NewEstimator(eventLog EventLogger, opts ...Option) *Estimator {
	e := &Estimator{
		maxConfigured:       defaultMaxBitrateBps,
		lastLowBitrateLogMs: neverMs,
		firstReportMs:       neverMs,
		lastFeedbackMs:      neverMs,
		lastPacketReportMs:  neverMs,
		lastTimeoutMs:       neverMs,
		lastEventLogMs:      neverMs,
		logFactory:          logging.NewDefaultLoggerFactory(),
		eventLog:            eventLog,
		metrics:             NoopMetricsSink{},
		tunables:            EnvTunableFinder{},
		hostFloor:           func() uint32 { return 0 },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.logFactory.NewLogger("sendbwe")

	params, timeoutEnabled := loadExperiments(e.tunables, e.log)
	e.lowLossThresh = params.lowLossThreshold
	e.highLossThresh = params.highLossThreshold
	e.bitrateThresholdBps = params.bitrateThresholdBps
	e.feedbackTimeoutExperiment = timeoutEnabled

	e.minConfigured = e.hostFloor()

	return e
}

// SetBitrates installs an initial send bitrate (if positive) and the
// configured min/max bounds (spec §4.6).
func (e *Estimator) SetBitrates(send, min, max uint32) {
	if send > 0 {
		e.SetSendBitrate(send)
	}
	e.SetMinMax(min, max)
}

// SetSendBitrate installs bitrate as the current estimate and clears the
// min-bitrate history so the new value is used directly on the next
// control-loop tick. It does not cap bitrate against the configured
// bounds immediately, even if it exceeds maxConfigured -- capping happens
// the next time UpdateEstimate runs (spec §9, preserved deliberately).
//
// bitrate must be > 0; this is a programmer error, signaled by panicking,
// per spec §7.
func (e *Estimator) SetSendBitrate(bitrate uint32) {
	if bitrate == 0 {
		panic("sendbwe: SetSendBitrate requires bitrate > 0")
	}
	e.bitrate = bitrate
	e.minHistory.clear()
}

// SetMinMax sets the configured min/max bitrate bounds. min is raised to
// the host floor if necessary; max defaults to defaultMaxBitrateBps when 0,
// and is otherwise raised to at least the resulting min (spec §4.6).
func (e *Estimator) SetMinMax(min, max uint32) {
	e.minConfigured = min
	if floor := e.hostFloor(); floor > e.minConfigured {
		e.minConfigured = floor
	}
	if max > 0 {
		e.maxConfigured = max
		if e.minConfigured > e.maxConfigured {
			e.maxConfigured = e.minConfigured
		}
	} else {
		e.maxConfigured = defaultMaxBitrateBps
	}
}

// GetMinBitrate returns the currently configured minimum bitrate.
func (e *Estimator) GetMinBitrate() uint32 {
	return e.minConfigured
}

// CurrentEstimate returns the current target bitrate along with the most
// recently observed loss fraction (Q8) and RTT.
func (e *Estimator) CurrentEstimate() (bitrateBps uint32, lossQ8 uint8, rttMs int64) {
	return e.bitrate, e.lastFractionLoss, e.lastRTTMs
}

// UpdateReceiverEstimate installs a new receiver-advertised ceiling and
// re-caps the current estimate against it immediately.
func (e *Estimator) UpdateReceiverEstimate(nowMs int64, bitrate uint32) {
	e.receiverCap = bitrate
	e.bitrate = e.cap(nowMs, e.bitrate)
}

// UpdateDelayBasedEstimate installs a new delay-based ceiling and re-caps
// the current estimate against it immediately.
func (e *Estimator) UpdateDelayBasedEstimate(nowMs int64, bitrate uint32) {
	e.delayCap = bitrate
	e.bitrate = e.cap(nowMs, e.bitrate)
}

// UpdateReceiverBlock folds a receiver report into the loss accumulator
// and, once enough packets have been observed, runs the control loop
// (spec §4.3/§4.4/§4.5).
func (e *Estimator) UpdateReceiverBlock(fracQ8 uint8, rttMs int64, packets int32, nowMs int64) {
	e.onReceiverBlock(fracQ8, rttMs, packets, nowMs)
}

// UpdateEstimate runs the control loop without a new receiver report,
// e.g. when a delay-based estimate update should be allowed to move the
// target bitrate during startup probing (spec §4.5).
func (e *Estimator) UpdateEstimate(nowMs int64) {
	e.updateEstimate(nowMs)
}

// updateEstimate is the control loop described in spec §4.5.
func (e *Estimator) updateEstimate(nowMs int64) {
	if e.lastFractionLoss == 0 && e.isInStartPhase(nowMs) {
		prev := e.bitrate
		if e.receiverCap > e.bitrate {
			e.bitrate = e.cap(nowMs, e.receiverCap)
		}
		if e.delayCap > e.bitrate {
			e.bitrate = e.cap(nowMs, e.delayCap)
		}
		if e.bitrate != prev {
			e.minHistory.clear()
			e.minHistory.push(nowMs, e.bitrate)
			return
		}
	}

	e.minHistory.push(nowMs, e.bitrate)
	if e.lastPacketReportMs == neverMs {
		e.bitrate = e.cap(nowMs, e.bitrate)
		return
	}

	deltaReportMs := nowMs - e.lastPacketReportMs
	deltaFeedbackMs := nowMs - e.lastFeedbackMs

	if !feedbackStale(deltaReportMs) {
		lossReal := float64(e.lastFractionLoss) / 256.0
		switch {
		case int64(e.bitrate) < e.bitrateThresholdBps || lossReal <= e.lowLossThresh:
			// Increase rate by 8% of the min bitrate seen in the last
			// window, plus a flat 1kbps nudge so low rates don't stall.
			e.bitrate = uint32(float64(e.minHistory.min())*1.08+0.5) + 1000
		case int64(e.bitrate) > e.bitrateThresholdBps:
			if lossReal > e.highLossThresh {
				cooldownMs := decreaseIntervalMs + e.lastRTTMs
				if !e.hasDecreasedSinceLastLoss && nowMs-e.lastDecreaseMs >= cooldownMs {
					e.lastDecreaseMs = nowMs
					e.bitrate = uint32((uint64(e.bitrate) * (512 - uint64(e.lastFractionLoss))) / 512)
					e.hasDecreasedSinceLastLoss = true
				}
			}
		}
	} else if e.maybeTimeoutCut(nowMs, deltaFeedbackMs) {
		// handled inside maybeTimeoutCut
	}

	cappedBitrate := e.cap(nowMs, e.bitrate)
	if cappedBitrate != e.bitrate ||
		e.lastFractionLoss != e.lastLoggedFractionLoss ||
		e.lastEventLogMs == neverMs ||
		nowMs-e.lastEventLogMs > eventLogPeriodMs {
		e.eventLog.LogLossBasedBweUpdate(cappedBitrate, e.lastFractionLoss, e.expectedAcc)
		e.lastLoggedFractionLoss = e.lastFractionLoss
		e.lastEventLogMs = nowMs
	}
	e.bitrate = cappedBitrate
}
