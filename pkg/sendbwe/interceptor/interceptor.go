package interceptor

import (
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"

	"github.com/thesyncim/sendbwe/pkg/sendbwe"
)

// tickInterval is how often the estimator is ticked in the absence of new
// Receiver Reports, so the feedback-timeout watchdog keeps advancing
// between reports. UMA telemetry only advances when a report arrives.
const tickInterval = 200 * time.Millisecond

// SenderBWEInterceptor runs a sendbwe.Estimator against live RTCP feedback
// on a sender's RTCP read path. All estimator access is serialized through
// mu, matching the estimator's single-threaded contract.
type SenderBWEInterceptor struct {
	interceptor.NoOp

	mu        sync.Mutex
	estimator *sendbwe.Estimator
	clock     func() int64

	streams      *streamTable
	localStreams *localStreamTable

	closed    chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
}

func newSenderBWEInterceptor(estimator *sendbwe.Estimator, clock func() int64) *SenderBWEInterceptor {
	return &SenderBWEInterceptor{
		estimator:    estimator,
		clock:        clock,
		streams:      newStreamTable(),
		localStreams: newLocalStreamTable(),
		closed:       make(chan struct{}),
	}
}

// Close shuts down the tick goroutine.
func (i *SenderBWEInterceptor) Close() error {
	select {
	case <-i.closed:
	default:
		close(i.closed)
	}
	i.wg.Wait()
	return nil
}

// CurrentEstimate returns the estimator's current target bitrate.
func (i *SenderBWEInterceptor) CurrentEstimate() uint32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	bitrate, _, _ := i.estimator.CurrentEstimate()
	return bitrate
}

// NotifyDelayBasedEstimate lets a host-supplied delay-based estimator (not
// part of this package) push its cap into the loss-based estimator, per
// the delay-based-cap input in the estimator's data model, and then ticks
// the control loop so the new cap can take effect during startup probing.
func (i *SenderBWEInterceptor) NotifyDelayBasedEstimate(bitrateBps uint32) {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.clock()
	i.estimator.UpdateDelayBasedEstimate(now, bitrateBps)
	i.estimator.UpdateEstimate(now)
}

// BindRTCPReader observes incoming RTCP, feeding Receiver Reports and REMB
// packets to the estimator before passing the raw bytes through unchanged.
func (i *SenderBWEInterceptor) BindRTCPReader(reader interceptor.RTCPReader) interceptor.RTCPReader {
	i.startOnce.Do(func() {
		i.wg.Add(1)
		go i.tickLoop()
	})

	return interceptor.RTCPReaderFunc(func(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
		n, a, err := reader.Read(b, a)
		if err == nil && n > 0 {
			i.processRTCP(b[:n])
		}
		return n, a, err
	})
}

// UnbindRemoteStream drops any per-SSRC report bookkeeping for a stream
// that has gone away.
func (i *SenderBWEInterceptor) UnbindRemoteStream(info *interceptor.StreamInfo) {
	i.streams.delete(info.SSRC)
}

func (i *SenderBWEInterceptor) processRTCP(raw []byte) {
	packets, err := rtcp.Unmarshal(raw)
	if err != nil {
		return
	}

	now := i.clock()
	nowNTP := compactNTPNow()

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, pkt := range packets {
		switch p := pkt.(type) {
		case *rtcp.ReceiverReport:
			i.handleReceiverReports(p.Reports, now, nowNTP)
		case *rtcp.ReceiverEstimatedMaximumBitrate:
			i.estimator.UpdateReceiverEstimate(now, uint32(p.Bitrate))
		}
	}
}

func (i *SenderBWEInterceptor) handleReceiverReports(reports []rtcp.ReceptionReport, now int64, nowNTP uint32) {
	for _, rr := range reports {
		report := getDecodedReport()
		report.ssrc = rr.SSRC
		report.fracLoss = rr.FractionLost
		report.rttMs = rttFromLSR(nowNTP, rr.LastSenderReport, rr.Delay)
		report.packets = i.streams.packetsSince(rr.SSRC, rr.LastSequenceNumber)

		// Skip reports before the receiver has echoed a sender report: without
		// an RTT sample the decrease cooldown in updateEstimate has nothing
		// meaningful to gate on.
		if report.rttMs >= 0 {
			i.estimator.UpdateReceiverBlock(report.fracLoss, report.rttMs, report.packets, now)
		}
		putDecodedReport(report)
	}
}

func (i *SenderBWEInterceptor) tickLoop() {
	defer i.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-i.closed:
			return
		case <-ticker.C:
			i.mu.Lock()
			i.estimator.UpdateEstimate(i.clock())
			i.mu.Unlock()
		}
	}
}
