// Package interceptor provides a Pion WebRTC interceptor that runs the
// send-side loss-based bandwidth estimator against live RTCP feedback.
//
// The interceptor sits on the sender's RTCP read path. It demultiplexes
// incoming RTCP Receiver Reports and REMB packets, derives the loss
// fraction, round-trip time and packet count each report carries, and
// feeds them to a sendbwe.Estimator on the caller's behalf. A background
// goroutine ticks the estimator at a fixed interval so the feedback
// watchdog advances even between reports.
//
// # Quick Start
//
//	factory, err := interceptor.NewFactory(
//	    interceptor.WithInitialBitrate(300_000),
//	    interceptor.WithMinMaxBitrate(50_000, 10_000_000),
//	)
//	if err != nil {
//	    return err
//	}
//	registry := &pioninterceptor.Registry{}
//	registry.Add(factory)
//
// # Requirements
//
// The remote receiver must send RTCP Receiver Reports on the negotiated
// RTCP path. REMB support is optional; when present it feeds the
// receiver-advertised cap described in the estimator's data model.
package interceptor
