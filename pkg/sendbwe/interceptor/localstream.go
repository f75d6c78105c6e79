package interceptor

import (
	"sync"
	"sync/atomic"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
)

// localStreamState counts packets and bytes sent on one local SSRC, purely
// for host-side diagnostics; none of it feeds the estimator, which only
// ever learns about send volume indirectly through the receiver's reported
// sequence-number delta.
type localStreamState struct {
	packetsSent atomic.Uint64
	bytesSent   atomic.Uint64
}

type localStreamTable struct {
	mu     sync.Mutex
	states map[uint32]*localStreamState
}

func newLocalStreamTable() *localStreamTable {
	return &localStreamTable{states: map[uint32]*localStreamState{}}
}

func (t *localStreamTable) get(ssrc uint32) *localStreamState {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[ssrc]
	if !ok {
		s = &localStreamState{}
		t.states[ssrc] = s
	}
	return s
}

func (t *localStreamTable) delete(ssrc uint32) {
	t.mu.Lock()
	delete(t.states, ssrc)
	t.mu.Unlock()
}

// BindLocalStream tallies outgoing packets per SSRC. It never alters the
// packet or its header; SentStats is the only observable effect.
func (i *SenderBWEInterceptor) BindLocalStream(info *interceptor.StreamInfo, writer interceptor.RTPWriter) interceptor.RTPWriter {
	state := i.localStreams.get(info.SSRC)

	return interceptor.RTPWriterFunc(func(header *rtp.Header, payload []byte, a interceptor.Attributes) (int, error) {
		state.packetsSent.Add(1)
		state.bytesSent.Add(uint64(header.MarshalSize() + len(payload)))
		return writer.Write(header, payload, a)
	})
}

// UnbindLocalStream drops the diagnostic counters for a local stream that
// has gone away.
func (i *SenderBWEInterceptor) UnbindLocalStream(info *interceptor.StreamInfo) {
	i.localStreams.delete(info.SSRC)
}

// SentStats returns the number of packets and bytes sent on ssrc since it
// was bound, for host-side logging alongside the estimator's event log.
func (i *SenderBWEInterceptor) SentStats(ssrc uint32) (packets, bytes uint64) {
	s := i.localStreams.get(ssrc)
	return s.packetsSent.Load(), s.bytesSent.Load()
}
