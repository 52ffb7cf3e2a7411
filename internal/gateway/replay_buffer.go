package gateway

import "sync"

// ReplayBuffer is a fixed-size circular buffer of recently broadcast alert
// envelopes. Reconnecting clients pass their last seen seq and receive
// everything newer that is still buffered.
//
// Thread-safe for concurrent writes and reads.
type ReplayBuffer struct {
	mu   sync.RWMutex
	buf  []Envelope
	pos  int // next write position
	full bool
}

// NewReplayBuffer creates a replay buffer with the given capacity.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &ReplayBuffer{buf: make([]Envelope, capacity)}
}

// Push appends an envelope, overwriting the oldest entry when full.
func (rb *ReplayBuffer) Push(e Envelope) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	e.Alert = e.Alert.Clone()
	rb.buf[rb.pos] = e
	rb.pos = (rb.pos + 1) % len(rb.buf)
	if rb.pos == 0 {
		rb.full = true
	}
}

// Since returns buffered envelopes with Seq > afterSeq, oldest first.
func (rb *ReplayBuffer) Since(afterSeq int64) []Envelope {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var out []Envelope
	n := rb.len()
	for i := 0; i < n; i++ {
		e := rb.buf[rb.index(i)]
		if e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries currently in the buffer.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.len()
}

func (rb *ReplayBuffer) len() int {
	if rb.full {
		return len(rb.buf)
	}
	return rb.pos
}

// index converts a logical index (0 = oldest) to a physical buffer index.
func (rb *ReplayBuffer) index(logical int) int {
	if rb.full {
		return (rb.pos + logical) % len(rb.buf)
	}
	return logical
}
