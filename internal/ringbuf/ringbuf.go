// Package ringbuf provides a bounded, evicting ring of timestamped
// observations. When full, each Push overwrites the oldest entry, so the ring
// always holds the most recent Cap() values in arrival order.
//
// Ring is not safe for concurrent use; callers serialise access with their
// own per-series lock.
package ringbuf

import "github.com/anand121shah/tradingbot/internal/model"

// DefaultCapacity is the per-series history bound used by the market analyzer.
const DefaultCapacity = 1000

// Ring is a fixed-capacity FIFO that evicts its oldest element on overflow.
type Ring struct {
	buf   []model.Observation
	head  int // index of the oldest element
	count int

	evicted uint64
}

// New creates a ring holding at most capacity observations.
// Minimum capacity is 1.
func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]model.Observation, capacity)}
}

// Push appends an observation. Returns true if the oldest entry was evicted
// to make room.
func (r *Ring) Push(o model.Observation) bool {
	n := len(r.buf)
	if r.count < n {
		r.buf[(r.head+r.count)%n] = o
		r.count++
		return false
	}

	r.buf[r.head] = o
	r.head = (r.head + 1) % n
	r.evicted++
	return true
}

// Len returns the current number of observations.
func (r *Ring) Len() int { return r.count }

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Evicted returns the total number of observations dropped from the front.
func (r *Ring) Evicted() uint64 { return r.evicted }

// At returns the i-th observation, oldest first. Panics if i is out of range.
func (r *Ring) At(i int) model.Observation {
	if i < 0 || i >= r.count {
		panic("ringbuf: index out of range")
	}
	return r.buf[(r.head+i)%len(r.buf)]
}

// Last returns the newest observation, false if the ring is empty.
func (r *Ring) Last() (model.Observation, bool) {
	if r.count == 0 {
		return model.Observation{}, false
	}
	return r.At(r.count - 1), true
}

// Snapshot returns a copy of all observations, oldest first.
func (r *Ring) Snapshot() []model.Observation {
	out := make([]model.Observation, r.count)
	for i := range out {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Values returns a copy of the observation values, oldest first.
func (r *Ring) Values() []float64 {
	return r.Tail(r.count)
}

// Tail returns the values of the newest n observations, oldest first.
// n is clamped to Len().
func (r *Ring) Tail(n int) []float64 {
	if n > r.count {
		n = r.count
	}
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	start := r.count - n
	for i := range out {
		out[i] = r.buf[(r.head+start+i)%len(r.buf)].Value
	}
	return out
}

// Reset empties the ring without releasing its storage.
func (r *Ring) Reset() {
	r.head = 0
	r.count = 0
	for i := range r.buf {
		r.buf[i] = model.Observation{}
	}
}
