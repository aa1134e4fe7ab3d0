// Package ring implements the bounded, lock-free queue primitive the
// capture and worker cores hand pool-buffer addresses through: a
// sequence-counter ring buffer built on plain atomics, no mutex. It
// supports the single-producer/single-consumer topology downstream rings
// use, and the multi-producer/single-consumer topology the CLEAR ring
// needs because any worker can recycle a buffer into it.
package ring

import (
	"sync/atomic"
)

// Ring is a bounded queue of pointer-sized elements (here, pool-buffer
// indices). Capacity is rounded up to the next power of two, with a minimum
// of two. Zero value is not usable; construct with New.
type Ring struct {
	mask  uint64
	cells []cell
	// enqueuePos/dequeuePos track the next slot a producer/consumer will
	// attempt, not the number of elements in the ring.
	enqueuePos uint64
	_          [56]byte // pad to keep producer/consumer cursors on separate cache lines
	dequeuePos uint64
}

type cell struct {
	sequence atomic.Uint64
	value    uintptr
}

// New returns a ring able to hold at least size elements.
func New(size int) *Ring {
	cap := nextPow2(uint64(size))
	if cap < 2 {
		// With a single cell, the sequence value of a filled slot equals the
		// value the next producer waits for, so a full ring would accept
		// another enqueue. Two cells keep the states distinct.
		cap = 2
	}
	r := &Ring{
		mask:  cap - 1,
		cells: make([]cell, cap),
	}
	for i := range r.cells {
		r.cells[i].sequence.Store(uint64(i))
	}
	return r
}

func nextPow2(x uint64) uint64 {
	if x < 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1
}

// Cap returns the ring's element capacity (already rounded to a power of two).
func (r *Ring) Cap() int {
	return len(r.cells)
}

// TryEnqueue attempts to push v onto the ring. It never blocks: it returns
// false immediately if the ring is full. Safe for any number of concurrent
// producers.
func (r *Ring) TryEnqueue(v uintptr) bool {
	var c *cell
	pos := atomic.LoadUint64(&r.enqueuePos)
	for {
		c = &r.cells[pos&r.mask]
		seq := c.sequence.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&r.enqueuePos, pos, pos+1) {
				c.value = v
				c.sequence.Store(pos + 1)
				return true
			}
			pos = atomic.LoadUint64(&r.enqueuePos)
		case diff < 0:
			return false // full
		default:
			pos = atomic.LoadUint64(&r.enqueuePos)
		}
	}
}

// TryDequeue attempts to pop a value off the ring. It never blocks: it
// returns ok=false immediately if the ring is empty. Safe for any number of
// concurrent consumers, though the capture pipeline only ever uses a single
// consumer per downstream ring.
func (r *Ring) TryDequeue() (v uintptr, ok bool) {
	var c *cell
	pos := atomic.LoadUint64(&r.dequeuePos)
	for {
		c = &r.cells[pos&r.mask]
		seq := c.sequence.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&r.dequeuePos, pos, pos+1) {
				v = c.value
				c.sequence.Store(pos + r.mask + 1)
				return v, true
			}
			pos = atomic.LoadUint64(&r.dequeuePos)
		case diff < 0:
			return 0, false // empty
		default:
			pos = atomic.LoadUint64(&r.dequeuePos)
		}
	}
}
