// Package bufferpool provides the enumerable set of fixed-size large-page
// buffers the capture core writes super-frames into. Buffers are backed
// by a single mmap(2) region requested with MAP_HUGETLB where the host
// supports it, falling back to an ordinary anonymous mapping otherwise.
package bufferpool

import (
	"fmt"
	"log"

	"golang.org/x/sys/unix"

	"github.com/stfc-aeg/odin-orca-quest/internal/ring"
)

// Pool is a fixed set of equal-size buffers, each addressable by index.
// A buffer's "address" is its index: that is what travels through the
// lock-free rings.
type Pool struct {
	bufSize int
	region  []byte
	buffers [][]byte
}

// New allocates a pool of n buffers of bufSize bytes each.
func New(n, bufSize int) (*Pool, error) {
	if n <= 0 || bufSize <= 0 {
		return nil, fmt.Errorf("bufferpool: n and bufSize must be positive, got n=%d bufSize=%d", n, bufSize)
	}
	total := n * bufSize

	region, err := unix.Mmap(-1, 0, total,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB)
	if err != nil {
		log.Printf("bufferpool: huge-page mapping unavailable (%v), falling back to a regular anonymous mapping", err)
		region, err = unix.Mmap(-1, 0, total,
			unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
		if err != nil {
			return nil, fmt.Errorf("bufferpool: mmap failed: %w", err)
		}
	}

	p := &Pool{bufSize: bufSize, region: region, buffers: make([][]byte, n)}
	for i := 0; i < n; i++ {
		p.buffers[i] = region[i*bufSize : (i+1)*bufSize : (i+1)*bufSize]
	}
	return p, nil
}

// NumBuffers returns the number of buffers in the pool.
func (p *Pool) NumBuffers() int {
	return len(p.buffers)
}

// BufferSize returns the size, in bytes, of each buffer.
func (p *Pool) BufferSize() int {
	return p.bufSize
}

// Buffer returns the byte slice backing buffer index idx. The caller owns
// exclusive access to the bytes for as long as the index is not sitting
// in the CLEAR ring or a downstream ring at the same time.
func (p *Pool) Buffer(idx uintptr) []byte {
	return p.buffers[idx]
}

// SeedClear populates clear with every buffer index in the pool, as
// required at startup so every buffer starts out owned by CLEAR.
func (p *Pool) SeedClear(clear *ring.Ring) {
	for i := 0; i < len(p.buffers); i++ {
		if !clear.TryEnqueue(uintptr(i)) {
			// Only possible if the caller sized the CLEAR ring smaller than
			// the pool, which is a construction-time mistake, not a runtime
			// condition worth tolerating.
			panic(fmt.Sprintf("bufferpool: CLEAR ring too small to hold buffer %d", i))
		}
	}
}

// Close releases the mmap'd region. Not part of the steady-state fast path.
func (p *Pool) Close() error {
	if p.region == nil {
		return nil
	}
	err := unix.Munmap(p.region)
	p.region = nil
	p.buffers = nil
	return err
}
