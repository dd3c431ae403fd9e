package snapshot

// PoolSize and BufSize match spec.md §4.8's buffer policy ("a small
// pool of preallocated buffers (e.g. 4 x 128 KiB)").
const (
	PoolSize = 4
	BufSize  = 128 * 1024
)

// Pool hands out preallocated encode buffers. Checking out more than
// PoolSize concurrently falls back to a one-off heap allocation rather
// than blocking, per spec.md §4.8.
type Pool struct {
	bufs  [PoolSize][]byte
	inUse [PoolSize]bool
}

func NewPool() *Pool {
	p := &Pool{}
	for i := range p.bufs {
		p.bufs[i] = make([]byte, 0, BufSize)
	}
	return p
}

// Buffer is a checked-out slice plus the slot it came from (-1 for a
// one-off fallback allocation, which Release is then a no-op for).
type Buffer struct {
	Bytes []byte
	slot  int
}

func (p *Pool) Checkout() *Buffer {
	for i := range p.bufs {
		if !p.inUse[i] {
			p.inUse[i] = true
			return &Buffer{Bytes: p.bufs[i][:0], slot: i}
		}
	}
	return &Buffer{Bytes: make([]byte, 0, BufSize), slot: -1}
}

func (p *Pool) Release(b *Buffer) {
	if b.slot >= 0 {
		p.inUse[b.slot] = false
	}
}
