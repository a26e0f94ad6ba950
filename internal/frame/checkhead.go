// internal/frame/checkhead.go
package frame

import (
	"math/rand/v2"
	"sync"
	"time"
)

// CheckHead is the 2-byte per-exchange tag placed at the start of every
// request and echoed back by the device.
type CheckHead [2]byte

// CheckHeadSource produces the tag for the next exchange.
type CheckHeadSource interface {
	Next() CheckHead
}

// randomSource draws both bytes from [0,255) using a generator owned by one
// client, so rapid successive calls do not share a seed.
type randomSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource returns a pseudo-random source seeded from seed.
// A zero seed uses the current time.
func NewRandomSource(seed uint64) CheckHeadSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &randomSource{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *randomSource) Next() CheckHead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CheckHead{byte(s.rnd.IntN(255)), byte(s.rnd.IntN(255))}
}

// counterSource hands out consecutive tags starting after start.
type counterSource struct {
	mu   sync.Mutex
	last uint16
}

// NewCounterSource returns a monotonic source, wrapping at 0xFFFF.
func NewCounterSource(start uint16) CheckHeadSource {
	return &counterSource{last: start}
}

func (s *counterSource) Next() CheckHead {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return CheckHead{byte(s.last >> 8), byte(s.last)}
}
