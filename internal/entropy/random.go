// Package entropy provides the injected random sources used by every stochastic
// system in the zoo (weather, world events, visitor arrivals).
// Seeded sources make runs reproducible; crypto/rand is the fallback when none is given.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

// Seeded is a deterministic source backed by math/rand.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded creates a reproducible source.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

// Float64 returns the next value in [0, 1).
func (s *Seeded) Float64() float64 {
	return s.rng.Float64()
}

type cryptoSource struct{}

func (cryptoSource) Float64() float64 { return cryptoRandFloat() }

// Crypto returns a non-reproducible source backed by crypto/rand.
func Crypto() Source {
	return cryptoSource{}
}

// OrCrypto returns src, or the crypto source when src is nil.
func OrCrypto(src Source) Source {
	if src == nil {
		return cryptoSource{}
	}
	return src
}

// Sequence replays a fixed list of values, cycling when exhausted.
// Used for replays and for pinning outcomes in tests.
type Sequence struct {
	vals []float64
	pos  int
}

// NewSequence creates a replay source. Values are clamped into [0, 1).
func NewSequence(vals ...float64) *Sequence {
	clamped := make([]float64, len(vals))
	for i, v := range vals {
		switch {
		case v < 0:
			v = 0
		case v >= 1:
			v = 0.999999999
		}
		clamped[i] = v
	}
	return &Sequence{vals: clamped}
}

// Float64 returns the next value in the sequence, or 0 when the sequence is empty.
func (s *Sequence) Float64() float64 {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.pos%len(s.vals)]
	s.pos++
	return v
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Chance runs one Bernoulli trial that succeeds with probability p.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return OrCrypto(src).Float64() < p
}
