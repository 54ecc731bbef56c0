// internal/game/sequence.go
//
// Random sequence generation.
// A Source draws palette indices; NewSource seeds a PCG generator from a seed or,
// when the seed is 0, from crypto/rand.

package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source supplies uniform draws in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSource returns a PCG-backed Source. A zero seed is replaced with one read
// from crypto/rand.
func NewSource(seed uint64) (Source, error) {
	if seed == 0 {
		s, err := newSeed()
		if err != nil {
			return nil, err
		}
		seed = s
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), nil
}

func newSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Generate draws n colors independently and with replacement.
func Generate(src Source, n int) []Color {
	out := make([]Color, n)
	for i := range out {
		out[i] = Palette[src.IntN(len(Palette))]
	}
	return out
}
