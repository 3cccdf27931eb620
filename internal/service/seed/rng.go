package seed

import "unicode/utf16"

// Rng is a Mulberry32 generator seeded from a string. The same seed and call
// sequence always yields the same draws.
type Rng struct {
	state uint32
}

// NewRng hashes seed into the initial generator state.
func NewRng(seed string) *Rng {
	return &Rng{state: hashSeed(seed)}
}

// Next returns a float in [0, 1).
func (r *Rng) Next() float64 {
	r.state += 0x6d2b79f5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296
}

// Int returns a uniform integer in [min, max].
func (r *Rng) Int(min, max int) int {
	return int(r.Next()*float64(max-min+1)) + min
}

// Pick returns a uniformly chosen element of values.
func Pick[T any](r *Rng, values []T) T {
	return values[r.Int(0, len(values)-1)]
}

func hashSeed(input string) uint32 {
	h := uint32(1779033703)
	for _, unit := range utf16.Encode([]rune(input)) {
		h = (h ^ uint32(unit)) * 3432918353
		h = h<<13 | h>>19
	}
	return h
}
