package trigger

import "math/rand"

// Rand is the random source behind every probability-driven trigger. It is
// injected so trigger behavior is exactly reproducible in tests.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// NewSeeded returns a deterministic Rand for the given seed.
func NewSeeded(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// fixedRand always yields the same value; tests use it to force or suppress
// probability rolls.
type fixedRand struct {
	value float64
}

// NewFixed returns a Rand whose Float64 always yields value. Intn always
// returns 0.
func NewFixed(value float64) Rand {
	return &fixedRand{value: value}
}

func (f *fixedRand) Float64() float64 { return f.value }
func (f *fixedRand) Intn(_ int) int   { return 0 }
