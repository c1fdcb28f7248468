package stats

import (
	"math/rand"
	"time"
)

// Source is the random number source every roll draws from.
// *rand.Rand satisfies it, so tests can pass a seeded generator.
type Source interface {
	// Intn returns a uniform int in [0, n). It panics if n <= 0.
	Intn(n int) int
}

// NewSource returns a seeded generator. A zero seed picks one from the clock.
func NewSource(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// RollRange returns a uniform integer in [min, max] inclusive.
// Reversed bounds are swapped rather than rejected.
func RollRange(src Source, min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + src.Intn(max-min+1)
}

// Chance returns true with the given percent probability (0-100)
func Chance(src Source, percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return src.Intn(100) < percent
}

// Pick returns a uniform index in [0, n), or -1 when n is not positive.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}
