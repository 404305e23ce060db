package runtime

import (
	"math/rand"
	"time"
)

// Rand is the random source used by selection and ordering. It is an
// explicit dependency so tests can seed it and assert exact outcomes.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a time-seeded random source.
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewSeededRand returns a deterministic random source for tests.
func NewSeededRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}
