package engine

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// SeedRand builds a deterministic rand source from a seed string. FNV-1a is
// fixed here for cross-platform reproducibility of generated content.
func SeedRand(seed string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// ChildSeed derives the seed of the i-th endurance leg.
func ChildSeed(parent string, i int) string {
	return parent + "-" + strconv.Itoa(i)
}
