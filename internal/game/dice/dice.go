// Package dice provides the randomness abstraction shared by battle
// resolution, monster generation and the art client.
package dice

import "fmt"

// Source is the randomness provider for every random draw in the game.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// Chance reports whether a uniform draw falls below p.
//
// Postcondition: Returns true with probability p for p in [0, 1].
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Uniform returns a value drawn uniformly from [lo, hi).
//
// Precondition: lo <= hi.
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// IntRange returns an int drawn uniformly from [lo, hi].
//
// Precondition: lo <= hi.
// Postcondition: lo <= result <= hi.
func IntRange(src Source, lo, hi int) int {
	if hi < lo {
		panic(fmt.Sprintf("dice: IntRange called with hi %d < lo %d", hi, lo))
	}
	return lo + src.Intn(hi-lo+1)
}

// WeightedIndex returns an index chosen with probability proportional to its weight.
//
// Precondition: weights is non-empty and every weight is >= 0 with a positive sum.
// Postcondition: 0 <= result < len(weights); zero-weight indexes are never returned.
func WeightedIndex(src Source, weights []int) int {
	total := 0
	for _, w := range weights {
		if w < 0 {
			panic("dice: WeightedIndex called with a negative weight")
		}
		total += w
	}
	if total <= 0 {
		panic("dice: WeightedIndex called with no positive weight")
	}
	roll := src.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Pick returns k distinct indexes from [0, n) in draw order.
//
// Precondition: 0 <= k <= n.
// Postcondition: len(result) == k and no index repeats.
func Pick(src Source, n, k int) []int {
	if k < 0 || k > n {
		panic(fmt.Sprintf("dice: Pick called with k %d outside [0, %d]", k, n))
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	out := make([]int, 0, k)
	for i := 0; i < k; i++ {
		j := i + src.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
		out = append(out, pool[i])
	}
	return out
}
