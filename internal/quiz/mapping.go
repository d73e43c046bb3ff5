package quiz

import (
	"fmt"
	"math/rand/v2"
)

// Shuffler produces permutations of [0, n).
type Shuffler interface {
	Perm(n int) []int
}

// DisplayMapping maps displayed option positions to canonical option
// indices for one showing of a question. It never leaves the engine.
type DisplayMapping struct {
	perm [OptionCount]int
}

// newDisplayMapping draws a mapping from s. It panics if s returns anything
// other than a permutation of [0, OptionCount).
func newDisplayMapping(s Shuffler) DisplayMapping {
	p := s.Perm(OptionCount)
	if len(p) != OptionCount {
		panic(fmt.Sprintf("quiz: shuffler returned %d indices, want %d", len(p), OptionCount))
	}
	var m DisplayMapping
	var seen [OptionCount]bool
	for i, c := range p {
		if c < 0 || c >= OptionCount || seen[c] {
			panic(fmt.Sprintf("quiz: shuffler returned non-permutation %v", p))
		}
		seen[c] = true
		m.perm[i] = c
	}
	return m
}

// Canonical resolves a displayed position.
func (m DisplayMapping) Canonical(displayed int) (int, bool) {
	if displayed < 0 || displayed >= OptionCount {
		return 0, false
	}
	return m.perm[displayed], true
}

// apply returns q's options in display order.
func (m DisplayMapping) apply(q Question) []string {
	out := make([]string, OptionCount)
	for i, c := range m.perm {
		out[i] = q.Options[c]
	}
	return out
}

// randShuffler adapts *rand.Rand to Shuffler.
type randShuffler struct {
	r *rand.Rand
}

func (s randShuffler) Perm(n int) []int {
	if s.r == nil {
		return rand.Perm(n)
	}
	return s.r.Perm(n)
}

// identityShuffler never reorders. It backs non-interactive callers such as
// `persona predict` that already hold canonical answers.
type identityShuffler struct{}

func (identityShuffler) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// IdentityShuffler keeps options in canonical order.
var IdentityShuffler Shuffler = identityShuffler{}
