// Package draw picks random winners from the queue while keeping recent
// winners and boarded viewers out of the pool.
package draw

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrPoolTooSmall is returned when fewer eligible candidates remain than
// were asked for. No partial draw is made.
var ErrPoolTooSmall = errors.New("not enough eligible candidates")

// Candidate is one queue position offered to the draw.
type Candidate struct {
	// Position is the candidate's place in the queue being drawn from.
	Position int
	Name     string
}

// Selector draws without replacement and records winners in its ring.
//
// Used by: queue.Engine (DrawRandom)
type Selector struct {
	ring *Ring
	rng  *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithSource replaces the random source. Tests pass a seeded one.
func WithSource(src rand.Source) Option {
	return func(s *Selector) {
		s.rng = rand.New(src)
	}
}

// NewSelector creates a selector that excludes the names in ring.
func NewSelector(ring *Ring, opts ...Option) *Selector {
	now := uint64(time.Now().UnixNano())
	s := &Selector{
		ring: ring,
		rng:  rand.New(rand.NewPCG(now, now>>1|1)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ring returns the recent-winners ring.
func (s *Selector) Ring() *Ring {
	return s.ring
}

// Select draws k candidates uniformly from pool, skipping names that won
// recently or are in excluded. Winners are pushed onto the ring.
func (s *Selector) Select(pool []Candidate, k int, excluded map[string]bool) ([]Candidate, error) {
	if k <= 0 {
		return nil, nil
	}

	eligible := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if s.ring.Contains(c.Name) || excluded[c.Name] {
			continue
		}
		eligible = append(eligible, c)
	}

	if len(eligible) < k {
		return nil, fmt.Errorf("%w: %d eligible, %d requested", ErrPoolTooSmall, len(eligible), k)
	}

	// Partial Fisher-Yates: the first k slots end up a uniform sample.
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(len(eligible)-i)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	winners := eligible[:k:k]

	for _, w := range winners {
		s.ring.Push(w.Name)
	}
	return winners, nil
}
