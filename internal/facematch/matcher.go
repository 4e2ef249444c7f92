package facematch

import (
	"math"
	"sync"
)

// referenceSet is an immutable snapshot published by Load.
type referenceSet struct {
	entries []ReferenceEntry
	dim     int // 0 while unconstrained (empty roster)
}

// Matcher performs nearest-neighbor identity lookup against a reference set
// using Euclidean distance and a strict less-than threshold.
// It is safe for concurrent use: Load swaps the whole reference set in one step.
type Matcher struct {
	threshold float64

	mu  sync.RWMutex
	set *referenceSet
}

// NewMatcher creates a matcher with an empty reference set.
func NewMatcher(threshold float64) (*Matcher, error) {
	if math.IsNaN(threshold) || threshold < 0 {
		return nil, ErrInvalidThreshold
	}
	return &Matcher{
		threshold: threshold,
		set:       &referenceSet{},
	}, nil
}

// Threshold returns the configured distance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Load validates entries and replaces the current reference set.
// The first entry fixes the dimensionality. On error the previous set stays in service.
func (m *Matcher) Load(entries []ReferenceEntry) error {
	set, err := buildReferenceSet(entries)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.set = set
	m.mu.Unlock()
	return nil
}

func buildReferenceSet(entries []ReferenceEntry) (*referenceSet, error) {
	set := &referenceSet{entries: make([]ReferenceEntry, 0, len(entries))}
	seen := make(map[string]int, len(entries))

	for i, entry := range entries {
		if i == 0 {
			if len(entry.Embedding) == 0 {
				return nil, &DimensionMismatchError{Identity: entry.Identity, Index: i}
			}
			set.dim = len(entry.Embedding)
		} else if len(entry.Embedding) != set.dim {
			return nil, &DimensionMismatchError{Identity: entry.Identity, Index: i, Expected: set.dim, Actual: len(entry.Embedding)}
		}

		if first, ok := seen[entry.Identity]; ok {
			return nil, &DuplicateIdentityError{Identity: entry.Identity, FirstIndex: first, DuplicateIndex: i}
		}
		seen[entry.Identity] = i

		set.entries = append(set.entries, ReferenceEntry{
			Identity:  entry.Identity,
			Embedding: entry.Embedding.Clone(),
		})
	}

	return set, nil
}

func (m *Matcher) snapshot() *referenceSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set
}

// Match returns the closest reference whose distance is strictly below the threshold.
// Ties keep the entry loaded first. An empty reference set always yields NoMatch.
func (m *Matcher) Match(query Embedding) (MatchResult, error) {
	set := m.snapshot()
	if len(set.entries) == 0 {
		return NoMatch, nil
	}
	if len(query) != set.dim {
		return NoMatch, &DimensionMismatchError{Expected: set.dim, Actual: len(query)}
	}

	best := -1
	bestDistance := math.Inf(1)
	for i := range set.entries {
		d := euclidean(query, set.entries[i].Embedding)
		if d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	if best < 0 || !(bestDistance < m.threshold) {
		return NoMatch, nil
	}
	return MatchResult{
		Identity: set.entries[best].Identity,
		Distance: bestDistance,
		Matched:  true,
	}, nil
}

// Len returns the number of loaded references.
func (m *Matcher) Len() int {
	return len(m.snapshot().entries)
}

// Dim returns the established dimensionality, or 0 while the set is empty.
func (m *Matcher) Dim() int {
	return m.snapshot().dim
}

// Identities returns the loaded identity labels in insertion order.
func (m *Matcher) Identities() []string {
	set := m.snapshot()
	ids := make([]string, len(set.entries))
	for i := range set.entries {
		ids[i] = set.entries[i].Identity
	}
	return ids
}

// Entries returns a copy of the loaded reference set.
func (m *Matcher) Entries() []ReferenceEntry {
	set := m.snapshot()
	out := make([]ReferenceEntry, len(set.entries))
	for i, e := range set.entries {
		out[i] = ReferenceEntry{Identity: e.Identity, Embedding: e.Embedding.Clone()}
	}
	return out
}
