package roster

import (
	"cmp"
	"slices"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-auth/internal/constants"
	"github.com/kozaktomas/face-auth/internal/facematch"
)

// AuditPair is two enrolled identities whose references are closer than the match threshold.
// A capture near either of them can be attributed to the earlier one.
type AuditPair struct {
	First    string  `json:"first"`
	Second   string  `json:"second"`
	Distance float64 `json:"distance"`
}

// Audit reports ambiguous identity pairs, sorted by ascending distance.
// Entries are validated like Matcher.Load. Rosters of AuditBruteForceLimit entries
// or more use an HNSW graph for candidate generation; distances are always exact.
func Audit(entries []facematch.ReferenceEntry, threshold float64) ([]AuditPair, error) {
	m, err := facematch.NewMatcher(threshold)
	if err != nil {
		return nil, err
	}
	if err := m.Load(entries); err != nil {
		return nil, err
	}
	entries = m.Entries()

	var pairs []AuditPair
	if len(entries) < constants.AuditBruteForceLimit {
		pairs = auditBruteForce(entries, threshold)
	} else {
		pairs = auditHNSW(entries, threshold, constants.AuditNeighbors)
	}

	slices.SortFunc(pairs, func(a, b AuditPair) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		if c := cmp.Compare(a.First, b.First); c != 0 {
			return c
		}
		return cmp.Compare(a.Second, b.Second)
	})
	return pairs, nil
}

func auditBruteForce(entries []facematch.ReferenceEntry, threshold float64) []AuditPair {
	var pairs []AuditPair
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			d, _ := facematch.EuclideanDistance(entries[i].Embedding, entries[j].Embedding)
			if d < threshold {
				pairs = append(pairs, AuditPair{
					First:    entries[i].Identity,
					Second:   entries[j].Identity,
					Distance: d,
				})
			}
		}
	}
	return pairs
}

func auditHNSW(entries []facematch.ReferenceEntry, threshold float64, neighbors int) []AuditPair {
	g := hnsw.NewGraph[int]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors)
	g.EfSearch = constants.HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance

	for i, e := range entries {
		g.Add(hnsw.MakeNode(i, []float32(e.Embedding)))
	}

	type key struct{ i, j int }
	seen := make(map[key]struct{})
	var pairs []AuditPair

	for i, e := range entries {
		// k+1 because the node itself is usually the first hit
		for _, n := range g.Search([]float32(e.Embedding), neighbors+1) {
			if n.Key == i {
				continue
			}
			k := key{min(i, n.Key), max(i, n.Key)}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}

			d, _ := facematch.EuclideanDistance(entries[k.i].Embedding, entries[k.j].Embedding)
			if d < threshold {
				pairs = append(pairs, AuditPair{
					First:    entries[k.i].Identity,
					Second:   entries[k.j].Identity,
					Distance: d,
				})
			}
		}
	}
	return pairs
}
