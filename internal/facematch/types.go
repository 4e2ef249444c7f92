package facematch

// Embedding is a fixed-length face descriptor produced by an embedding provider.
type Embedding []float32

// Dim returns the dimensionality of the embedding.
func (e Embedding) Dim() int {
	return len(e)
}

// Clone returns a copy that does not share the backing array.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// ReferenceEntry pairs a known identity with its reference embedding.
type ReferenceEntry struct {
	Identity  string    `json:"identity" yaml:"identity"`
	Embedding Embedding `json:"embedding" yaml:"embedding,flow"`
}

// MatchResult is the outcome of a single lookup.
// Matched is false for the "no match" outcome, in which case Identity is empty.
type MatchResult struct {
	Identity string  `json:"identity,omitempty"`
	Distance float64 `json:"distance"`
	Matched  bool    `json:"matched"`
}

// NoMatch is returned when no reference lies within the threshold.
var NoMatch = MatchResult{}
