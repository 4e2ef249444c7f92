package database

import (
	"time"

	"github.com/kozaktomas/face-auth/internal/facematch"
)

// StoredReference represents an enrolled reference embedding stored in the database
type StoredReference struct {
	ID        int64
	Identity  string
	Embedding []float32
	Model     string
	Dim       int
	CreatedAt time.Time
}

// Entry converts the stored row into a matcher reference entry.
func (r StoredReference) Entry() facematch.ReferenceEntry {
	return facematch.ReferenceEntry{
		Identity:  r.Identity,
		Embedding: facematch.Embedding(r.Embedding),
	}
}

// ReferenceEntries converts stored rows to matcher entries, preserving order.
func ReferenceEntries(refs []StoredReference) []facematch.ReferenceEntry {
	entries := make([]facematch.ReferenceEntry, 0, len(refs))
	for _, r := range refs {
		entries = append(entries, r.Entry())
	}
	return entries
}

// Attempt outcomes
const (
	OutcomeAccepted = "accepted" // identity matched within the threshold
	OutcomeRejected = "rejected" // embedding computed but no reference matched
	OutcomeNoFace   = "no_face"  // no usable face in the frame
	OutcomeInvalid  = "invalid"  // more than one face or a malformed query
	OutcomeError    = "error"    // embedder or infrastructure failure
)

// AuthAttempt is one recorded authentication attempt
type AuthAttempt struct {
	ID         string
	Identity   string  // empty unless accepted
	Distance   float64 // distance to the best reference, 0 when no embedding was produced
	Outcome    string
	RemoteAddr string
	CreatedAt  time.Time
}
