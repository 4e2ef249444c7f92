// Package embedder turns captured face images into embeddings.
// The matcher never calls into this package; callers embed first and match second.
package embedder

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/kozaktomas/face-auth/internal/constants"
	"github.com/kozaktomas/face-auth/internal/facematch"
)

var (
	// ErrNoFace is returned when the image contains no usable face.
	ErrNoFace = errors.New("no face detected")

	// ErrMultipleFaces is returned under the single-face policy when more than one face is visible.
	ErrMultipleFaces = errors.New("multiple faces detected")

	// ErrDlibUnavailable is returned when the binary was built without the dlib tag.
	ErrDlibUnavailable = errors.New("dlib backend not compiled in (build with -tags dlib)")
)

// FaceEmbedder produces a single face embedding from an encoded image.
type FaceEmbedder interface {
	EmbedFace(ctx context.Context, imageData []byte) (facematch.Embedding, error)
}

// Face is one detection reported by a backend.
type Face struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	DetScore  float64   `json:"det_score"`
}

// Policy decides which detected face is used for matching.
type Policy string

const (
	PolicySingle  Policy = "single"
	PolicyLargest Policy = "largest"
)

// Selector filters detections and applies the face policy.
type Selector struct {
	Policy      Policy
	MinDetScore float64
}

// Select returns the face to embed. Detections below MinDetScore are dropped,
// overlapping duplicates collapse into the higher-scored one, then the policy applies.
func (s Selector) Select(faces []Face) (Face, error) {
	candidates := make([]Face, 0, len(faces))
	for _, f := range faces {
		if f.DetScore < s.MinDetScore || len(f.Embedding) == 0 {
			continue
		}
		candidates = append(candidates, f)
	}
	candidates = dedupeDetections(candidates)

	switch len(candidates) {
	case 0:
		return Face{}, ErrNoFace
	case 1:
		return candidates[0], nil
	}

	if s.Policy != PolicyLargest {
		return Face{}, ErrMultipleFaces
	}

	// Largest box first, then higher score, then lower index.
	slices.SortStableFunc(candidates, func(a, b Face) int {
		if c := cmp.Compare(facematch.BBoxArea(b.BBox), facematch.BBoxArea(a.BBox)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.DetScore, a.DetScore); c != 0 {
			return c
		}
		return cmp.Compare(a.FaceIndex, b.FaceIndex)
	})
	return candidates[0], nil
}

// dedupeDetections drops faces that overlap a higher-scored face above DuplicateDetectionIoU.
func dedupeDetections(faces []Face) []Face {
	if len(faces) < 2 {
		return faces
	}
	sorted := slices.Clone(faces)
	slices.SortStableFunc(sorted, func(a, b Face) int {
		return cmp.Compare(b.DetScore, a.DetScore)
	})

	kept := make([]Face, 0, len(sorted))
	for _, f := range sorted {
		duplicate := false
		for _, k := range kept {
			if facematch.ComputeIoU(f.BBox, k.BBox) > constants.DuplicateDetectionIoU {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, f)
		}
	}
	return kept
}
