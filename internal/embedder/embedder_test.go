package embedder

import (
	"errors"
	"testing"
)

func newFace(index int, score float64, bbox ...float64) Face {
	return Face{
		FaceIndex: index,
		Dim:       2,
		Embedding: []float32{float32(index), 1},
		BBox:      bbox,
		DetScore:  score,
	}
}

func TestSelector_Select(t *testing.T) {
	tests := []struct {
		name      string
		selector  Selector
		faces     []Face
		wantIndex int
		wantErr   error
	}{
		{
			name:     "no faces",
			selector: Selector{Policy: PolicySingle},
			wantErr:  ErrNoFace,
		},
		{
			name:      "single face",
			selector:  Selector{Policy: PolicySingle, MinDetScore: 0.5},
			faces:     []Face{newFace(0, 0.9, 0, 0, 10, 10)},
			wantIndex: 0,
		},
		{
			name:     "all below score floor",
			selector: Selector{Policy: PolicySingle, MinDetScore: 0.5},
			faces:    []Face{newFace(0, 0.3, 0, 0, 10, 10), newFace(1, 0.1, 50, 50, 60, 60)},
			wantErr:  ErrNoFace,
		},
		{
			name:      "low score face ignored",
			selector:  Selector{Policy: PolicySingle, MinDetScore: 0.5},
			faces:     []Face{newFace(0, 0.3, 0, 0, 10, 10), newFace(1, 0.8, 50, 50, 60, 60)},
			wantIndex: 1,
		},
		{
			name:     "two faces under single policy",
			selector: Selector{Policy: PolicySingle},
			faces:    []Face{newFace(0, 0.9, 0, 0, 10, 10), newFace(1, 0.9, 50, 50, 60, 60)},
			wantErr:  ErrMultipleFaces,
		},
		{
			name:      "two faces under largest policy",
			selector:  Selector{Policy: PolicyLargest},
			faces:     []Face{newFace(0, 0.9, 0, 0, 10, 10), newFace(1, 0.7, 50, 50, 100, 100)},
			wantIndex: 1,
		},
		{
			name:      "largest policy equal area prefers score",
			selector:  Selector{Policy: PolicyLargest},
			faces:     []Face{newFace(0, 0.7, 0, 0, 10, 10), newFace(1, 0.9, 50, 50, 60, 60)},
			wantIndex: 1,
		},
		{
			name:      "overlapping detections collapse",
			selector:  Selector{Policy: PolicySingle},
			faces:     []Face{newFace(0, 0.6, 0, 0, 100, 100), newFace(1, 0.9, 2, 2, 100, 100)},
			wantIndex: 1,
		},
		{
			name:     "empty embedding ignored",
			selector: Selector{Policy: PolicySingle},
			faces:    []Face{{FaceIndex: 0, DetScore: 0.9, BBox: []float64{0, 0, 10, 10}}},
			wantErr:  ErrNoFace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.selector.Select(tt.faces)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.FaceIndex != tt.wantIndex {
				t.Errorf("selected face %d, want %d", got.FaceIndex, tt.wantIndex)
			}
		})
	}
}
