//go:build dlib

package embedder

import (
	"context"
	"fmt"
	"sync"

	"github.com/Kagami/go-face"

	"github.com/kozaktomas/face-auth/internal/facematch"
)

// DlibAvailable reports whether the binary was built with the dlib backend.
const DlibAvailable = true

// DlibEmbedder computes 128-dimensional dlib descriptors in-process.
// The recognizer is not safe for concurrent use, so calls are serialized.
type DlibEmbedder struct {
	mu         sync.Mutex
	recognizer *face.Recognizer
	selector   Selector
}

// NewDlibEmbedder loads the dlib models from modelsDir.
func NewDlibEmbedder(modelsDir string, selector Selector) (*DlibEmbedder, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dlib models from %s: %w", modelsDir, err)
	}
	return &DlibEmbedder{recognizer: rec, selector: selector}, nil
}

// EmbedFace decodes a JPEG and returns the descriptor of the selected face.
func (d *DlibEmbedder) EmbedFace(ctx context.Context, imageData []byte) (facematch.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	found, err := d.recognizer.Recognize(imageData)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib recognition failed: %w", err)
	}

	faces := make([]Face, 0, len(found))
	for i, f := range found {
		desc := [128]float32(f.Descriptor)
		faces = append(faces, Face{
			FaceIndex: i,
			Dim:       len(desc),
			Embedding: desc[:],
			BBox: []float64{
				float64(f.Rectangle.Min.X), float64(f.Rectangle.Min.Y),
				float64(f.Rectangle.Max.X), float64(f.Rectangle.Max.Y),
			},
			// dlib does not report a detection confidence
			DetScore: 1,
		})
	}

	selected, err := d.selector.Select(faces)
	if err != nil {
		return nil, err
	}
	return facematch.Embedding(selected.Embedding), nil
}

// Close releases the native recognizer.
func (d *DlibEmbedder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recognizer.Close()
	return nil
}
