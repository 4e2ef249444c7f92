//go:build !dlib

package embedder

import (
	"context"

	"github.com/kozaktomas/face-auth/internal/facematch"
)

// DlibAvailable reports whether the binary was built with the dlib backend.
const DlibAvailable = false

// DlibEmbedder is unavailable in builds without the dlib tag.
type DlibEmbedder struct{}

// NewDlibEmbedder always fails in builds without the dlib tag.
func NewDlibEmbedder(string, Selector) (*DlibEmbedder, error) {
	return nil, ErrDlibUnavailable
}

func (d *DlibEmbedder) EmbedFace(context.Context, []byte) (facematch.Embedding, error) {
	return nil, ErrDlibUnavailable
}

func (d *DlibEmbedder) Close() error { return nil }
