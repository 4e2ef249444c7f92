package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-auth/internal/facematch"
)

func newFaceServer(t *testing.T, faces []Face) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/embed/face", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected multipart file field: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("expected part content type image/jpeg, got %q", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FaceResponse{FacesCount: len(faces), Faces: faces, Model: "buffalo_l"})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testJPEG() []byte {
	return encodeJPEG(createTestImage(32, 32, color.White))
}

func TestClient_EmbedFace(t *testing.T) {
	srv := newFaceServer(t, []Face{
		{FaceIndex: 0, Dim: 3, Embedding: []float32{0.1, 0.2, 0.3}, BBox: []float64{0, 0, 10, 10}, DetScore: 0.95},
	})
	client := NewClient(srv.URL, WithExpectedDim(3))

	emb, err := client.EmbedFace(context.Background(), testJPEG())
	if err != nil {
		t.Fatalf("EmbedFace failed: %v", err)
	}
	if emb.Dim() != 3 || emb[2] != 0.3 {
		t.Errorf("unexpected embedding %v", emb)
	}
}

func TestClient_EmbedFace_NoFace(t *testing.T) {
	srv := newFaceServer(t, nil)
	client := NewClient(srv.URL)

	_, err := client.EmbedFace(context.Background(), testJPEG())
	if !errors.Is(err, ErrNoFace) {
		t.Fatalf("expected ErrNoFace, got %v", err)
	}
}

func TestClient_EmbedFace_MultipleFaces(t *testing.T) {
	faces := []Face{
		{FaceIndex: 0, Embedding: []float32{1, 0}, BBox: []float64{0, 0, 10, 10}, DetScore: 0.9},
		{FaceIndex: 1, Embedding: []float32{0, 1}, BBox: []float64{100, 100, 150, 150}, DetScore: 0.9},
	}
	srv := newFaceServer(t, faces)

	_, err := NewClient(srv.URL).EmbedFace(context.Background(), testJPEG())
	if !errors.Is(err, ErrMultipleFaces) {
		t.Fatalf("expected ErrMultipleFaces, got %v", err)
	}

	largest := NewClient(srv.URL, WithSelector(Selector{Policy: PolicyLargest}))
	emb, err := largest.EmbedFace(context.Background(), testJPEG())
	if err != nil {
		t.Fatalf("EmbedFace with largest policy failed: %v", err)
	}
	if emb[1] != 1 {
		t.Errorf("expected the larger face to be chosen, got %v", emb)
	}
}

func TestClient_EmbedFace_DimensionCheck(t *testing.T) {
	srv := newFaceServer(t, []Face{
		{FaceIndex: 0, Embedding: []float32{0.1, 0.2}, BBox: []float64{0, 0, 10, 10}, DetScore: 0.9},
	})

	_, err := NewClient(srv.URL, WithExpectedDim(512)).EmbedFace(context.Background(), testJPEG())
	if !errors.Is(err, facematch.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.EmbedFace(context.Background(), testJPEG()); err == nil {
		t.Error("expected error for server failure")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail for unhealthy server")
	}
}

func TestClient_Ping(t *testing.T) {
	srv := newFaceServer(t, nil)
	if err := NewClient(srv.URL + "/").Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestFaceEmbedderImplementations(t *testing.T) {
	var _ FaceEmbedder = (*Client)(nil)
	var _ FaceEmbedder = (*DlibEmbedder)(nil)
}
