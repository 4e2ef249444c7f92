package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/logger"
	"github.com/kozaktomas/face-auth/internal/roster"
	"github.com/kozaktomas/face-auth/internal/web/middleware"
)

// fakeEmbedder returns a fixed embedding or error
type fakeEmbedder struct {
	emb facematch.Embedding
	err error
}

func (f *fakeEmbedder) EmbedFace(ctx context.Context, image []byte) (facematch.Embedding, error) {
	return f.emb, f.err
}

// testRoster is the two-identity roster used across handler tests
func testRoster() roster.StaticSource {
	return roster.StaticSource{
		{Identity: "alice", Embedding: facematch.Embedding{0, 0}},
		{Identity: "bob", Embedding: facematch.Embedding{10, 10}},
	}
}

// loadedMatcher creates a matcher with the test roster loaded
func loadedMatcher(t *testing.T) *facematch.Matcher {
	t.Helper()
	m, err := facematch.NewMatcher(0.6)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}
	if err := m.Load(testRoster()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return m
}

// testSessionManager creates an in-memory session manager
func testSessionManager() *middleware.SessionManager {
	return middleware.NewSessionManager("test-secret", nil, logger.Nop())
}

// multipartImageRequest builds a POST with the image under field
func multipartImageRequest(t *testing.T, path, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, "capture.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
