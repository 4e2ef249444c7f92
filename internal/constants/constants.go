// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face matching constants
const (
	// DefaultDistanceThreshold is the maximum Euclidean distance (exclusive) for
	// a query to be accepted as a known identity. Lower values = stricter matching.
	DefaultDistanceThreshold = 0.6

	// DefaultMinDetScore is the minimum detector confidence for a face to be considered
	DefaultMinDetScore = 0.5

	// DuplicateDetectionIoU is the overlap above which two detections are treated
	// as the same face and only the higher-scored one is kept
	DuplicateDetectionIoU = 0.5
)

// Embedding backend constants
const (
	// DefaultEmbeddingURL is the default address of the embedding server
	DefaultEmbeddingURL = "http://localhost:8000"

	// DefaultEmbeddingDim is the descriptor size of the default face model (buffalo_l / ArcFace)
	DefaultEmbeddingDim = 512

	// DlibEmbeddingDim is the descriptor size produced by the dlib ResNet model
	DlibEmbeddingDim = 128

	// EmbeddingRequestTimeout bounds a single call to the embedding server
	EmbeddingRequestTimeout = 30 * time.Second
)

// Processing constants
const (
	// WorkerPoolSize is the default number of parallel workers for enrollment
	WorkerPoolSize = 4

	// MaxImageSize is the maximum dimension (width or height) for image processing
	MaxImageSize = 1920

	// MaxUploadSize is the maximum accepted size of a captured frame upload
	MaxUploadSize = 10 << 20
)

// Roster audit constants
const (
	// AuditBruteForceLimit is the roster size below which the audit compares every pair
	AuditBruteForceLimit = 256

	// AuditNeighbors is the number of HNSW neighbors inspected per reference
	AuditNeighbors = 8
)

// HNSW index parameters for the roster audit graph
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100
)

// Session constants
const (
	// SessionDuration is how long an authenticated session stays valid
	SessionDuration = 24 * time.Hour

	// SessionCleanupInterval is how often expired sessions are purged
	SessionCleanupInterval = 15 * time.Minute
)
