package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-auth/internal/constants"
)

// Embedding backends
const (
	BackendHTTP = "http"
	BackendDlib = "dlib"
)

// Face selection policies applied when a frame contains several faces
const (
	FacePolicySingle  = "single"  // reject frames with more than one face
	FacePolicyLargest = "largest" // use the largest face in the frame
)

// Roster sources
const (
	RosterSourceFile     = "file"
	RosterSourcePostgres = "postgres"
	RosterSourceMariaDB  = "mariadb"
)

type Config struct {
	Match     MatchConfig
	Embedding EmbeddingConfig
	Roster    RosterConfig
	Database  DatabaseConfig
	MariaDB   MariaDBConfig
	Web       WebConfig
	Log       LogConfig
}

type MatchConfig struct {
	Threshold float64 // defaults to 0.6
}

type EmbeddingConfig struct {
	Backend     string  // http or dlib, defaults to http
	URL         string  // embedding server, defaults to http://localhost:8000
	ModelsDir   string  // dlib model files (shape predictor + ResNet), used by the dlib backend
	MinDetScore float64 // faces below this detector score are ignored
	FacePolicy  string  // single or largest
	Dim         int     // expected descriptor size, 0 disables the check
}

type RosterConfig struct {
	Source string // file, postgres or mariadb
	File   string // YAML roster path for the file source
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MariaDBConfig struct {
	DSN          string // e.g. faceauth:faceauth@tcp(mariadb:3306)/faceauth
	Table        string // table holding identity + descriptor blob, defaults to face_references
	MaxOpenConns int    // default 5
	MaxIdleConns int    // default 2
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins string // comma-separated CORS whitelist
}

type LogConfig struct {
	Level string // debug, info, warn, error
	JSON  bool
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or not a finite number.
// Range checks are left to Validate so that bad values are reported, not hidden.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return defaultVal
	}
	return f
}

// envBool reads an environment variable as a boolean ("1", "true", "yes").
func envBool(key string, defaultVal bool) bool {
	s := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch s {
	case "":
		return defaultVal
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Match: MatchConfig{
			Threshold: envFloat("FACE_MATCH_THRESHOLD", constants.DefaultDistanceThreshold),
		},
		Embedding: EmbeddingConfig{
			Backend:     strings.ToLower(envString("EMBEDDING_BACKEND", BackendHTTP)),
			URL:         envString("EMBEDDING_URL", constants.DefaultEmbeddingURL),
			ModelsDir:   os.Getenv("EMBEDDING_MODELS_DIR"),
			MinDetScore: envFloat("EMBEDDING_MIN_DET_SCORE", constants.DefaultMinDetScore),
			FacePolicy:  strings.ToLower(envString("EMBEDDING_FACE_POLICY", FacePolicySingle)),
			Dim:         envInt("EMBEDDING_DIM", 0),
		},
		Roster: RosterConfig{
			Source: strings.ToLower(envString("ROSTER_SOURCE", RosterSourceFile)),
			File:   envString("ROSTER_FILE", "roster.yaml"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		MariaDB: MariaDBConfig{
			DSN:          os.Getenv("MARIADB_DSN"),
			Table:        envString("MARIADB_TABLE", "face_references"),
			MaxOpenConns: envInt("MARIADB_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("MARIADB_MAX_IDLE_CONNS", 2),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: os.Getenv("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level: strings.ToLower(envString("LOG_LEVEL", "info")),
			JSON:  envBool("LOG_JSON", false),
		},
	}
}

// Validate reports configuration values that would make the service misbehave.
func (c *Config) Validate() error {
	var errs []error

	if c.Match.Threshold < 0 {
		errs = append(errs, fmt.Errorf("FACE_MATCH_THRESHOLD must be non-negative, got %v", c.Match.Threshold))
	}

	switch c.Embedding.Backend {
	case BackendHTTP:
		if c.Embedding.URL == "" {
			errs = append(errs, errors.New("EMBEDDING_URL is required for the http backend"))
		}
	case BackendDlib:
		if c.Embedding.ModelsDir == "" {
			errs = append(errs, errors.New("EMBEDDING_MODELS_DIR is required for the dlib backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_BACKEND %q", c.Embedding.Backend))
	}

	switch c.Embedding.FacePolicy {
	case FacePolicySingle, FacePolicyLargest:
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_FACE_POLICY %q", c.Embedding.FacePolicy))
	}

	if c.Embedding.MinDetScore < 0 || c.Embedding.MinDetScore > 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_MIN_DET_SCORE must be within [0, 1], got %v", c.Embedding.MinDetScore))
	}

	switch c.Roster.Source {
	case RosterSourceFile:
		if c.Roster.File == "" {
			errs = append(errs, errors.New("ROSTER_FILE is required for the file roster source"))
		}
	case RosterSourcePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres roster source"))
		}
	case RosterSourceMariaDB:
		if c.MariaDB.DSN == "" {
			errs = append(errs, errors.New("MARIADB_DSN is required for the mariadb roster source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ROSTER_SOURCE %q", c.Roster.Source))
	}

	return errors.Join(errs...)
}

// ParsedAllowedOrigins splits the CORS whitelist into a set.
func (c *WebConfig) ParsedAllowedOrigins() map[string]struct{} {
	origins := make(map[string]struct{})
	for o := range strings.SplitSeq(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins[o] = struct{}{}
		}
	}
	return origins
}
