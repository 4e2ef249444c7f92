package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kozaktomas/face-auth/internal/auth"
	"github.com/kozaktomas/face-auth/internal/constants"
	"github.com/kozaktomas/face-auth/internal/facematch"
	"github.com/kozaktomas/face-auth/internal/web/middleware"
)

// AuthHandler handles face authentication endpoints
type AuthHandler struct {
	service        *auth.Service
	sessionManager *middleware.SessionManager
	logger         *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service, sm *middleware.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:        service,
		sessionManager: sm,
		logger:         logger,
	}
}

// LoginResponse represents a successful face login
type LoginResponse struct {
	Identity  string  `json:"identity"`
	Distance  float64 `json:"distance"`
	SessionID string  `json:"session_id,omitempty"`
	ExpiresAt string  `json:"expires_at,omitempty"`
}

type embeddingRequest struct {
	Embedding facematch.Embedding `json:"embedding"`
}

// Face authenticates a multipart upload with an "image" field
func (h *AuthHandler) Face(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	ctx := auth.ContextWithRemoteAddr(r.Context(), r.RemoteAddr)
	res, err := h.service.Authenticate(ctx, data)
	h.respond(w, r, res, err)
}

// Embedding authenticates a descriptor computed on the client
func (h *AuthHandler) Embedding(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, constants.MaxUploadSize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	ctx := auth.ContextWithRemoteAddr(r.Context(), r.RemoteAddr)
	res, err := h.service.AuthenticateEmbedding(ctx, req.Embedding)
	h.respond(w, r, res, err)
}

func (h *AuthHandler) respond(w http.ResponseWriter, r *http.Request, res *auth.Result, err error) {
	if err != nil {
		status, message := statusForError(err)
		if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
			h.logger.Error("authentication error", "path", r.URL.Path, "error", sanitizeForLog(err.Error()))
		}
		respondError(w, status, message)
		return
	}

	resp := LoginResponse{Identity: res.Identity, Distance: res.Distance}
	if res.Session != nil {
		h.sessionManager.SetSessionCookie(w, res.Session)
		resp.SessionID = res.Session.ID
		resp.ExpiresAt = res.Session.ExpiresAt.Format(time.RFC3339)
	}
	respondJSON(w, http.StatusOK, resp)
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessionManager.GetSessionFromRequest(r); session != nil {
		h.sessionManager.DeleteSession(r.Context(), session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status reports the identity bound to the current session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Identity:      session.Identity,
		ExpiresAt:     session.ExpiresAt.Format(time.RFC3339),
	})
}
