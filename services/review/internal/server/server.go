package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"edureview/internal/util"
	"edureview/pkg/domain"
	"edureview/pkg/storage"
	"edureview/services/review/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes HTTP endpoints for the review service.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/review", s.handleReview)
	s.mux.HandleFunc("/review/", s.handleReviewCategory)
	s.mux.HandleFunc("/reviews/", s.handleReviewByID)
	s.mux.HandleFunc("/agents", s.handleAgents)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type reviewRequest struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	Category   string `json:"category"`
	Discipline string `json:"discipline"`

	// Data carries base64-encoded raw bytes for binary formats (pdf).
	Data string `json:"data"`
}

// handleReview dispatches a review; the category defaults to full and can
// be overridden with the review_type query parameter.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	category := domain.ReviewFull
	if raw := r.URL.Query().Get("review_type"); raw != "" {
		parsed, ok := domain.ParseReviewCategory(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid review_type")
			return
		}
		category = parsed
	}
	s.dispatch(w, r, category)
}

// handleReviewCategory dispatches a single-category review named by path.
func (s *Server) handleReviewCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/review/")
	if raw == "" || strings.Contains(raw, "/") {
		http.NotFound(w, r)
		return
	}
	category, ok := domain.ParseReviewCategory(raw)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown review category")
		return
	}
	s.dispatch(w, r, category)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, category domain.ReviewCategory) {
	var req reviewRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 8<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	contentCategory := domain.ContentText
	if req.Category != "" {
		contentCategory = domain.ContentCategory(strings.ToLower(strings.TrimSpace(req.Category)))
	}
	var raw []byte
	if req.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid base64 data")
			return
		}
		raw = decoded
	}
	content := domain.Content{
		ID:         util.NewID(),
		Title:      req.Title,
		Text:       req.Text,
		Category:   contentCategory,
		Discipline: req.Discipline,
		CreatedAt:  time.Now().UTC(),
	}
	prepared, err := app.PrepareContent(content, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcome, err := s.app.Dispatch(r.Context(), prepared, category)
	if err != nil {
		if errors.Is(err, app.ErrUnknownCategory) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		util.LoggerFromContext(r.Context()).Error("dispatch failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleReviewByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, sub, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/reviews/"), "/")
	if id == "" || (sub != "" && sub != "snapshot") {
		http.NotFound(w, r)
		return
	}
	if sub == "snapshot" {
		s.handleSnapshotURL(w, r, id)
		return
	}
	outcome, err := s.app.GetOutcome(id)
	if err != nil {
		if errors.Is(err, app.ErrOutcomeNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		util.LoggerFromContext(r.Context()).Error("fetch outcome failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// handleSnapshotURL serves a short-lived download link for the archived
// copy of a review.
func (s *Server) handleSnapshotURL(w http.ResponseWriter, r *http.Request, id string) {
	url, err := s.app.SnapshotURL(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrOutcomeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, storage.ErrNoSnapshot):
			writeError(w, http.StatusNotFound, "snapshot not available")
		default:
			util.LoggerFromContext(r.Context()).Error("snapshot link failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": s.app.Checkers(),
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
