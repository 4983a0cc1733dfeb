package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yllan/newshelper-safari/internal/domain"
)

// Checker is the slice of the matcher the API needs.
type Checker interface {
	CheckOnView(ctx context.Context, link, title string) (*domain.Report, error)
	HasLiveReport(ctx context.Context, link string) (*domain.Report, error)
}

type Handler struct {
	checker Checker
	logger  *slog.Logger
}

func NewHandler(checker Checker, logger *slog.Logger) *Handler {
	return &Handler{checker: checker, logger: logger.With("component", "web")}
}

func (h *Handler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/view", h.handleView)
	mux.HandleFunc("/report", h.handleReport)
	mux.HandleFunc("/healthz", h.handleHealthz)
}

type viewRequest struct {
	Link  string `json:"link"`
	Title string `json:"title"`
}

type viewResponse struct {
	Report *domain.Report `json:"report"`
}

// handleView records that the user viewed an article and returns the
// live report for it, if one is already stored.
func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := h.checker.CheckOnView(r.Context(), req.Link, req.Title)
	if errors.Is(err, domain.ErrInvalidLink) {
		writeError(w, http.StatusBadRequest, "missing or invalid link")
		return
	}
	if err != nil {
		h.logger.Error("check on view failed", "link", req.Link, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, viewResponse{Report: report})
}

// handleReport is the synchronous lookup used to render an inline
// annotation without going through the async match path.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	link := r.URL.Query().Get("link")

	report, err := h.checker.HasLiveReport(r.Context(), link)
	if errors.Is(err, domain.ErrInvalidLink) {
		writeError(w, http.StatusBadRequest, "missing or invalid link")
		return
	}
	if err != nil {
		h.logger.Error("report lookup failed", "link", link, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "no report for link")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
