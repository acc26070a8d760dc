package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"librarycore/internal/adapters/archive"
	"librarycore/internal/core"
	"librarycore/pkg/domain"
)

// Handler provides HTTP access to the user, book and loan records.
type Handler struct {
	Service  *core.Service
	Archiver *archive.Archiver
	Logger   zerolog.Logger
}

// NewHandler constructs a record HTTP handler.
func NewHandler(svc *core.Service) *Handler {
	return &Handler{Service: svc, Logger: zerolog.Nop()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "record service not configured")
		return
	}

	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.route(rec, r)
	h.Logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("duration", time.Since(start)).
		Msg("request")
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/users" || strings.HasPrefix(path, "/api/v1/users/"):
		h.handleUsers(w, r, strings.TrimPrefix(path, "/api/v1/users"))
	case path == "/api/v1/books" || strings.HasPrefix(path, "/api/v1/books/"):
		h.handleBooks(w, r, strings.TrimPrefix(path, "/api/v1/books"))
	case path == "/api/v1/loans" || strings.HasPrefix(path, "/api/v1/loans/"):
		h.handleLoans(w, r, strings.TrimPrefix(path, "/api/v1/loans"))
	case path == "/api/v1/admin/archive":
		h.handleArchive(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request, remainder string) {
	ctx := r.Context()

	if remainder == "" {
		switch r.Method {
		case http.MethodGet:
			users, err := h.Service.ListUsers(ctx)
			if err != nil {
				h.writeServiceError(w, err)
				return
			}
			payloads := make([]userPayload, 0, len(users))
			for _, u := range users {
				payloads = append(payloads, userToPayload(u))
			}
			writeJSON(w, http.StatusOK, payloads)
		case http.MethodPost:
			var req userRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid user payload")
				return
			}
			created, err := h.Service.CreateUser(ctx, userFromRequest(req))
			if err != nil {
				h.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, userToPayload(created))
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	id, ok := parseID(w, remainder)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.Service.GetUser(ctx, id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userToPayload(user))
	case http.MethodPut:
		var req userRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid user payload")
			return
		}
		updated, err := h.Service.UpdateUser(ctx, id, userFromRequest(req))
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userToPayload(updated))
	case http.MethodPatch:
		var req userPatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid user payload")
			return
		}
		updated, err := h.Service.PatchUser(ctx, id, userPatchFromRequest(req))
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userToPayload(updated))
	case http.MethodDelete:
		if err := h.Service.DeleteUser(ctx, id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleBooks(w http.ResponseWriter, r *http.Request, remainder string) {
	ctx := r.Context()

	if remainder == "" {
		switch r.Method {
		case http.MethodGet:
			books, err := h.Service.ListBooks(ctx)
			if err != nil {
				h.writeServiceError(w, err)
				return
			}
			payloads := make([]bookPayload, 0, len(books))
			for _, b := range books {
				payloads = append(payloads, bookToPayload(b))
			}
			writeJSON(w, http.StatusOK, payloads)
		case http.MethodPost:
			var req bookRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid book payload")
				return
			}
			created, err := h.Service.CreateBook(ctx, bookFromRequest(req))
			if err != nil {
				h.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, bookToPayload(created))
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	id, ok := parseID(w, remainder)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		book, err := h.Service.GetBook(ctx, id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookToPayload(book))
	case http.MethodPut:
		var req bookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid book payload")
			return
		}
		updated, err := h.Service.UpdateBook(ctx, id, bookFromRequest(req))
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookToPayload(updated))
	case http.MethodPatch:
		var req bookPatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid book payload")
			return
		}
		updated, err := h.Service.PatchBook(ctx, id, bookPatchFromRequest(req))
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookToPayload(updated))
	case http.MethodDelete:
		if err := h.Service.DeleteBook(ctx, id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleLoans(w http.ResponseWriter, r *http.Request, remainder string) {
	ctx := r.Context()

	if remainder == "" {
		switch r.Method {
		case http.MethodGet:
			loans, err := h.Service.ListLoans(ctx)
			if err != nil {
				h.writeServiceError(w, err)
				return
			}
			payloads := make([]loanPayload, 0, len(loans))
			for _, l := range loans {
				payloads = append(payloads, loanToPayload(l))
			}
			writeJSON(w, http.StatusOK, payloads)
		case http.MethodPost:
			var req loanRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid loan payload")
				return
			}
			created, err := h.Service.CreateLoan(ctx, loanInputFromRequest(req))
			if err != nil {
				h.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, loanToPayload(created))
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	id, ok := parseID(w, remainder)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := h.Service.GetLoan(ctx, id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loanToPayload(detail))
	case http.MethodPut:
		var req loanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid loan payload")
			return
		}
		detail, err := h.Service.UpdateLoan(ctx, id, loanInputFromRequest(req))
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loanToPayload(detail))
	case http.MethodPatch:
		var req loanPatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid loan payload")
			return
		}
		detail, err := h.Service.PatchLoan(ctx, id, loanPatchFromRequest(req))
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loanToPayload(detail))
	case http.MethodDelete:
		if err := h.Service.DeleteLoan(ctx, id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	if h.Archiver == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	info, err := h.Archiver.Archive(r.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("archive snapshot failed")
		writeError(w, http.StatusInternalServerError, "archive failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"key": info.Key, "size": info.Size})
}

// writeServiceError maps domain errors onto the HTTP status taxonomy:
// validation failures are client errors, missing records are 404s, and
// anything else is a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":  string(verr.Code),
			"error": verr.Message,
		})
		return
	}
	var nferr domain.NotFoundError
	if errors.As(err, &nferr) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"entity": string(nferr.Entity),
			"id":     nferr.ID,
			"error":  nferr.Error(),
		})
		return
	}
	h.Logger.Error().Err(err).Msg("unhandled service error")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func parseID(w http.ResponseWriter, remainder string) (int64, bool) {
	raw := strings.TrimPrefix(remainder, "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusNotFound, "record endpoint not found")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return 0, false
	}
	return id, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
