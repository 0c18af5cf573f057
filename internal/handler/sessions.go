package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/query"
	"g2-yoyodex/internal/service"
	"g2-yoyodex/pkg/apierror"
	"g2-yoyodex/pkg/response"
)

const maxBodyBytes = 64 << 10

// SessionHandler serves stateful browsing: the query state lives in a
// session and changes only through actions.
type SessionHandler struct {
	sessions *service.SessionService
	catalog  *service.Catalog
	log      *logger.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions *service.SessionService, catalog *service.Catalog, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		catalog:  catalog,
		log:      logger.OrNop(log).Component("session_handler"),
	}
}

// SessionResponse is a session together with the page its state selects.
type SessionResponse struct {
	ID        string       `json:"id"`
	ExpiresAt time.Time    `json:"expires_at"`
	Results   ListResponse `json:"results"`
}

// CreateSessionRequest optionally sizes the first page.
type CreateSessionRequest struct {
	PageSize int `json:"page_size"`
	Width    int `json:"width"`
}

// decodeBody reads an optional JSON body into v. An empty body is fine.
func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apierror.BadRequest("failed to read request body")
	}
	defer r.Body.Close()

	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apierror.BadRequest("invalid JSON")
	}
	return nil
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	size := req.PageSize
	if size <= 0 && req.Width > 0 {
		size = query.PageSizeForWidth(req.Width)
	}

	sess, err := h.sessions.Create(r.Context(), size)
	if err != nil {
		h.log.Error("create session failed", "error", err)
		response.Error(w, apiError(err))
		return
	}
	h.respond(w, r, http.StatusCreated, sess)
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apiError(err))
		return
	}
	h.respond(w, r, http.StatusOK, sess)
}

// Apply handles POST /api/v1/sessions/{id}/actions
func (h *SessionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var action query.Action
	if err := decodeBody(r, &action); err != nil {
		response.Error(w, err)
		return
	}
	if action.Type == "" {
		response.Error(w, apierror.ValidationError("action type is required",
			apierror.FieldError{Field: "type", Message: "required"}))
		return
	}

	sess, err := h.sessions.Apply(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		if !errors.Is(err, service.ErrSessionNotFound) {
			h.log.Debug("action rejected", "type", action.Type, "error", err)
		}
		response.Error(w, apiError(err))
		return
	}
	h.respond(w, r, http.StatusOK, sess)
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Error(w, apiError(err))
		return
	}
	response.NoContent(w)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, status int, sess *service.Session) {
	res, err := h.catalog.RunQuery(r.Context(), sess.State)
	if err != nil {
		h.log.Error("query failed", "session", sess.ID, "error", err)
		response.Error(w, apiError(err))
		return
	}
	response.JSONWithMeta(w, status, SessionResponse{
		ID:        sess.ID,
		ExpiresAt: sess.ExpiresAt,
		Results:   newListResponse(res, sess.State),
	}, response.NewMeta(res.Page, res.PageSize, int64(res.Total)))
}
