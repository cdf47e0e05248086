package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/internal/usecase"
	"events-service/pkg/middleware"
	"events-service/pkg/response"
)

type EventsHandler struct {
	uc     *usecase.RegistrationUsecase
	logger *zap.Logger
}

func NewEventsHandler(uc *usecase.RegistrationUsecase, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{uc: uc, logger: logger}
}

// principal is always present behind AuthMiddleware.Require.
func (h *EventsHandler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}

// decode reads a JSON body; a malformed body is a validation failure.
func (h *EventsHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		v := &domain.ValidationError{}
		v.Add("body", "malformed JSON")
		h.writeError(w, r, v)
		return false
	}
	return true
}

func (h *EventsHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		v := &domain.ValidationError{}
		v.Add(name, "must be a positive integer")
		h.writeError(w, r, v)
		return 0, false
	}
	return id, true
}

func (h *EventsHandler) pathKind(w http.ResponseWriter, r *http.Request) (domain.RegistrationKind, bool) {
	kind, err := domain.ParseRegistrationKind(chi.URLParam(r, "kind"))
	if err != nil {
		v := &domain.ValidationError{}
		v.Add("kind", "must be individual or team")
		h.writeError(w, r, v)
		return "", false
	}
	return kind, true
}

// queryInt64 parses an optional positive integer query parameter.
func queryInt64(r *http.Request, name string, v *domain.ValidationError) *int64 {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		v.Add(name, "must be a positive integer")
		return nil
	}
	return &n
}

func queryInt(r *http.Request, name string, v *domain.ValidationError) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		v.Add(name, "must be a non-negative integer")
		return 0
	}
	return n
}
