// AngelaMos | 2026
// handler.go

package onboarding

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	limiter *middleware.CategoryLimiter,
) {
	r.With(limiter.Limit(middleware.CategoryDefault)).
		Post("/onboarding/tenant", h.Onboard)
}

func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Onboard(r.Context(), req, middleware.ClientAddr(r))
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("admin email"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, resp)
}
