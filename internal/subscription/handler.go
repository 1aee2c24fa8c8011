// AngelaMos | 2026
// handler.go

package subscription

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/middleware"
	"github.com/schooltino/api/internal/plan"
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
	resolver func(http.Handler) http.Handler,
) {
	r.Route("/billing", func(r chi.Router) {
		r.Get("/plans", h.Plans)

		r.Group(func(r chi.Router) {
			r.Use(resolver)
			r.Get("/status", h.Status)
			r.Post("/subscribe", h.Subscribe)
			r.Post("/cancel", h.Cancel)
		})
	})
}

// Plans is the public catalog.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	core.OK(w, map[string]any{"plans": plan.Catalog()})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r.Context())
	if tc == nil {
		core.Unauthorized(w, "")
		return
	}

	resp, err := h.service.Status(r.Context(), tc.TenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "subscription")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r.Context())
	if tc == nil {
		core.Unauthorized(w, "")
		return
	}

	if !tc.Principal.IsAdminStaff() {
		core.Forbidden(w, "administrative staff only")
		return
	}

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, err := h.service.Subscribe(
		r.Context(),
		tc.TenantID,
		tc.Principal.ID,
		middleware.ClientAddr(r),
		plan.Plan(req.Plan),
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "unknown plan")
		case errors.Is(err, core.ErrPaymentRequired):
			core.JSONError(w, core.PaymentRequiredError())
		case errors.Is(err, core.ErrProviderDown):
			core.JSONError(w, core.ProviderUnavailableError("payment"))
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "subscription")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, toSubscriptionResponse(sub))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r.Context())
	if tc == nil {
		core.Unauthorized(w, "")
		return
	}

	if !tc.Principal.IsAdminStaff() {
		core.Forbidden(w, "administrative staff only")
		return
	}

	sub, err := h.service.Cancel(
		r.Context(),
		tc.TenantID,
		tc.Principal.ID,
		middleware.ClientAddr(r),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "subscription")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, toSubscriptionResponse(sub))
}
