// AngelaMos | 2026
// handler.go

package credentials

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
	resolver func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.With(limiter.Limit(middleware.CategoryLogin)).
			Post("/login", h.Login)
		r.With(limiter.Limit(middleware.CategoryPasswordReset)).
			Post("/reset/request", h.RequestReset)
		r.With(limiter.Limit(middleware.CategoryPasswordReset)).
			Post("/reset/confirm", h.ConfirmReset)

		r.Group(func(r chi.Router) {
			r.Use(resolver)
			r.Get("/me", h.Me)
			r.Post("/enroll", h.Enroll)
			r.Post("/revoke", h.Revoke)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if req.Handle() == "" {
		core.BadRequest(w, "identifier or email required")
		return
	}

	resp, err := h.service.Authenticate(r.Context(), req.Handle(), req.Password)
	if err != nil {
		if errors.Is(err, core.ErrBadCredentials) {
			core.JSONError(w, core.BadCredentialsError())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.RequestReset(
		r.Context(), req.Identifier, middleware.ClientAddr(r))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	// Same shape whether or not the identifier exists.
	core.OK(w, map[string]string{"status": "reset code sent if account exists"})
}

func (h *Handler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req ResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.ConsumeReset(
		r.Context(), req.Code, req.NewPassword, middleware.ClientAddr(r))
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) ||
			errors.Is(err, core.ErrNotFound) {
			core.BadRequest(w, "invalid or expired reset code")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r.Context())
	if tc == nil {
		core.Unauthorized(w, "")
		return
	}

	resp := toPrincipalResponse(tc.Principal)
	core.OK(w, map[string]any{
		"principal": resp,
		"plan":      tc.Snapshot.Plan,
		"status":    tc.Snapshot.Status,
		"in_grace":  tc.InGrace(),
	})
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r.Context())
	if tc == nil {
		core.Unauthorized(w, "")
		return
	}

	if !tc.Principal.IsAdminStaff() {
		core.Forbidden(w, "administrative staff only")
		return
	}

	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Enroll(
		r.Context(),
		tc.TenantID,
		tc.Principal.ID,
		middleware.ClientAddr(r),
		req,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("identifier"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, toPrincipalResponse(p))
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r.Context())
	if tc == nil {
		core.Unauthorized(w, "")
		return
	}

	if !tc.Principal.IsAdminStaff() {
		core.Forbidden(w, "administrative staff only")
		return
	}

	var req RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.Revoke(
		r.Context(),
		tc.TenantID,
		tc.Principal.ID,
		middleware.ClientAddr(r),
		req,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "principal")
			return
		}
		if errors.Is(err, core.ErrCrossTenant) {
			core.JSONError(w, core.CrossTenantError())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
