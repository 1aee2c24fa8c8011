// AngelaMos | 2026
// handler.go

package student

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/guard"
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
	gate *middleware.Gate,
) {
	r.Route("/students", func(r chi.Router) {
		r.Use(resolver)

		r.With(gate.Require(plan.CapCoreRead)).Get("/", h.List)
		r.With(gate.RequireQuota(
			plan.CapStudentManage, plan.ResourceStudent, 1,
		)).Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.With(gate.Require(plan.CapCoreRead)).Get("/", h.Get)
			r.With(gate.Require(plan.CapStudentManage)).Put("/", h.Update)
			r.With(gate.Require(plan.CapStudentManage)).Delete("/", h.Delete)
		})
	})
}

func (h *Handler) scope(r *http.Request) (*guard.Scope, *middleware.TenantContext) {
	tc := middleware.GetTenantContext(r.Context())
	if tc == nil {
		return nil, nil
	}
	return h.service.ScopeFor(
		tc.TenantID, tc.Principal.ID, middleware.ClientAddr(r)), tc
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, _ := h.scope(r)
	if scope == nil {
		core.Unauthorized(w, "")
		return
	}

	students, err := h.service.List(r.Context(), scope)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"students": students,
		"count":    len(students),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope, _ := h.scope(r)
	if scope == nil {
		core.Unauthorized(w, "")
		return
	}

	st, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeStudentError(w, err)
		return
	}

	core.OK(w, st)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	scope, tc := h.scope(r)
	if scope == nil {
		core.Unauthorized(w, "")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	st, err := h.service.Create(
		r.Context(), scope, tc.Principal.ID, middleware.ClientAddr(r), req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("student_number"))
			return
		}
		writeStudentError(w, err)
		return
	}

	core.Created(w, st)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	scope, tc := h.scope(r)
	if scope == nil {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	st, err := h.service.Update(
		r.Context(), scope,
		tc.Principal.ID, middleware.ClientAddr(r),
		chi.URLParam(r, "id"), req,
	)
	if err != nil {
		writeStudentError(w, err)
		return
	}

	core.OK(w, st)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, tc := h.scope(r)
	if scope == nil {
		core.Unauthorized(w, "")
		return
	}

	err := h.service.Remove(
		r.Context(), scope,
		tc.Principal.ID, middleware.ClientAddr(r),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		writeStudentError(w, err)
		return
	}

	core.NoContent(w)
}

func writeStudentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "student")
	case errors.Is(err, core.ErrCrossTenant):
		core.JSONError(w, core.CrossTenantError())
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid request")
	default:
		core.InternalServerError(w, err)
	}
}
