// AngelaMos | 2026
// handler.go

package ai

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
	limiter *middleware.CategoryLimiter,
	resolver func(http.Handler) http.Handler,
	gate *middleware.Gate,
) {
	r.Route("/ai", func(r chi.Router) {
		r.Use(resolver)
		r.Use(limiter.Limit(middleware.CategoryAIQuery))

		r.With(gate.RequireQuota(
			plan.CapAIContent, plan.ResourceAIQuery, 1,
		)).Post("/query", h.Query)

		r.With(gate.Require(plan.CapAIPaper)).Post("/paper", h.Paper)
		r.With(gate.Require(plan.CapAIVoice)).Post("/voice", h.Voice)
	})
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	text, err := h.service.Query(r.Context(), req.Prompt, req.MaxTokens)
	if err != nil {
		writeAIError(w, err, "llm")
		return
	}

	core.OK(w, QueryResponse{Text: text})
}

func (h *Handler) Paper(w http.ResponseWriter, r *http.Request) {
	var req PaperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	paper, err := h.service.GeneratePaper(r.Context(), req)
	if err != nil {
		writeAIError(w, err, "llm")
		return
	}

	core.OK(w, PaperResponse{Paper: paper})
}

func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	var req VoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	audio, err := h.service.Voice(r.Context(), req.Text, req.Voice)
	if err != nil {
		writeAIError(w, err, "speech")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio) //nolint:errcheck // response already committed
}

func writeAIError(w http.ResponseWriter, err error, provider string) {
	if errors.Is(err, core.ErrProviderDown) {
		core.JSONError(w, core.ProviderUnavailableError(provider))
		return
	}
	core.InternalServerError(w, err)
}
