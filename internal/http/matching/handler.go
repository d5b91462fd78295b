package matching

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/http/render"
	"github.com/MrJamesThe3rd/benefits/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type suggestResponse struct {
	Label     string     `json:"label"`
	ServiceID *uuid.UUID `json:"service_id"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	if label == "" {
		render.Fail(w, http.StatusBadRequest, "label query parameter is required")
		return
	}

	serviceID, err := h.svc.Suggest(r.Context(), label)
	if err != nil {
		slog.Error("failed to suggest service", "label", label, "error", err)
		render.Fail(w, http.StatusInternalServerError, "internal error")

		return
	}

	resp := suggestResponse{Label: label}
	if serviceID != uuid.Nil {
		resp.ServiceID = &serviceID
	}

	render.JSON(w, http.StatusOK, resp)
}

type learnRequest struct {
	Pattern   string    `json:"pattern"`
	ServiceID uuid.UUID `json:"service_id"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Fail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.Learn(r.Context(), req.Pattern, req.ServiceID); err != nil {
		if errors.Is(err, matching.ErrInvalidMapping) {
			render.Fail(w, http.StatusBadRequest, err.Error())
			return
		}

		slog.Error("failed to save mapping", "error", err)
		render.Fail(w, http.StatusInternalServerError, "internal error")

		return
	}

	render.JSON(w, http.StatusCreated, suggestResponse{Label: req.Pattern, ServiceID: &req.ServiceID})
}
