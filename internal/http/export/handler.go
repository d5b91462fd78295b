package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/export"
	"github.com/MrJamesThe3rd/benefits/internal/http/auth"
	"github.com/MrJamesThe3rd/benefits/internal/http/render"
	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.download)
	r.Post("/summary", h.summary)
}

type exportRequest struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	ServiceID  *uuid.UUID `json:"service_id,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

type summaryResponse struct {
	Transactions int          `json:"transactions"`
	Consumed     money.Amount `json:"consumed"`
	Released     money.Amount `json:"released"`
	Summary      string       `json:"summary"`
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) (*export.Statement, bool) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Fail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}

	actor, _ := auth.ActorFrom(r.Context())

	st, err := h.svc.Export(r.Context(), actor, transaction.ListFilter{
		CustomerID: req.CustomerID,
		ServiceID:  req.ServiceID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		render.Error(w, r, err)
		return nil, false
	}

	return st, true
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	st, ok := h.statement(w, r)
	if !ok {
		return
	}

	render.JSON(w, http.StatusOK, summaryResponse{
		Transactions: len(st.Transactions),
		Consumed:     st.Consumed,
		Released:     st.Released,
		Summary:      h.svc.Summary(st),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	st, ok := h.statement(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"statement_%s.zip\"", time.Now().Format("20060102")))

	if err := h.svc.WriteZip(w, st); err != nil {
		slog.Error("failed to write statement archive", "error", err)
	}
}
