package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/http/auth"
	"github.com/MrJamesThe3rd/benefits/internal/http/render"
	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.edit)
	r.Post("/{id}/cancel", h.cancel)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(transaction.RoleAdmin))
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/revoke", h.revoke)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) BalanceRoutes(r chi.Router) {
	r.Get("/{customerID}", h.planBalances)
	r.Get("/{customerID}/{planID}/{serviceID}", h.balance)
}

type createTransactionRequest struct {
	CustomerID    uuid.UUID                 `json:"customer_id"`
	PlanID        uuid.UUID                 `json:"plan_id"`
	ServiceID     uuid.UUID                 `json:"service_id"`
	Amount        money.Amount              `json:"amount"`
	PaymentMethod transaction.PaymentMethod `json:"payment_method"`
	Status        transaction.Status        `json:"status"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Fail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tx, err := h.svc.Create(r.Context(), actor(r), transaction.CreateParams{
		CustomerID:    req.CustomerID,
		PlanID:        req.PlanID,
		ServiceID:     req.ServiceID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := transaction.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		filter.Status = new(transaction.Status(s))
	}

	for param, dst := range map[string]**uuid.UUID{"customer_id": &filter.CustomerID, "service_id": &filter.ServiceID} {
		if s := q.Get(param); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				render.Fail(w, http.StatusBadRequest, "invalid "+param)
				return
			}

			*dst = &id
		}
	}

	if s := q.Get("start_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			render.Fail(w, http.StatusBadRequest, "invalid start_date")
			return
		}

		filter.StartDate = new(t)
	}

	if s := q.Get("end_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			render.Fail(w, http.StatusBadRequest, "invalid end_date")
			return
		}

		filter.EndDate = new(t.Add(24*time.Hour - time.Nanosecond))
	}

	txs, err := h.svc.List(r.Context(), actor(r), filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.svc.Get(r.Context(), actor(r), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(tx))
}

type editTransactionRequest struct {
	Amount        *money.Amount              `json:"amount,omitempty"`
	PaymentMethod *transaction.PaymentMethod `json:"payment_method,omitempty"`
	Status        *transaction.Status        `json:"status,omitempty"`
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req editTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Fail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tx, err := h.svc.Edit(r.Context(), actor(r), id, transaction.EditParams{
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.svc.Approve(r.Context(), actor(r), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(tx))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	h.void(w, r, h.svc.Revoke)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.void(w, r, h.svc.Cancel)
}

type voidFunc func(ctx context.Context, actor transaction.Actor, id uuid.UUID, reason string) (*transaction.Transaction, error)

func (h *Handler) void(w http.ResponseWriter, r *http.Request, fn voidFunc) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Fail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tx, err := fn(r.Context(), actor(r), id, req.Reason)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), actor(r), id); err != nil {
		render.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}

	planID, ok := pathID(w, r, "planID")
	if !ok {
		return
	}

	serviceID, ok := pathID(w, r, "serviceID")
	if !ok {
		return
	}

	remaining, err := h.svc.AvailableBalance(r.Context(), actor(r), customerID, planID, serviceID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, balanceResponse{
		CustomerID:       customerID,
		PlanID:           planID,
		ServiceID:        serviceID,
		RemainingBalance: remaining,
	})
}

func (h *Handler) planBalances(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}

	balances, err := h.svc.PlanBalances(r.Context(), actor(r), customerID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]serviceBalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = serviceBalanceResponse{
			PlanID:           b.Entry.PlanID,
			ServiceID:        b.Entry.ServiceID,
			Name:             b.Entry.Name,
			Price:            b.Entry.Price,
			PreAuthorization: b.Entry.PreAuthorization,
			RemainingBalance: b.Available,
		}
	}

	render.JSON(w, http.StatusOK, resp)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		render.Fail(w, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}

	return id, true
}

// actor is set by the auth middleware mounted in front of every route.
func actor(r *http.Request) transaction.Actor {
	a, _ := auth.ActorFrom(r.Context())
	return a
}
