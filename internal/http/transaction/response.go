package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type transactionResponse struct {
	ID                  uuid.UUID                 `json:"id"`
	CustomerID          uuid.UUID                 `json:"customer_id"`
	PlanID              uuid.UUID                 `json:"plan_id"`
	ServiceID           uuid.UUID                 `json:"service_id"`
	Amount              money.Amount              `json:"amount"`
	AmountSpent         money.Amount              `json:"amount_spent"`
	RemainingBalance    money.Amount              `json:"remaining_balance"`
	RevokedAmount       money.Amount              `json:"revoked_amount"`
	Status              transaction.Status        `json:"status"`
	PreAuthorization    catalog.PreAuthorization  `json:"pre_authorization"`
	AdminApprovalStatus bool                      `json:"admin_approval_status"`
	PaymentMethod       transaction.PaymentMethod `json:"payment_method,omitempty"`
	RevokeReason        string                    `json:"revoke_reason,omitempty"`
	CancelReason        string                    `json:"cancel_reason,omitempty"`
	InvoiceNumber       string                    `json:"invoice_number"`
	History             []statusChangeResponse    `json:"status_history"`
	CreatedBy           string                    `json:"created_by"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           *time.Time                `json:"updated_at,omitempty"`
}

type statusChangeResponse struct {
	Status    transaction.Status `json:"status"`
	ChangedBy string             `json:"changed_by"`
	Date      time.Time          `json:"date"`
}

type balanceResponse struct {
	CustomerID       uuid.UUID    `json:"customer_id"`
	PlanID           uuid.UUID    `json:"plan_id"`
	ServiceID        uuid.UUID    `json:"service_id"`
	RemainingBalance money.Amount `json:"remaining_balance"`
}

type serviceBalanceResponse struct {
	PlanID           uuid.UUID                `json:"plan_id"`
	ServiceID        uuid.UUID                `json:"service_id"`
	Name             string                   `json:"name"`
	Price            money.Amount             `json:"price"`
	PreAuthorization catalog.PreAuthorization `json:"pre_authorization"`
	RemainingBalance money.Amount             `json:"remaining_balance"`
}

type BatchRowResponse struct {
	Row         int                  `json:"row"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	history := make([]statusChangeResponse, len(tx.History))
	for i, h := range tx.History {
		history[i] = statusChangeResponse{Status: h.Status, ChangedBy: h.ChangedBy, Date: h.Date}
	}

	return transactionResponse{
		ID:                  tx.ID,
		CustomerID:          tx.CustomerID,
		PlanID:              tx.PlanID,
		ServiceID:           tx.ServiceID,
		Amount:              tx.Amount,
		AmountSpent:         tx.AmountSpent,
		RemainingBalance:    tx.RemainingBalance,
		RevokedAmount:       tx.RevokedAmount,
		Status:              tx.Status,
		PreAuthorization:    tx.PreAuthorization,
		AdminApprovalStatus: tx.AdminApprovalStatus,
		PaymentMethod:       tx.PaymentMethod,
		RevokeReason:        tx.RevokeReason,
		CancelReason:        tx.CancelReason,
		InvoiceNumber:       tx.InvoiceNumber,
		History:             history,
		CreatedBy:           tx.CreatedBy,
		CreatedAt:           tx.CreatedAt,
		UpdatedAt:           tx.UpdatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}

// ToBatchResponse reports each batch row with its 1-based position.
func ToBatchResponse(results []transaction.BatchResult) []BatchRowResponse {
	resp := make([]BatchRowResponse, len(results))

	for i, r := range results {
		resp[i].Row = i + 1

		if r.Err != nil {
			resp[i].Error = r.Err.Error()
			continue
		}

		resp[i].Transaction = new(toResponse(r.Transaction))
	}

	return resp
}
