package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/ledger"
	"github.com/MrJamesThe3rd/benefits/internal/money"
)

// Status represents the lifecycle state of a transaction.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	// StatusApproved keeps the historical spelling used by stored data and clients.
	StatusApproved Status = "Aproved"
	StatusRevoked  Status = "Revoked"
	StatusCanceled Status = "Canceled"
)

var statuses = map[Status]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusApproved:   {},
	StatusRevoked:    {},
	StatusCanceled:   {},
}

func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

// Voided reports whether the transaction no longer counts against the balance.
func (s Status) Voided() bool {
	return s == StatusRevoked || s == StatusCanceled
}

func (s Status) Editable() bool {
	return s == StatusApproved || s == StatusInProgress
}

// PaymentMethod records how the partner was paid for the claim.
type PaymentMethod string

const (
	PaymentCash             PaymentMethod = "cash"
	PaymentCard             PaymentMethod = "card"
	PaymentMobileMoney      PaymentMethod = "mobile_money"
	PaymentBankTransfer     PaymentMethod = "bank_transfer"
	PaymentCorporateAccount PaymentMethod = "corporate_account"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case "", PaymentCash, PaymentCard, PaymentMobileMoney, PaymentBankTransfer, PaymentCorporateAccount:
		return true
	}

	return false
}

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	Status    Status
	ChangedBy string
	Date      time.Time
}

// Transaction is a claim against the balance of one plan service.
type Transaction struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	PlanID     uuid.UUID
	ServiceID  uuid.UUID

	Amount           money.Amount
	AmountSpent      money.Amount // 0 while pending
	RemainingBalance money.Amount // service balance right after this transaction
	RevokedAmount    money.Amount

	Status              Status
	PreAuthorization    catalog.PreAuthorization
	AdminApprovalStatus bool
	PaymentMethod       PaymentMethod
	RevokeReason        string
	CancelReason        string
	InvoiceNumber       string
	History             []StatusChange

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func (t *Transaction) Key() ledger.Key {
	return ledger.Key{CustomerID: t.CustomerID, ServiceID: t.ServiceID}
}

// record moves the transaction to status and appends the change to its history.
func (t *Transaction) record(status Status, actor string, at time.Time) {
	t.Status = status
	t.History = append(t.History, StatusChange{Status: status, ChangedBy: actor, Date: at})
}

// void zeroes the claim, keeping the original value in RevokedAmount.
func (t *Transaction) void(status Status, remaining money.Amount, actor string, at time.Time) {
	t.RevokedAmount = t.Amount
	t.Amount = 0
	t.AmountSpent = 0
	t.RemainingBalance = remaining
	t.record(status, actor, at)
}

// Role is the access level of whoever triggers a transition.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// Actor identifies who performs an operation. For customers, ID is the customer id.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used for transitions not triggered by a person, such as bulk imports.
var SystemActor = Actor{ID: "system", Role: RoleAdmin}

func (a Actor) canAccess(tx *Transaction) bool {
	if a.Role != RoleCustomer {
		return true
	}

	return a.ID == tx.CustomerID.String()
}
