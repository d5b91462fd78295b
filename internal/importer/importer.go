package importer

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

// Format names a claims export layout family.
type Format string

const (
	FormatClaims Format = "claims"
)

// Row is one claim read from a partner export. Exactly one of ServiceID and
// ServiceLabel is set, unless Err reports why the row could not be read.
type Row struct {
	Line          int
	Err           error
	CustomerID    uuid.UUID
	PlanID        uuid.UUID
	ServiceID     uuid.UUID
	ServiceLabel  string
	Amount        money.Amount
	PaymentMethod transaction.PaymentMethod
	Date          time.Time
}

type Parser interface {
	Parse(r io.Reader) ([]Row, error)
}
