package transaction

import (
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/ledger"
	"github.com/MrJamesThe3rd/benefits/internal/money"
)

var (
	ErrNotFound     = errors.New("transaction not found")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state transition")
	ErrForbidden    = errors.New("operation not allowed for actor")

	ErrInvalidStateForEdit     = fmt.Errorf("%w: edit requires status %s or %s", ErrInvalidState, StatusApproved, StatusInProgress)
	ErrInvalidStateForApproval = fmt.Errorf("%w: approval requires status %s", ErrInvalidState, StatusPending)
	ErrInvalidStateForRevoke   = fmt.Errorf("%w: revoke requires status %s", ErrInvalidState, StatusPending)
	ErrAlreadyVoided           = fmt.Errorf("%w: transaction is already revoked or canceled", ErrInvalidState)
	ErrMissingReason           = fmt.Errorf("%w: reason is required", ErrValidation)

	ErrInsufficientBalance  = ledger.ErrInsufficientBalance
	ErrAmountExceedsBalance = ledger.ErrAmountExceedsBalance
)

func validationError(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, msg)
}

// Kind groups errors by how they are reported to callers.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindInvalidState        Kind = "invalid_state"
	KindForbidden           Kind = "forbidden"
	KindStorage             Kind = "storage"
)

// KindOf classifies err. Anything unrecognised is a storage failure.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ledger.ErrNonPositiveAmount),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrOverflow):
		return KindValidation
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalog.ErrCustomerNotFound),
		errors.Is(err, catalog.ErrPlanNotFound),
		errors.Is(err, catalog.ErrServiceNotFound):
		return KindNotFound
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrInvalidState), errors.Is(err, ledger.ErrCreditExceedsDebits):
		return KindInvalidState
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	}

	return KindStorage
}
