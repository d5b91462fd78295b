// Package ledger computes and mutates the remaining balance of a plan service
// for one customer.
//
// The authoritative balance is always the service price minus the sum of the
// customer's non-voided transactions against that service. The cached
// RemainingBalance on the catalog entry is rewritten from that sum after every
// operation and is never used as an input.
//
// Ledger methods must run while the caller holds the exclusive lock for the
// balance Key, and before the transaction record reflecting the change is
// written: a debit sees the consumed amount without the new claim, a credit
// sees it with the claim still counted.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/money"
)

var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAmountExceedsBalance = fmt.Errorf("amount exceeds available balance: %w", ErrInsufficientBalance)
	ErrCreditExceedsDebits  = errors.New("credit exceeds consumed amount")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
)

// Key identifies one customer's balance on one service.
type Key struct {
	CustomerID uuid.UUID
	ServiceID  uuid.UUID
}

func (k Key) String() string {
	return k.CustomerID.String() + "/" + k.ServiceID.String()
}

// Store is the part of a unit of work the ledger reads and writes.
type Store interface {
	// ConsumedAmount sums the amount of every transaction for the key whose
	// status is neither Revoked nor Canceled.
	ConsumedAmount(ctx context.Context, key Key) (money.Amount, error)
	SaveRemainingBalance(ctx context.Context, entry *catalog.ServiceEntry) error
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// AvailableBalance returns price minus consumed, floored at zero.
func (l *Ledger) AvailableBalance(ctx context.Context, key Key, entry *catalog.ServiceEntry) (money.Amount, error) {
	consumed, err := l.store.ConsumedAmount(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("summing consumed amount for %s: %w", key, err)
	}

	return Remaining(entry.Price, consumed)
}

// ReserveOrDebit takes amount out of the available balance.
func (l *Ledger) ReserveOrDebit(ctx context.Context, key Key, entry *catalog.ServiceEntry, amount money.Amount) (money.Amount, error) {
	if !amount.IsPositive() {
		return 0, ErrNonPositiveAmount
	}

	available, err := l.AvailableBalance(ctx, key, entry)
	if err != nil {
		return 0, err
	}

	if amount > available {
		return 0, fmt.Errorf("%w: requested %s, available %s", ErrInsufficientBalance, amount, available)
	}

	return l.save(ctx, entry, available-amount)
}

// Credit gives amount back to the balance. A zero credit only refreshes the cache.
func (l *Ledger) Credit(ctx context.Context, key Key, entry *catalog.ServiceEntry, amount money.Amount) (money.Amount, error) {
	if amount.IsNegative() {
		return 0, ErrNonPositiveAmount
	}

	consumed, err := l.store.ConsumedAmount(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("summing consumed amount for %s: %w", key, err)
	}

	if amount > consumed {
		return 0, fmt.Errorf("%w: crediting %s, consumed %s", ErrCreditExceedsDebits, amount, consumed)
	}

	remaining, err := Remaining(entry.Price, consumed-amount)
	if err != nil {
		return 0, err
	}

	return l.save(ctx, entry, remaining)
}

// Rebalance replaces a previously debited oldAmount by newAmount.
func (l *Ledger) Rebalance(ctx context.Context, key Key, entry *catalog.ServiceEntry, oldAmount, newAmount money.Amount) (money.Amount, error) {
	if !newAmount.IsPositive() || oldAmount.IsNegative() {
		return 0, ErrNonPositiveAmount
	}

	consumed, err := l.store.ConsumedAmount(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("summing consumed amount for %s: %w", key, err)
	}

	if oldAmount > consumed {
		return 0, fmt.Errorf("%w: crediting %s, consumed %s", ErrCreditExceedsDebits, oldAmount, consumed)
	}

	available, err := Remaining(entry.Price, consumed-oldAmount)
	if err != nil {
		return 0, err
	}

	if newAmount > available {
		return 0, fmt.Errorf("%w: requested %s, available %s", ErrAmountExceedsBalance, newAmount, available)
	}

	return l.save(ctx, entry, available-newAmount)
}

func (l *Ledger) save(ctx context.Context, entry *catalog.ServiceEntry, remaining money.Amount) (money.Amount, error) {
	previous := entry.RemainingBalance
	entry.RemainingBalance = remaining

	if err := l.store.SaveRemainingBalance(ctx, entry); err != nil {
		entry.RemainingBalance = previous
		return 0, fmt.Errorf("saving remaining balance: %w", err)
	}

	return remaining, nil
}

// Remaining is price minus consumed with a hard floor of zero.
func Remaining(price, consumed money.Amount) (money.Amount, error) {
	remaining, err := price.Sub(consumed)
	if err != nil {
		return 0, err
	}

	return max(remaining, 0), nil
}
