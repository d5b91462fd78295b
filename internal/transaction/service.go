package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/ledger"
	"github.com/MrJamesThe3rd/benefits/internal/metrics"
	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/notify"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	// Begin opens a unit of work holding the exclusive lock for key until
	// Commit or Rollback.
	Begin(ctx context.Context, key ledger.Key) (UnitOfWork, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}

type UnitOfWork interface {
	ConsumedAmount(ctx context.Context, key ledger.Key) (money.Amount, error)
	GetServiceEntry(ctx context.Context, planID, serviceID uuid.UUID) (*catalog.ServiceEntry, error)
	SaveRemainingBalance(ctx context.Context, entry *catalog.ServiceEntry) error

	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	CreateTransaction(ctx context.Context, tx *Transaction) error
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error

	Commit() error
	Rollback() error
}

// Catalog resolves the plan service a claim is made against.
type Catalog interface {
	ResolveService(ctx context.Context, customerID, planID, serviceID uuid.UUID) (*catalog.Resolution, error)
	Subscription(ctx context.Context, customerID uuid.UUID) (*catalog.Subscription, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
	sink    notify.Sink
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, cat Catalog, sink notify.Sink, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		catalog: cat,
		sink:    sink,
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	CustomerID    uuid.UUID
	PlanID        uuid.UUID // zero means the customer's current plan
	ServiceID     uuid.UUID
	Amount        money.Amount
	PaymentMethod PaymentMethod
	// Status optionally asks for InProgress instead of Completed on services
	// without pre-authorization. It is ignored when approval is required.
	Status Status
}

func (p CreateParams) Validate() error {
	if p.CustomerID == uuid.Nil {
		return validationError("customer", "is required")
	}

	if p.ServiceID == uuid.Nil {
		return validationError("service", "is required")
	}

	if !p.Amount.IsPositive() {
		return validationError("amount", "must be a positive number")
	}

	if !p.PaymentMethod.Valid() {
		return validationError("payment_method", fmt.Sprintf("%q is not supported", p.PaymentMethod))
	}

	switch p.Status {
	case "", StatusCompleted, StatusInProgress:
	default:
		return validationError("status", fmt.Sprintf("%q is not a valid initial status", p.Status))
	}

	return nil
}

type EditParams struct {
	Amount        *money.Amount
	PaymentMethod *PaymentMethod
	Status        *Status
}

func (p EditParams) Validate() error {
	if p.Amount != nil && !p.Amount.IsPositive() {
		return validationError("amount", "must be a positive number")
	}

	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		return validationError("payment_method", fmt.Sprintf("%q is not supported", *p.PaymentMethod))
	}

	if p.Status != nil {
		// Approval only happens through Approve.
		switch *p.Status {
		case StatusInProgress, StatusCompleted:
		default:
			return validationError("status", fmt.Sprintf("cannot edit into %q", *p.Status))
		}
	}

	return nil
}

type ListFilter struct {
	CustomerID *uuid.UUID
	ServiceID  *uuid.UUID
	Status     *Status
	StartDate  *time.Time
	EndDate    *time.Time
}

// Create validates a claim, debits the service balance and records the
// transaction. Services requiring pre-authorization start Pending with the
// amount reserved; the others complete immediately.
func (s *Service) Create(ctx context.Context, actor Actor, params CreateParams) (*Transaction, error) {
	const op = "create"

	start := s.now()

	if err := params.Validate(); err != nil {
		return nil, s.reject(op, err)
	}

	if actor.Role == RoleCustomer && actor.ID != params.CustomerID.String() {
		return nil, s.reject(op, ErrForbidden)
	}

	res, err := s.catalog.ResolveService(ctx, params.CustomerID, params.PlanID, params.ServiceID)
	if err != nil {
		return nil, s.reject(op, err)
	}

	key := ledger.Key{CustomerID: res.Customer.ID, ServiceID: res.Entry.ServiceID}

	var created *Transaction

	err = s.withinLock(ctx, key, func(uow UnitOfWork) error {
		entry, err := uow.GetServiceEntry(ctx, res.Entry.PlanID, res.Entry.ServiceID)
		if err != nil {
			return err
		}

		remaining, err := ledger.New(uow).ReserveOrDebit(ctx, key, entry, params.Amount)
		if err != nil {
			return err
		}

		now := s.now()
		tx := &Transaction{
			ID:               uuid.New(),
			CustomerID:       res.Customer.ID,
			PlanID:           entry.PlanID,
			ServiceID:        entry.ServiceID,
			Amount:           params.Amount,
			RemainingBalance: remaining,
			PreAuthorization: entry.PreAuthorization,
			PaymentMethod:    params.PaymentMethod,
			InvoiceNumber:    newInvoiceNumber(now),
			CreatedBy:        actor.ID,
			CreatedAt:        now,
		}

		status := initialStatus(entry.PreAuthorization, params.Status)
		if status != StatusPending {
			tx.AmountSpent = tx.Amount
		}

		tx.record(status, actor.ID, now)

		if err := uow.CreateTransaction(ctx, tx); err != nil {
			return err
		}

		created = tx

		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}

	s.succeed(op, start, created.Status)

	if created.Status == StatusPending {
		s.publish(ctx, notify.EventPending, created, "transaction requires pre-authorization")
	}

	return created, nil
}

func initialStatus(preAuth catalog.PreAuthorization, requested Status) Status {
	if preAuth.Required() {
		return StatusPending
	}

	if requested == StatusInProgress {
		return StatusInProgress
	}

	return StatusCompleted
}

// Edit changes the amount, payment method or status of an approved or
// in-progress transaction. A new amount is re-checked against the balance
// with the old amount credited back first.
func (s *Service) Edit(ctx context.Context, actor Actor, id uuid.UUID, params EditParams) (*Transaction, error) {
	const op = "edit"

	start := s.now()

	if err := params.Validate(); err != nil {
		return nil, s.reject(op, err)
	}

	tx, err := s.mutate(ctx, actor, id, func(m *mutation) error {
		if !m.tx.Status.Editable() {
			return ErrInvalidStateForEdit
		}

		if params.Amount != nil && *params.Amount != m.tx.Amount {
			remaining, err := m.ledger.Rebalance(ctx, m.key, m.entry, m.tx.Amount, *params.Amount)
			if err != nil {
				return err
			}

			m.tx.Amount = *params.Amount
			m.tx.RemainingBalance = remaining
		}

		if params.PaymentMethod != nil {
			m.tx.PaymentMethod = *params.PaymentMethod
		}

		if params.Status != nil && *params.Status != m.tx.Status {
			m.tx.record(*params.Status, actor.ID, m.now)
		}

		m.tx.AmountSpent = m.tx.Amount

		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}

	s.succeed(op, start, tx.Status)

	return tx, nil
}

// Approve finalizes a pending transaction. The amount was already reserved
// at creation, so the balance does not move.
func (s *Service) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*Transaction, error) {
	const op = "approve"

	start := s.now()

	if actor.Role != RoleAdmin {
		return nil, s.reject(op, ErrForbidden)
	}

	tx, err := s.mutate(ctx, actor, id, func(m *mutation) error {
		if m.tx.Status != StatusPending {
			return ErrInvalidStateForApproval
		}

		m.tx.AdminApprovalStatus = true
		m.tx.AmountSpent = m.tx.Amount
		m.tx.record(StatusApproved, actor.ID, m.now)

		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}

	s.succeed(op, start, tx.Status)
	s.publish(ctx, notify.EventApproved, tx, "transaction approved")

	return tx, nil
}

// Revoke rejects a pending transaction and releases its reservation.
func (s *Service) Revoke(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*Transaction, error) {
	const op = "revoke"

	start := s.now()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, s.reject(op, ErrMissingReason)
	}

	if actor.Role != RoleAdmin {
		return nil, s.reject(op, ErrForbidden)
	}

	tx, err := s.mutate(ctx, actor, id, func(m *mutation) error {
		if m.tx.Status != StatusPending {
			return ErrInvalidStateForRevoke
		}

		remaining, err := m.ledger.Credit(ctx, m.key, m.entry, m.tx.Amount)
		if err != nil {
			return err
		}

		m.tx.RevokeReason = reason
		m.tx.void(StatusRevoked, remaining, actor.ID, m.now)

		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}

	s.succeed(op, start, tx.Status)
	s.publish(ctx, notify.EventRevoked, tx, "transaction revoked: "+reason)

	return tx, nil
}

// Cancel reverses a transaction in any non-terminal state and credits its
// amount back. Canceling twice is rejected so the balance is credited once.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*Transaction, error) {
	const op = "cancel"

	start := s.now()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, s.reject(op, ErrMissingReason)
	}

	tx, err := s.mutate(ctx, actor, id, func(m *mutation) error {
		if m.tx.Status.Voided() {
			return ErrAlreadyVoided
		}

		remaining, err := m.ledger.Credit(ctx, m.key, m.entry, m.tx.Amount)
		if err != nil {
			return err
		}

		m.tx.CancelReason = reason
		m.tx.void(StatusCanceled, remaining, actor.ID, m.now)

		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}

	s.succeed(op, start, tx.Status)
	s.publish(ctx, notify.EventCanceled, tx, "transaction canceled: "+reason)

	return tx, nil
}

// Delete removes a transaction, crediting whatever it still holds.
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	const op = "delete"

	start := s.now()

	if actor.Role != RoleAdmin {
		return s.reject(op, ErrForbidden)
	}

	_, err := s.mutate(ctx, actor, id, func(m *mutation) error {
		if _, err := m.ledger.Credit(ctx, m.key, m.entry, m.tx.Amount); err != nil {
			return err
		}

		m.deleted = true

		return nil
	})
	if err != nil {
		return s.reject(op, err)
	}

	s.metrics.Observe(op, s.now().Sub(start))

	return nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.canAccess(tx) {
		return nil, ErrNotFound
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, actor Actor, filter ListFilter) ([]*Transaction, error) {
	if actor.Role == RoleCustomer {
		id, err := uuid.Parse(actor.ID)
		if err != nil {
			return nil, ErrForbidden
		}

		filter.CustomerID = &id
	}

	return s.repo.ListTransactions(ctx, filter)
}

// AvailableBalance recomputes the balance from the recorded transactions.
func (s *Service) AvailableBalance(ctx context.Context, actor Actor, customerID, planID, serviceID uuid.UUID) (money.Amount, error) {
	if actor.Role == RoleCustomer && actor.ID != customerID.String() {
		return 0, ErrForbidden
	}

	res, err := s.catalog.ResolveService(ctx, customerID, planID, serviceID)
	if err != nil {
		return 0, err
	}

	key := ledger.Key{CustomerID: res.Customer.ID, ServiceID: res.Entry.ServiceID}

	var available money.Amount

	err = s.withinLock(ctx, key, func(uow UnitOfWork) error {
		var err error

		available, err = ledger.New(uow).AvailableBalance(ctx, key, res.Entry)

		return err
	})
	if err != nil {
		return 0, err
	}

	return available, nil
}

// ServiceBalance is the available balance of one service of a plan.
type ServiceBalance struct {
	Entry     catalog.ServiceEntry
	Available money.Amount
}

// PlanBalances reports the available balance of every service on the
// customer's current plan. Each service is read under its own lock.
func (s *Service) PlanBalances(ctx context.Context, actor Actor, customerID uuid.UUID) ([]ServiceBalance, error) {
	if actor.Role == RoleCustomer && actor.ID != customerID.String() {
		return nil, ErrForbidden
	}

	sub, err := s.catalog.Subscription(ctx, customerID)
	if err != nil {
		return nil, err
	}

	balances := make([]ServiceBalance, 0, len(sub.Plan.Services))

	for _, entry := range sub.Plan.Services {
		key := ledger.Key{CustomerID: sub.Customer.ID, ServiceID: entry.ServiceID}

		var available money.Amount

		err := s.withinLock(ctx, key, func(uow UnitOfWork) error {
			var err error

			available, err = ledger.New(uow).AvailableBalance(ctx, key, &entry)

			return err
		})
		if err != nil {
			return nil, err
		}

		balances = append(balances, ServiceBalance{Entry: entry, Available: available})
	}

	return balances, nil
}

// BatchResult is the outcome of one claim of a batch.
type BatchResult struct {
	Params      CreateParams
	Transaction *Transaction
	Err         error
}

// CreateBatch creates every claim independently; a rejected claim does not
// affect the others.
func (s *Service) CreateBatch(ctx context.Context, actor Actor, params []CreateParams) []BatchResult {
	results := make([]BatchResult, len(params))

	for i, p := range params {
		tx, err := s.Create(ctx, actor, p)
		results[i] = BatchResult{Params: p, Transaction: tx, Err: err}
	}

	return results
}

// mutation is the state handed to a transition while the balance lock is held.
type mutation struct {
	tx      *Transaction
	entry   *catalog.ServiceEntry
	ledger  *ledger.Ledger
	key     ledger.Key
	now     time.Time
	deleted bool
}

// mutate reloads the transaction under its balance lock, applies fn and
// persists the result in the same unit of work.
func (s *Service) mutate(ctx context.Context, actor Actor, id uuid.UUID, fn func(m *mutation) error) (*Transaction, error) {
	current, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.canAccess(current) {
		return nil, ErrNotFound
	}

	var updated *Transaction

	err = s.withinLock(ctx, current.Key(), func(uow UnitOfWork) error {
		tx, err := uow.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		entry, err := uow.GetServiceEntry(ctx, tx.PlanID, tx.ServiceID)
		if err != nil {
			return err
		}

		m := &mutation{
			tx:     tx,
			entry:  entry,
			ledger: ledger.New(uow),
			key:    tx.Key(),
			now:    s.now(),
		}

		if err := fn(m); err != nil {
			return err
		}

		if m.deleted {
			return uow.DeleteTransaction(ctx, id)
		}

		tx.UpdatedAt = &m.now

		if err := uow.UpdateTransaction(ctx, tx); err != nil {
			return err
		}

		updated = tx

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) withinLock(ctx context.Context, key ledger.Key, fn func(uow UnitOfWork) error) error {
	uow, err := s.repo.Begin(ctx, key)
	if err != nil {
		return fmt.Errorf("begin balance operation: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit balance operation: %w", err)
	}

	return nil
}

func (s *Service) publish(ctx context.Context, eventType notify.EventType, tx *Transaction, message string) {
	s.sink.Publish(ctx, notify.Event{
		Type:          eventType,
		TransactionID: tx.ID,
		CustomerID:    tx.CustomerID,
		Message:       message,
		Timestamp:     s.now(),
	})
}

func (s *Service) succeed(op string, start time.Time, status Status) {
	s.metrics.Transition(string(status))
	s.metrics.Observe(op, s.now().Sub(start))
}

func (s *Service) reject(op string, err error) error {
	s.metrics.Rejection(op, string(KindOf(err)))
	return err
}
