// Package memory keeps customers, plans and transactions in process memory.
// It backs local runs without a database and the engine's concurrency tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/ledger"
	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type entryKey struct {
	PlanID    uuid.UUID
	ServiceID uuid.UUID
}

type Store struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]catalog.Customer
	plans     map[uuid.UUID]catalog.Plan
	entries   map[entryKey]catalog.ServiceEntry
	balances  map[ledger.Key]money.Amount
	txs       map[uuid.UUID]*transaction.Transaction

	locksMu sync.Mutex
	locks   map[ledger.Key]*keyLock
}

// keyLock serializes units of work on one key. refs counts the holder and
// every waiter; the lock is dropped from the map when it reaches zero.
type keyLock struct {
	ch   chan struct{}
	refs int
}

func New() *Store {
	return &Store{
		customers: make(map[uuid.UUID]catalog.Customer),
		plans:     make(map[uuid.UUID]catalog.Plan),
		entries:   make(map[entryKey]catalog.ServiceEntry),
		balances:  make(map[ledger.Key]money.Amount),
		txs:       make(map[uuid.UUID]*transaction.Transaction),
		locks:     make(map[ledger.Key]*keyLock),
	}
}

// AddPlan stores the plan and each of its service entries.
func (s *Store) AddPlan(plan catalog.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range plan.Services {
		e.PlanID = plan.ID
		e.RemainingBalance = e.Price
		s.entries[entryKey{PlanID: plan.ID, ServiceID: e.ServiceID}] = e
	}

	plan.Services = nil
	s.plans[plan.ID] = plan
}

func (s *Store) AddCustomer(c catalog.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers[c.ID] = c
}

func (s *Store) GetCustomer(_ context.Context, id uuid.UUID) (*catalog.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, catalog.ErrCustomerNotFound
	}

	return &c, nil
}

func (s *Store) GetPlan(_ context.Context, id uuid.UUID) (*catalog.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, catalog.ErrPlanNotFound
	}

	for k, e := range s.entries {
		if k.PlanID == id {
			p.Services = append(p.Services, e)
		}
	}

	slices.SortFunc(p.Services, func(a, b catalog.ServiceEntry) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return &p, nil
}

func (s *Store) GetServiceEntry(_ context.Context, planID, serviceID uuid.UUID) (*catalog.ServiceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryKey{PlanID: planID, ServiceID: serviceID}]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}

	return &e, nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}

	return clone(tx), nil
}

func (s *Store) ListTransactions(_ context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []*transaction.Transaction

	for _, tx := range s.txs {
		if matches(tx, filter) {
			txs = append(txs, clone(tx))
		}
	}

	slices.SortFunc(txs, func(a, b *transaction.Transaction) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return txs, nil
}

func matches(tx *transaction.Transaction, f transaction.ListFilter) bool {
	switch {
	case f.CustomerID != nil && tx.CustomerID != *f.CustomerID:
		return false
	case f.ServiceID != nil && tx.ServiceID != *f.ServiceID:
		return false
	case f.Status != nil && tx.Status != *f.Status:
		return false
	case f.StartDate != nil && tx.CreatedAt.Before(*f.StartDate):
		return false
	case f.EndDate != nil && tx.CreatedAt.After(*f.EndDate):
		return false
	}

	return true
}

// Begin blocks until no other unit of work holds key, or ctx is done.
func (s *Store) Begin(ctx context.Context, key ledger.Key) (transaction.UnitOfWork, error) {
	lock := s.acquireLock(key)

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		s.releaseLock(key, lock)
		return nil, fmt.Errorf("waiting for balance lock %s: %w", key, ctx.Err())
	}

	return &unitOfWork{
		store: s,
		key:   key,
		release: func() {
			<-lock.ch
			s.releaseLock(key, lock)
		},
		txs:     make(map[uuid.UUID]*transaction.Transaction),
		deleted: make(map[uuid.UUID]struct{}),
	}, nil
}

func (s *Store) acquireLock(key ledger.Key) *keyLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &keyLock{ch: make(chan struct{}, 1)}
		s.locks[key] = lock
	}

	lock.refs++

	return lock
}

func (s *Store) releaseLock(key ledger.Key, lock *keyLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, key)
	}
}

// unitOfWork stages writes and applies them to the store on Commit.
type unitOfWork struct {
	store   *Store
	key     ledger.Key
	release func()
	done    bool

	balance *money.Amount
	txs     map[uuid.UUID]*transaction.Transaction
	deleted map[uuid.UUID]struct{}
}

func (u *unitOfWork) ConsumedAmount(_ context.Context, key ledger.Key) (money.Amount, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()

	var consumed money.Amount

	add := func(tx *transaction.Transaction) error {
		if tx.Key() != key || tx.Status.Voided() {
			return nil
		}

		sum, err := consumed.Add(tx.Amount)
		if err != nil {
			return err
		}

		consumed = sum

		return nil
	}

	for id, tx := range u.store.txs {
		if _, staged := u.txs[id]; staged {
			continue
		}

		if _, gone := u.deleted[id]; gone {
			continue
		}

		if err := add(tx); err != nil {
			return 0, err
		}
	}

	for _, tx := range u.txs {
		if err := add(tx); err != nil {
			return 0, err
		}
	}

	return consumed, nil
}

// GetServiceEntry returns the entry with the cached balance of the locked customer.
func (u *unitOfWork) GetServiceEntry(ctx context.Context, planID, serviceID uuid.UUID) (*catalog.ServiceEntry, error) {
	e, err := u.store.GetServiceEntry(ctx, planID, serviceID)
	if err != nil {
		return nil, err
	}

	u.store.mu.RLock()
	cached, ok := u.store.balances[u.key]
	u.store.mu.RUnlock()

	e.RemainingBalance = e.Price
	if ok {
		e.RemainingBalance = cached
	}

	if u.balance != nil {
		e.RemainingBalance = *u.balance
	}

	return e, nil
}

func (u *unitOfWork) SaveRemainingBalance(_ context.Context, entry *catalog.ServiceEntry) error {
	remaining := entry.RemainingBalance
	u.balance = &remaining

	return nil
}

func (u *unitOfWork) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	if _, gone := u.deleted[id]; gone {
		return nil, transaction.ErrNotFound
	}

	if tx, ok := u.txs[id]; ok {
		return clone(tx), nil
	}

	return u.store.GetTransaction(ctx, id)
}

func (u *unitOfWork) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	u.txs[tx.ID] = clone(tx)
	return nil
}

func (u *unitOfWork) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if _, err := u.GetTransaction(ctx, tx.ID); err != nil {
		return err
	}

	u.txs[tx.ID] = clone(tx)

	return nil
}

func (u *unitOfWork) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	delete(u.txs, id)
	u.deleted[id] = struct{}{}

	return nil
}

func (u *unitOfWork) Commit() error {
	if u.done {
		return nil
	}

	u.store.mu.Lock()

	for id, tx := range u.txs {
		u.store.txs[id] = tx
	}

	for id := range u.deleted {
		delete(u.store.txs, id)
	}

	if u.balance != nil {
		u.store.balances[u.key] = *u.balance
	}

	u.store.mu.Unlock()

	u.finish()

	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}

	u.finish()

	return nil
}

func (u *unitOfWork) finish() {
	u.done = true
	u.release()
}

func clone(tx *transaction.Transaction) *transaction.Transaction {
	c := *tx
	c.History = slices.Clone(tx.History)

	if tx.UpdatedAt != nil {
		c.UpdatedAt = new(*tx.UpdatedAt)
	}

	return &c
}
