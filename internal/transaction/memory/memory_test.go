package memory_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/ledger"
	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
	"github.com/MrJamesThe3rd/benefits/internal/transaction/memory"
)

func seeded(t *testing.T) (*memory.Store, ledger.Key, uuid.UUID) {
	t.Helper()

	s := memory.New()
	planID, serviceID, customerID := uuid.New(), uuid.New(), uuid.New()

	s.AddPlan(catalog.Plan{ID: planID, Name: "Basic", Services: []catalog.ServiceEntry{
		{ServiceID: serviceID, Name: "Optics", Price: 5000},
	}})
	s.AddCustomer(catalog.Customer{ID: customerID, PlanID: planID})

	return s, ledger.Key{CustomerID: customerID, ServiceID: serviceID}, planID
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	s, key, planID := seeded(t)
	ctx := context.Background()

	uow, err := s.Begin(ctx, key)
	require.NoError(t, err)

	entry, err := uow.GetServiceEntry(ctx, planID, key.ServiceID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(5000), entry.RemainingBalance)

	entry.RemainingBalance = 1000
	require.NoError(t, uow.SaveRemainingBalance(ctx, entry))
	require.NoError(t, uow.CreateTransaction(ctx, &transaction.Transaction{ID: uuid.New(), CustomerID: key.CustomerID, ServiceID: key.ServiceID, Amount: 4000}))

	consumed, err := uow.ConsumedAmount(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(4000), consumed)

	require.NoError(t, uow.Rollback())

	txs, err := s.ListTransactions(ctx, transaction.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)

	uow, err = s.Begin(ctx, key)
	require.NoError(t, err)
	defer uow.Rollback()

	entry, err = uow.GetServiceEntry(ctx, planID, key.ServiceID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(5000), entry.RemainingBalance)
}

func TestStore_CommitAppliesWritesAndReleasesLock(t *testing.T) {
	s, key, planID := seeded(t)
	ctx := context.Background()

	uow, err := s.Begin(ctx, key)
	require.NoError(t, err)

	tx := &transaction.Transaction{ID: uuid.New(), CustomerID: key.CustomerID, ServiceID: key.ServiceID, PlanID: planID, Amount: 1500, Status: transaction.StatusCompleted}
	require.NoError(t, uow.CreateTransaction(ctx, tx))
	require.NoError(t, uow.SaveRemainingBalance(ctx, &catalog.ServiceEntry{RemainingBalance: 3500}))
	require.NoError(t, uow.Commit())
	require.NoError(t, uow.Rollback())

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(1500), got.Amount)

	uow, err = s.Begin(ctx, key)
	require.NoError(t, err)

	entry, err := uow.GetServiceEntry(ctx, planID, key.ServiceID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(3500), entry.RemainingBalance)

	require.NoError(t, uow.DeleteTransaction(ctx, tx.ID))

	_, err = uow.GetTransaction(ctx, tx.ID)
	require.ErrorIs(t, err, transaction.ErrNotFound)

	consumed, err := uow.ConsumedAmount(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), consumed)

	require.NoError(t, uow.Commit())

	_, err = s.GetTransaction(ctx, tx.ID)
	require.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestStore_BeginWaitsForLock(t *testing.T) {
	s, key, _ := seeded(t)

	held, err := s.Begin(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = s.Begin(ctx, key)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	other := ledger.Key{CustomerID: uuid.New(), ServiceID: key.ServiceID}
	free, err := s.Begin(context.Background(), other)
	require.NoError(t, err)
	require.NoError(t, free.Rollback())

	require.NoError(t, held.Rollback())

	again, err := s.Begin(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, again.Rollback())

	assert.Zero(t, s.HeldLocks())
}

func TestStore_IdleLocksAreReleased(t *testing.T) {
	s, key, _ := seeded(t)
	ctx := context.Background()

	for range 50 {
		uow, err := s.Begin(ctx, ledger.Key{CustomerID: uuid.New(), ServiceID: key.ServiceID})
		require.NoError(t, err)
		require.NoError(t, uow.Commit())
	}

	held, err := s.Begin(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, s.HeldLocks())

	waiting := make(chan error, 1)
	go func() {
		uow, err := s.Begin(ctx, key)
		if err == nil {
			err = uow.Rollback()
		}
		waiting <- err
	}()

	require.NoError(t, held.Rollback())
	require.NoError(t, <-waiting)
	assert.Zero(t, s.HeldLocks())
}

func TestStore_Catalog(t *testing.T) {
	s, key, planID := seeded(t)
	ctx := context.Background()

	plan, err := s.GetPlan(ctx, planID)
	require.NoError(t, err)
	require.Len(t, plan.Services, 1)
	assert.Equal(t, "Optics", plan.Services[0].Name)

	_, err = s.GetPlan(ctx, uuid.New())
	require.ErrorIs(t, err, catalog.ErrPlanNotFound)

	_, err = s.GetCustomer(ctx, uuid.New())
	require.ErrorIs(t, err, catalog.ErrCustomerNotFound)

	_, err = s.GetServiceEntry(ctx, planID, uuid.New())
	require.ErrorIs(t, err, catalog.ErrServiceNotFound)

	c, err := s.GetCustomer(ctx, key.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, planID, c.PlanID)
}

func TestStore_Seed(t *testing.T) {
	planID, serviceID, customerID := uuid.New(), uuid.New(), uuid.New()

	doc := `{
		"plans": [{"id": "` + planID.String() + `", "name": "Gold", "kind": "corporate", "services": [
			{"service_id": "` + serviceID.String() + `", "name": "Dental", "price": "150.00", "pre_authorization": "yes"}
		]}],
		"customers": [{"id": "` + customerID.String() + `", "name": "Ada", "plan_id": "` + planID.String() + `"}]
	}`

	s := memory.New()
	require.NoError(t, s.Seed(strings.NewReader(doc)))

	plan, err := s.GetPlan(context.Background(), planID)
	require.NoError(t, err)
	assert.Equal(t, catalog.PlanKindCorporate, plan.Kind)
	require.Len(t, plan.Services, 1)
	assert.Equal(t, money.Amount(15000), plan.Services[0].Price)
	assert.True(t, plan.Services[0].PreAuthorization.Required())

	c, err := s.GetCustomer(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, planID, c.PlanID)

	bad := `{"customers": [{"id": "` + uuid.NewString() + `", "plan_id": "` + uuid.NewString() + `"}]}`
	assert.ErrorIs(t, memory.New().Seed(strings.NewReader(bad)), catalog.ErrPlanNotFound)
}
