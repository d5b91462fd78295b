package store_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/ledger"
	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
	"github.com/MrJamesThe3rd/benefits/internal/transaction/store"
)

var transactionColumns = []string{
	"id", "customer_id", "plan_id", "service_id", "amount", "amount_spent",
	"remaining_balance", "revoked_amount", "status", "pre_authorization",
	"admin_approval_status", "payment_method", "revoke_reason", "cancel_reason",
	"invoice_number", "created_by", "created_at", "updated_at",
}

var historyColumns = []string{"status", "changed_by", "changed_at"}

func newStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return store.New(db), mock
}

func transactionRow(tx *transaction.Transaction) *sqlmock.Rows {
	return sqlmock.NewRows(transactionColumns).AddRow(
		tx.ID.String(), tx.CustomerID.String(), tx.PlanID.String(), tx.ServiceID.String(),
		int64(tx.Amount), int64(tx.AmountSpent), int64(tx.RemainingBalance), int64(tx.RevokedAmount),
		string(tx.Status), string(tx.PreAuthorization), tx.AdminApprovalStatus, string(tx.PaymentMethod),
		nil, nil, tx.InvoiceNumber, tx.CreatedBy, tx.CreatedAt, nil,
	)
}

func sampleTransaction() *transaction.Transaction {
	return &transaction.Transaction{
		ID:               uuid.New(),
		CustomerID:       uuid.New(),
		PlanID:           uuid.New(),
		ServiceID:        uuid.New(),
		Amount:           3000,
		RemainingBalance: 7000,
		Status:           transaction.StatusPending,
		PreAuthorization: catalog.PreAuthorizationYes,
		PaymentMethod:    transaction.PaymentCash,
		InvoiceNumber:    "INV-20260101-ABCDEF12",
		CreatedBy:        "staff-1",
		CreatedAt:        time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestStore_GetTransaction(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		s, mock := newStore(t)
		want := sampleTransaction()

		mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t")).
			WithArgs(want.ID).
			WillReturnRows(transactionRow(want))
		mock.ExpectQuery(regexp.QuoteMeta("FROM transaction_status_history")).
			WithArgs(want.ID).
			WillReturnRows(sqlmock.NewRows(historyColumns).AddRow("Pending", "staff-1", want.CreatedAt))

		got, err := s.GetTransaction(context.Background(), want.ID)
		require.NoError(t, err)

		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, money.Amount(3000), got.Amount)
		assert.Equal(t, transaction.StatusPending, got.Status)
		assert.Equal(t, catalog.PreAuthorizationYes, got.PreAuthorization)
		assert.Empty(t, got.RevokeReason)
		assert.Nil(t, got.UpdatedAt)
		require.Len(t, got.History, 1)
		assert.Equal(t, "staff-1", got.History[0].ChangedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		s, mock := newStore(t)
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(transactionColumns))

		_, err := s.GetTransaction(context.Background(), id)
		assert.ErrorIs(t, err, transaction.ErrNotFound)
	})
}

func TestStore_ListTransactions_BuildsFilter(t *testing.T) {
	s, mock := newStore(t)
	customerID := uuid.New()
	status := transaction.StatusApproved

	mock.ExpectQuery(regexp.QuoteMeta("t.customer_id = $1 AND t.status = $2 ORDER BY t.created_at ASC")).
		WithArgs(customerID, status).
		WillReturnRows(sqlmock.NewRows(transactionColumns))

	txs, err := s.ListTransactions(context.Background(), transaction.ListFilter{CustomerID: &customerID, Status: &status})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Begin_TakesAdvisoryLock(t *testing.T) {
	s, mock := newStore(t)
	key := ledger.Key{CustomerID: uuid.New(), ServiceID: uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0)")).
		WithArgs(key.CustomerID, key.ServiceID, transaction.StatusRevoked, transaction.StatusCanceled).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(4500)))
	mock.ExpectCommit()

	uow, err := s.Begin(context.Background(), key)
	require.NoError(t, err)

	consumed, err := uow.ConsumedAmount(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(4500), consumed)

	require.NoError(t, uow.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Begin_LockFailureRollsBack(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := s.Begin(context.Background(), ledger.Key{CustomerID: uuid.New(), ServiceID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquiring balance lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_BalanceCache(t *testing.T) {
	s, mock := newStore(t)
	key := ledger.Key{CustomerID: uuid.New(), ServiceID: uuid.New()}
	planID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN customer_service_balances b")).
		WithArgs(planID, key.ServiceID, key.CustomerID).
		WillReturnRows(sqlmock.NewRows([]string{"plan_id", "service_id", "name", "price", "pre_authorization", "remaining_balance"}).
			AddRow(planID.String(), key.ServiceID.String(), "Dental", int64(10000), "no", int64(10000)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customer_service_balances")).
		WithArgs(key.CustomerID, key.ServiceID, planID, money.Amount(6000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	ctx := context.Background()

	uow, err := s.Begin(ctx, key)
	require.NoError(t, err)

	entry, err := uow.GetServiceEntry(ctx, planID, key.ServiceID)
	require.NoError(t, err)
	assert.Equal(t, catalog.PreAuthorizationNo, entry.PreAuthorization)

	entry.RemainingBalance = 6000
	require.NoError(t, uow.SaveRemainingBalance(ctx, entry))
	require.NoError(t, uow.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_CreateAndUpdateAppendHistory(t *testing.T) {
	s, mock := newStore(t)
	tx := sampleTransaction()
	tx.History = []transaction.StatusChange{{Status: transaction.StatusPending, ChangedBy: "staff-1", Date: tx.CreatedAt}}

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transaction_status_history")).
		WithArgs(tx.ID, 0, transaction.StatusPending, "staff-1", tx.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transaction_status_history")).
		WithArgs(tx.ID, 0, transaction.StatusPending, "staff-1", tx.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transaction_status_history")).
		WithArgs(tx.ID, 1, transaction.StatusApproved, "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()

	uow, err := s.Begin(ctx, tx.Key())
	require.NoError(t, err)

	require.NoError(t, uow.CreateTransaction(ctx, tx))

	tx.Status = transaction.StatusApproved
	tx.History = append(tx.History, transaction.StatusChange{Status: transaction.StatusApproved, ChangedBy: "admin-1", Date: time.Now()})
	require.NoError(t, uow.UpdateTransaction(ctx, tx))

	require.NoError(t, uow.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_UpdateMissingTransaction(t *testing.T) {
	s, mock := newStore(t)
	tx := sampleTransaction()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ctx := context.Background()

	uow, err := s.Begin(ctx, tx.Key())
	require.NoError(t, err)

	assert.ErrorIs(t, uow.UpdateTransaction(ctx, tx), transaction.ErrNotFound)
	require.NoError(t, uow.Rollback())
}
