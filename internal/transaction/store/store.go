package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/ledger"
	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectTransactionColumns = `
	t.id, t.customer_id, t.plan_id, t.service_id, t.amount, t.amount_spent,
	t.remaining_balance, t.revoked_amount, t.status, t.pre_authorization,
	t.admin_approval_status, t.payment_method, t.revoke_reason, t.cancel_reason,
	t.invoice_number, t.created_by, t.created_at, t.updated_at
`

// scanTransaction expects the columns of selectTransactionColumns in order.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var (
		tx                     transaction.Transaction
		status, preAuth, pm    string
		revokeReason, canceled sql.NullString
		updatedAt              sql.NullTime
	)

	if err := s.Scan(
		&tx.ID, &tx.CustomerID, &tx.PlanID, &tx.ServiceID, &tx.Amount, &tx.AmountSpent,
		&tx.RemainingBalance, &tx.RevokedAmount, &status, &preAuth,
		&tx.AdminApprovalStatus, &pm, &revokeReason, &canceled,
		&tx.InvoiceNumber, &tx.CreatedBy, &tx.CreatedAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	tx.Status = transaction.Status(status)
	tx.PreAuthorization = catalog.PreAuthorization(preAuth)
	tx.PaymentMethod = transaction.PaymentMethod(pm)
	tx.RevokeReason = revokeReason.String
	tx.CancelReason = canceled.String

	if updatedAt.Valid {
		tx.UpdatedAt = &updatedAt.Time
	}

	return &tx, nil
}

func getTransaction(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.id = $1 AND t.deleted_at IS NULL`

	if forUpdate {
		query += " FOR UPDATE"
	}

	tx, err := scanTransaction(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	if tx.History, err = loadHistory(ctx, q, tx.ID); err != nil {
		return nil, err
	}

	return tx, nil
}

func loadHistory(ctx context.Context, q querier, id uuid.UUID) ([]transaction.StatusChange, error) {
	query := `
		SELECT status, changed_by, changed_at
		FROM transaction_status_history
		WHERE transaction_id = $1
		ORDER BY seq ASC
	`

	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("loading status history: %w", err)
	}
	defer rows.Close()

	var history []transaction.StatusChange

	for rows.Next() {
		var (
			change transaction.StatusChange
			status string
		)

		if err := rows.Scan(&status, &change.ChangedBy, &change.Date); err != nil {
			return nil, fmt.Errorf("scanning status change: %w", err)
		}

		change.Status = transaction.Status(status)
		history = append(history, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status history: %w", err)
	}

	return history, nil
}

// appendHistory writes the entries not yet stored. Existing entries are
// never rewritten.
func appendHistory(ctx context.Context, q querier, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transaction_status_history (transaction_id, seq, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transaction_id, seq) DO NOTHING
	`

	for i, change := range tx.History {
		if _, err := q.ExecContext(ctx, query, tx.ID, i, change.Status, change.ChangedBy, change.Date); err != nil {
			return fmt.Errorf("appending status history: %w", err)
		}
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return getTransaction(ctx, s.db, id, false)
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.CustomerID != nil {
		query += fmt.Sprintf(" AND t.customer_id = $%d", argIdx)

		args = append(args, *filter.CustomerID)
		argIdx++
	}

	if filter.ServiceID != nil {
		query += fmt.Sprintf(" AND t.service_id = $%d", argIdx)

		args = append(args, *filter.ServiceID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.created_at >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.created_at <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY t.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	rows.Close()

	for _, tx := range txs {
		if tx.History, err = loadHistory(ctx, s.db, tx.ID); err != nil {
			return nil, err
		}
	}

	return txs, nil
}

func lockKey(key ledger.Key) int64 {
	h := fnv.New64a()
	h.Write(key.CustomerID[:])
	h.Write([]byte{0})
	h.Write(key.ServiceID[:])

	return int64(h.Sum64())
}

// Begin opens a database transaction holding the advisory lock of key. The
// lock is released by Postgres on commit or rollback.
func (s *Store) Begin(ctx context.Context, key ledger.Key) (transaction.UnitOfWork, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning balance tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(key)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring balance lock: %w", err)
	}

	return &unitOfWork{tx: dbTx, key: key}, nil
}

type unitOfWork struct {
	tx  *sql.Tx
	key ledger.Key
}

func (u *unitOfWork) Commit() error   { return u.tx.Commit() }
func (u *unitOfWork) Rollback() error { return u.tx.Rollback() }

func (u *unitOfWork) ConsumedAmount(ctx context.Context, key ledger.Key) (money.Amount, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE customer_id = $1 AND service_id = $2
		  AND deleted_at IS NULL
		  AND status NOT IN ($3, $4)
	`

	var consumed money.Amount

	err := u.tx.QueryRowContext(ctx, query,
		key.CustomerID, key.ServiceID, transaction.StatusRevoked, transaction.StatusCanceled,
	).Scan(&consumed)
	if err != nil {
		return 0, fmt.Errorf("summing consumed amount: %w", err)
	}

	return consumed, nil
}

// GetServiceEntry returns the plan service with the cached balance of the
// locked customer, defaulting to the full price.
func (u *unitOfWork) GetServiceEntry(ctx context.Context, planID, serviceID uuid.UUID) (*catalog.ServiceEntry, error) {
	query := `
		SELECT ps.plan_id, ps.service_id, ps.name, ps.price, ps.pre_authorization,
		       COALESCE(b.remaining_balance, ps.price)
		FROM plan_services ps
		LEFT JOIN customer_service_balances b
		       ON b.service_id = ps.service_id AND b.customer_id = $3
		WHERE ps.plan_id = $1 AND ps.service_id = $2
	`

	var (
		entry   catalog.ServiceEntry
		preAuth string
	)

	err := u.tx.QueryRowContext(ctx, query, planID, serviceID, u.key.CustomerID).Scan(
		&entry.PlanID, &entry.ServiceID, &entry.Name, &entry.Price, &preAuth, &entry.RemainingBalance,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrServiceNotFound
		}

		return nil, fmt.Errorf("getting service entry: %w", err)
	}

	entry.PreAuthorization = catalog.PreAuthorization(preAuth)

	return &entry, nil
}

func (u *unitOfWork) SaveRemainingBalance(ctx context.Context, entry *catalog.ServiceEntry) error {
	query := `
		INSERT INTO customer_service_balances (customer_id, service_id, plan_id, remaining_balance, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (customer_id, service_id)
		DO UPDATE SET plan_id = EXCLUDED.plan_id, remaining_balance = EXCLUDED.remaining_balance, updated_at = NOW()
	`

	if _, err := u.tx.ExecContext(ctx, query, u.key.CustomerID, entry.ServiceID, entry.PlanID, entry.RemainingBalance); err != nil {
		return fmt.Errorf("saving remaining balance: %w", err)
	}

	return nil
}

func (u *unitOfWork) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return getTransaction(ctx, u.tx, id, true)
}

func (u *unitOfWork) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, customer_id, plan_id, service_id, amount, amount_spent, remaining_balance,
			revoked_amount, status, pre_authorization, admin_approval_status, payment_method,
			invoice_number, created_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := u.tx.ExecContext(ctx, query,
		tx.ID, tx.CustomerID, tx.PlanID, tx.ServiceID, tx.Amount, tx.AmountSpent, tx.RemainingBalance,
		tx.RevokedAmount, tx.Status, tx.PreAuthorization, tx.AdminApprovalStatus, tx.PaymentMethod,
		tx.InvoiceNumber, tx.CreatedBy, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return appendHistory(ctx, u.tx, tx)
}

func (u *unitOfWork) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $1, amount_spent = $2, remaining_balance = $3, revoked_amount = $4,
		    status = $5, admin_approval_status = $6, payment_method = $7,
		    revoke_reason = $8, cancel_reason = $9, updated_at = NOW()
		WHERE id = $10 AND deleted_at IS NULL
	`

	res, err := u.tx.ExecContext(ctx, query,
		tx.Amount, tx.AmountSpent, tx.RemainingBalance, tx.RevokedAmount,
		tx.Status, tx.AdminApprovalStatus, tx.PaymentMethod,
		nullString(tx.RevokeReason), nullString(tx.CancelReason), tx.ID,
	)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return transaction.ErrNotFound
	}

	return appendHistory(ctx, u.tx, tx)
}

func (u *unitOfWork) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE transactions
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	if _, err := u.tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
