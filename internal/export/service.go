package export

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

// Lister is the part of the transaction engine the export reads from.
type Lister interface {
	List(ctx context.Context, actor transaction.Actor, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

// Statement is the list of transactions matching a filter with their totals.
type Statement struct {
	Transactions []*transaction.Transaction
	// Consumed sums the amounts still held against balances.
	Consumed money.Amount
	// Released sums what revocations and cancellations gave back.
	Released money.Amount
}

// Service builds transaction statements.
type Service struct {
	transactions Lister
}

// NewService creates a new export Service.
func NewService(transactions Lister) *Service {
	return &Service{transactions: transactions}
}

// Export lists the transactions visible to actor that match filter.
func (s *Service) Export(ctx context.Context, actor transaction.Actor, filter transaction.ListFilter) (*Statement, error) {
	txs, err := s.transactions.List(ctx, actor, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	st := &Statement{Transactions: txs}

	for _, tx := range txs {
		if st.Released, err = st.Released.Add(tx.RevokedAmount); err != nil {
			return nil, err
		}

		if tx.Status.Voided() {
			continue
		}

		if st.Consumed, err = st.Consumed.Add(tx.Amount); err != nil {
			return nil, err
		}
	}

	return st, nil
}

var csvHeader = []string{
	"invoice_number", "created_at", "customer_id", "service_id", "status",
	"amount", "amount_spent", "revoked_amount", "remaining_balance",
	"payment_method", "status_changes", "reason",
}

// WriteCSV writes one line per transaction in the statement.
func (s *Service) WriteCSV(w io.Writer, st *Statement) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, tx := range st.Transactions {
		reason := tx.CancelReason
		if reason == "" {
			reason = tx.RevokeReason
		}

		record := []string{
			tx.InvoiceNumber,
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
			tx.CustomerID.String(),
			tx.ServiceID.String(),
			string(tx.Status),
			tx.Amount.String(),
			tx.AmountSpent.String(),
			tx.RevokedAmount.String(),
			tx.RemainingBalance.String(),
			string(tx.PaymentMethod),
			strconv.Itoa(len(tx.History)),
			reason,
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Summary renders the statement as plain text, one line per transaction.
func (s *Service) Summary(st *Statement) string {
	var sb strings.Builder

	for _, tx := range st.Transactions {
		amount := tx.Amount
		if tx.Status.Voided() {
			amount = tx.RevokedAmount
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %s € | saldo %s €\n",
			tx.CreatedAt.Format("2006-01-02"), tx.InvoiceNumber, tx.Status, amount, tx.RemainingBalance)
	}

	fmt.Fprintf(&sb, "\nConsumido: %s €\nDevolvido: %s €\n", st.Consumed, st.Released)

	return sb.String()
}

// WriteZip writes an archive holding statement.csv and summary.txt.
func (s *Service) WriteZip(w io.Writer, st *Statement) error {
	zw := zip.NewWriter(w)

	csvFile, err := zw.Create("statement.csv")
	if err != nil {
		return fmt.Errorf("creating statement entry: %w", err)
	}

	if err := s.WriteCSV(csvFile, st); err != nil {
		return err
	}

	summaryFile, err := zw.Create("summary.txt")
	if err != nil {
		return fmt.Errorf("creating summary entry: %w", err)
	}

	if _, err := io.WriteString(summaryFile, s.Summary(st)); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return zw.Close()
}
