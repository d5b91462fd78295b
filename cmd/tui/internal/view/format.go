package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

const dbTimeout = 5 * time.Second

func FormatAmount(a money.Amount) string {
	return a.String() + " €"
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

var statusColors = map[transaction.Status]lipgloss.Color{
	transaction.StatusPending:    "214",
	transaction.StatusApproved:   "39",
	transaction.StatusInProgress: "45",
	transaction.StatusCompleted:  "46",
	transaction.StatusRevoked:    "196",
	transaction.StatusCanceled:   "240",
}

func StatusStyle(s transaction.Status) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(string(s))
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}
