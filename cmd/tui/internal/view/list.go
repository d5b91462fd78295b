package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateEdit
	listStateCancel
)

// statusFilters is cycled with the s key; the empty status lists everything.
var statusFilters = []transaction.Status{
	"",
	transaction.StatusPending,
	transaction.StatusApproved,
	transaction.StatusInProgress,
	transaction.StatusCompleted,
	transaction.StatusRevoked,
	transaction.StatusCanceled,
}

type ListModel struct {
	CommonModel
	txService *transaction.Service

	state listState
	table table.Model
	txs   []*transaction.Transaction
	form  *huh.Form

	statusFilterIdx int
	period          Period

	filter  transaction.ListFilter
	loading bool
	err     error
	status  string
}

func NewListModel(actor transaction.Actor, txSvc *transaction.Service) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Invoice", Width: 22},
		{Title: "Status", Width: 11},
		{Title: "Amount", Width: 12},
		{Title: "Remaining", Width: 12},
		{Title: "Revoked", Width: 12},
		{Title: "Customer", Width: 36},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		CommonModel: CommonModel{Actor: actor},
		txService:   txSvc,
		table:       t,
		loading:     true,
	}
}

func (m ListModel) Title() string { return "Transactions" }

func (m ListModel) ShortHelp() string {
	if m.state != listStateBrowse {
		return "Enter: confirm | Esc: cancel"
	}

	return "Esc: back | e: edit amount | c: cancel | s: status filter | d: date filter | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case listSaveMsg:
		m.status = ""
		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error saving: %v", msg.err))
		}

		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateEdit, listStateCancel:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "e":
			return m.openForm(listStateEdit)
		case "c":
			return m.openForm(listStateCancel)
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(statusFilters)
			m.applyFilter(time.Now())

			return m, m.loadTxsCmd()
		case "d":
			m.period = m.period.Next()
			m.applyFilter(time.Now())

			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	return m.txs[idx]
}

func (m ListModel) openForm(state listState) (tea.Model, tea.Cmd) {
	tx := m.selected()
	if tx == nil {
		return m, nil
	}

	switch state {
	case listStateEdit:
		if !tx.Status.Editable() {
			m.status = errorStyle(fmt.Sprintf("%s transactions cannot be edited", tx.Status))
			return m, nil
		}

		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Key("amount").
					Title("Amount").
					Placeholder(tx.Amount.String()).
					Validate(func(s string) error {
						a, err := money.Parse(s)
						if err != nil {
							return err
						}
						if !a.IsPositive() {
							return fmt.Errorf("amount must be positive")
						}
						return nil
					}),
			),
		).WithWidth(45).WithShowHelp(false)
	case listStateCancel:
		if tx.Status.Voided() {
			m.status = errorStyle("transaction is already voided")
			return m, nil
		}

		m.form = reasonForm("Cancel reason")
	}

	m.state = state
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == listStateCancel {
		return m, m.cancelCmd(m.selected(), m.form.GetString("reason"))
	}

	return m, m.editCmd(m.selected(), m.form.GetString("amount"))
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	statusLabel := "All"
	if s := statusFilters[m.statusFilterIdx]; s != "" {
		statusLabel = string(s)
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [d] Date: %s",
		activeStyle(statusLabel),
		activeStyle(m.period.String()),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.state != listStateBrowse && m.form != nil {
		title := "Edit Transaction"
		if m.state == listStateCancel {
			title = "Cancel Transaction"
		}

		invoice := ""
		if tx := m.selected(); tx != nil {
			invoice = tx.InvoiceNumber
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("%s\n\n%s\n\n%s", title, invoice, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) applyFilter(now time.Time) {
	m.filter.Status = nil
	if s := statusFilters[m.statusFilterIdx]; s != "" {
		m.filter.Status = new(s)
	}

	m.filter.StartDate, m.filter.EndDate = m.period.Range(now)
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.CreatedAt),
			tx.InvoiceNumber,
			string(tx.Status),
			FormatAmount(tx.Amount),
			FormatAmount(tx.RemainingBalance),
			FormatAmount(tx.RevokedAmount),
			tx.CustomerID.String(),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, m.Actor, m.filter)

		return loadListMsg{txs: txs, err: err}
	}
}

type listSaveMsg struct {
	err error
}

func (m ListModel) editCmd(tx *transaction.Transaction, raw string) tea.Cmd {
	if tx == nil {
		return nil
	}

	return func() tea.Msg {
		amount, err := money.Parse(raw)
		if err != nil {
			return listSaveMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		_, err = m.txService.Edit(ctx, m.Actor, tx.ID, transaction.EditParams{Amount: &amount})

		return listSaveMsg{err: err}
	}
}

func (m ListModel) cancelCmd(tx *transaction.Transaction, reason string) tea.Cmd {
	if tx == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.txService.Cancel(ctx, m.Actor, tx.ID, reason)

		return listSaveMsg{err: err}
	}
}
