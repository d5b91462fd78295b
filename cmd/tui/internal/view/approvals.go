package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type approvalState int

const (
	approvalStateLoading approvalState = iota
	approvalStateDeciding
	approvalStateRevoking
	approvalStateDone
)

// ApprovalsModel walks the queue of transactions waiting for an admin decision.
type ApprovalsModel struct {
	CommonModel
	txService *transaction.Service

	state      approvalState
	queue      []*transaction.Transaction
	currentTx  *transaction.Transaction
	totalCount int
	form       *huh.Form

	approved int
	revoked  int
	status   string
}

func NewApprovalsModel(actor transaction.Actor, txSvc *transaction.Service) ApprovalsModel {
	return ApprovalsModel{
		CommonModel: CommonModel{Actor: actor},
		txService:   txSvc,
	}
}

func (m ApprovalsModel) Title() string { return "Pending Approvals" }

func (m ApprovalsModel) ShortHelp() string {
	if m.state == approvalStateRevoking {
		return "Enter: revoke | Esc: cancel"
	}

	return "a: approve | r: revoke | s: skip | Esc: back"
}

func (m ApprovalsModel) Init() tea.Cmd {
	return m.loadPendingCmd()
}

func (m ApprovalsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadPendingMsg:
		if msg.err != nil {
			m.state = approvalStateDone
			m.status = fmt.Sprintf("Error loading queue: %v", msg.err)

			return m, nil
		}

		m.queue = msg.txs
		m.totalCount = len(msg.txs)
		m.next()

		return m, nil

	case decisionMsg:
		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
			m.state = approvalStateDeciding

			return m, nil
		}

		if msg.tx.Status == transaction.StatusRevoked {
			m.revoked++
		} else {
			m.approved++
		}

		m.next()

		return m, nil
	}

	switch m.state {
	case approvalStateDeciding:
		return m.updateDeciding(msg)
	case approvalStateRevoking:
		return m.updateRevoking(msg)
	case approvalStateDone, approvalStateLoading:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ApprovalsModel) updateDeciding(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "a":
		return m, m.approveCmd(m.currentTx)
	case "s":
		m.next()
	case "r":
		m.form = reasonForm("Revoke reason")
		m.state = approvalStateRevoking

		return m, m.form.Init()
	}

	return m, nil
}

func (m ApprovalsModel) updateRevoking(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = approvalStateDeciding
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	reason := m.form.GetString("reason")
	m.form = nil
	m.state = approvalStateDeciding

	return m, m.revokeCmd(m.currentTx, reason)
}

func (m *ApprovalsModel) next() {
	if len(m.queue) == 0 {
		m.currentTx = nil
		m.state = approvalStateDone
		m.status = fmt.Sprintf("Queue empty. Approved %d, revoked %d.", m.approved, m.revoked)

		return
	}

	m.currentTx = m.queue[0]
	m.queue = m.queue[1:]
	m.state = approvalStateDeciding
	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)
}

func (m ApprovalsModel) View() string {
	switch m.state {
	case approvalStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Loading pending transactions...")
	case approvalStateDone:
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	tx := m.currentTx

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.status)
	fmt.Fprintf(&b, "Invoice:   %s\n", tx.InvoiceNumber)
	fmt.Fprintf(&b, "Date:      %s\n", FormatDate(tx.CreatedAt))
	fmt.Fprintf(&b, "Customer:  %s\n", tx.CustomerID)
	fmt.Fprintf(&b, "Service:   %s\n", tx.ServiceID)
	fmt.Fprintf(&b, "Amount:    %s\n", activeStyle(FormatAmount(tx.Amount)))
	fmt.Fprintf(&b, "Remaining: %s\n", FormatAmount(tx.RemainingBalance))
	fmt.Fprintf(&b, "Created by %s\n", tx.CreatedBy)

	content := b.String()

	if m.state == approvalStateRevoking && m.form != nil {
		content += "\n" + m.form.View()
	} else {
		content += "\n" + lipgloss.NewStyle().Faint(true).Render(m.ShortHelp())
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

// reasonForm asks for the mandatory reason of a revoke or cancel.
func reasonForm(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("reason").
				Title(title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("reason cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

// Messages

type loadPendingMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ApprovalsModel) loadPendingCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, m.Actor, transaction.ListFilter{Status: new(transaction.StatusPending)})

		return loadPendingMsg{txs: txs, err: err}
	}
}

type decisionMsg struct {
	tx  *transaction.Transaction
	err error
}

func (m ApprovalsModel) approveCmd(tx *transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.txService.Approve(ctx, m.Actor, tx.ID)

		return decisionMsg{tx: updated, err: err}
	}
}

func (m ApprovalsModel) revokeCmd(tx *transaction.Transaction, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.txService.Revoke(ctx, m.Actor, tx.ID, reason)

		return decisionMsg{tx: updated, err: err}
	}
}
