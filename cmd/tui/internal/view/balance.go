package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/money"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

// BalanceModel looks up the remaining balance of one customer service.
type BalanceModel struct {
	CommonModel
	txService *transaction.Service

	form   *huh.Form
	result string
	err    error
}

func NewBalanceModel(actor transaction.Actor, txSvc *transaction.Service) BalanceModel {
	return BalanceModel{
		CommonModel: CommonModel{Actor: actor},
		txService:   txSvc,
		form:        balanceForm(),
	}
}

func balanceForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("customer").Title("Customer ID").Validate(validUUID),
			huh.NewInput().Key("plan").Title("Plan ID").Description("Leave empty for the customer's plan").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return validUUID(s)
				}),
			huh.NewInput().Key("service").Title("Service ID").Validate(validUUID),
		),
	).WithWidth(50).WithShowHelp(false)
}

func validUUID(s string) error {
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("not a valid id")
	}

	return nil
}

func (m BalanceModel) Title() string { return "Balance Lookup" }

func (m BalanceModel) ShortHelp() string { return "Enter: next | Esc: back" }

func (m BalanceModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m BalanceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case balanceMsg:
		m.err = msg.err
		m.result = ""

		if msg.err == nil {
			m.result = fmt.Sprintf("Remaining balance: %s", activeStyle(FormatAmount(msg.remaining)))
		}

		m.form = balanceForm()

		return m, m.form.Init()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.lookupCmd(m.form.GetString("customer"), m.form.GetString("plan"), m.form.GetString("service"))
}

func (m BalanceModel) View() string {
	content := m.form.View()

	if m.err != nil {
		content = errorStyle(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + content
	} else if m.result != "" {
		content = m.result + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

type balanceMsg struct {
	remaining money.Amount
	err       error
}

func (m BalanceModel) lookupCmd(customer, plan, service string) tea.Cmd {
	return func() tea.Msg {
		// The form validated the ids already.
		customerID, _ := uuid.Parse(customer)
		serviceID, _ := uuid.Parse(service)

		planID := uuid.Nil
		if plan != "" {
			planID, _ = uuid.Parse(plan)
		}

		ctx, cancel := DbCtx()
		defer cancel()

		remaining, err := m.txService.AvailableBalance(ctx, m.Actor, customerID, planID, serviceID)

		return balanceMsg{remaining: remaining, err: err}
	}
}
