package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/benefits/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/benefits/internal/catalog/store"
	"github.com/MrJamesThe3rd/benefits/internal/config"
	"github.com/MrJamesThe3rd/benefits/internal/database"
	"github.com/MrJamesThe3rd/benefits/internal/export"
	"github.com/MrJamesThe3rd/benefits/internal/notify"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
	txStore "github.com/MrJamesThe3rd/benefits/internal/transaction/store"
)

type model struct {
	actor         transaction.Actor
	txService     *transaction.Service
	exportService *export.Service

	currentView View

	approvalsView view.ApprovalsModel
	listView      view.ListModel
	balanceView   view.BalanceModel
	exportView    view.ExportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewApprovals View = 1
	ViewList      View = 2
	ViewBalance   View = 3
	ViewExport    View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// The console decides on pre-authorizations, so it acts as an admin.
	actor := transaction.Actor{ID: cfg.Console.Actor, Role: transaction.RoleAdmin}

	txSvc := transaction.NewService(txStore.New(db), catalog.NewService(catalogStore.New(db)), notify.Nop{})
	expSvc := export.NewService(txSvc)

	return model{
		actor:         actor,
		txService:     txSvc,
		exportService: expSvc,
		currentView:   ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewApprovals
				m.approvalsView = view.NewApprovalsModel(m.actor, m.txService)

				return m, m.approvalsView.Init()
			case "2":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.actor, m.txService)

				return m, m.listView.Init()
			case "3":
				m.currentView = ViewBalance
				m.balanceView = view.NewBalanceModel(m.actor, m.txService)

				return m, m.balanceView.Init()
			case "4":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.actor, m.exportService)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewApprovals:
		var newModel tea.Model
		newModel, cmd = m.approvalsView.Update(msg)
		m.approvalsView = newModel.(view.ApprovalsModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewBalance:
		var newModel tea.Model
		newModel, cmd = m.balanceView.Update(msg)
		m.balanceView = newModel.(view.BalanceModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Benefits Back Office (" + m.actor.ID + ")\n\n" +
				"1. Pending Approvals\n" +
				"2. Transactions\n" +
				"3. Balance Lookup\n" +
				"4. Export Statement\n\n" +
				"q. Quit",
		)
	case ViewApprovals:
		return m.approvalsView.View()
	case ViewList:
		return m.listView.View()
	case ViewBalance:
		return m.balanceView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
