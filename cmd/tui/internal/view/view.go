package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views. Actor is who the console acts as.
type CommonModel struct {
	Actor transaction.Actor
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
