package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/export"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type exportState int

const (
	exportStateForm exportState = iota
	exportStateExporting
	exportStateResult
)

var exportPeriods = []Period{PeriodThisMonth, PeriodLastMonth, PeriodLast90Days, PeriodAll}

type ExportModel struct {
	CommonModel
	exportService *export.Service

	state   exportState
	err     error
	form    *huh.Form
	spinner spinner.Model
	file    string
	summary string
}

func NewExportModel(actor transaction.Actor, svc *export.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		CommonModel:   CommonModel{Actor: actor},
		exportService: svc,
		form:          exportForm(),
		spinner:       s,
	}
}

func exportForm() *huh.Form {
	options := make([]huh.Option[int], len(exportPeriods))
	for i, p := range exportPeriods {
		options[i] = huh.NewOption(p.String(), i)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().Key("period").Title("Period").Options(options...),
			huh.NewInput().
				Key("customer").
				Title("Customer ID").
				Description("Leave empty for every customer").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return validUUID(s)
				}),
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports"),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) Title() string { return "Export Statement" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case exportStateForm:
		return m.updateForm(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	filter := transaction.ListFilter{}
	filter.StartDate, filter.EndDate = exportPeriods[m.form.GetInt("period")].Range(time.Now())

	if s := m.form.GetString("customer"); s != "" {
		id, _ := uuid.Parse(s)
		filter.CustomerID = &id
	}

	dir := m.form.GetString("path")
	if dir == "" {
		dir = "./exports"
	}

	m.state = exportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(filter, dir))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.file = result.file
		m.summary = result.summary

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Building statement...", m.spinner.View()),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Written to "+m.file,
			"",
			m.summary,
		),
	)
}

type exportResultMsg struct {
	file    string
	summary string
	err     error
}

const exportTimeout = 2 * time.Minute

func (m ExportModel) runExportCmd(filter transaction.ListFilter, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		st, err := m.exportService.Export(ctx, m.Actor, filter)
		if err != nil {
			return exportResultMsg{err: err}
		}

		file, err := writeStatementZip(m.exportService, st, dir)
		if err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{file: file, summary: m.exportService.Summary(st)}
	}
}

func writeStatementZip(svc *export.Service, st *export.Statement, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("statement_%s.zip", time.Now().Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := svc.WriteZip(f, st); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}

	return path, nil
}
