package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
)

// DocumentsModel is the read-only browser over all documents, with
// cycling status and type filters.
type DocumentsModel struct {
	CommonModel
	docService *document.Service
	actor      authority.Actor

	table table.Model
	docs  []*document.Document

	statusFilterIdx int
	typeFilterIdx   int
	filter          document.ListFilter

	loading bool
	err     error
}

var statusFilters = []*document.Status{
	nil,
	new(document.StatusDraft),
	new(document.StatusSubmitted),
	new(document.StatusApproved),
	new(document.StatusRejected),
	new(document.StatusSent),
	new(document.StatusReceived),
	new(document.StatusPaid),
}

var typeFilters = []*document.Type{
	nil,
	new(document.TypeInvoice),
	new(document.TypePurchaseOrder),
}

func NewDocumentsModel(docSvc *document.Service, actor authority.Actor) DocumentsModel {
	columns := []table.Column{
		{Title: "Number", Width: 12},
		{Title: "Type", Width: 15},
		{Title: "Status", Width: 18},
		{Title: "Total", Width: 12},
		{Title: "Paid", Width: 12},
		{Title: "Created", Width: 12},
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

	return DocumentsModel{
		docService: docSvc,
		actor:      actor,
		table:      t,
		filter:     document.ListFilter{OrgID: actor.OrgID},
	}
}

func (m DocumentsModel) Title() string { return "Documents" }
func (m DocumentsModel) ShortHelp() string {
	return "Esc: back | s: status filter | t: type filter | r: refresh"
}

func (m DocumentsModel) Init() tea.Cmd {
	return m.loadDocsCmd()
}

func (m DocumentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case docsLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.docs = msg.docs
		m.refreshTable()
		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadDocsCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(statusFilters)
			m.filter.Status = statusFilters[m.statusFilterIdx]
			return m, m.loadDocsCmd()
		case "t":
			m.typeFilterIdx = (m.typeFilterIdx + 1) % len(typeFilters)
			m.filter.Type = typeFilters[m.typeFilterIdx]
			return m, m.loadDocsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m DocumentsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading documents...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabel := "All"
	if f := statusFilters[m.statusFilterIdx]; f != nil {
		statusLabel = string(*f)
	}

	typeLabel := "All"
	if f := typeFilters[m.typeFilterIdx]; f != nil {
		typeLabel = string(*f)
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [t] Type: %s",
		activeStyle(statusLabel),
		activeStyle(typeLabel),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *DocumentsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.docs))
	for _, doc := range m.docs {
		rows = append(rows, table.Row{
			doc.Number,
			string(doc.Type),
			string(doc.Status),
			FormatAmount(doc.TotalAmount),
			FormatAmount(doc.PaidAmount),
			FormatDate(doc.CreatedAt),
		})
	}
	m.table.SetRows(rows)
}

type docsLoadMsg struct {
	docs []*document.Document
	err  error
}

func (m DocumentsModel) loadDocsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		docs, err := m.docService.List(ctx, m.filter)
		return docsLoadMsg{docs: docs, err: err}
	}
}
