package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
)

type queueState int

const (
	queueStateBrowse queueState = iota
	queueStateReject
)

// QueueModel is the approvals queue: every submitted document in the
// organization, with approve/reject and bulk approval at hand.
type QueueModel struct {
	CommonModel
	docService *document.Service
	actor      authority.Actor

	state queueState
	table table.Model
	docs  []*document.Document
	form  *huh.Form

	loading bool
	err     error
	status  string

	formReason string
}

func NewQueueModel(docSvc *document.Service, actor authority.Actor) QueueModel {
	columns := []table.Column{
		{Title: "Number", Width: 12},
		{Title: "Type", Width: 15},
		{Title: "Submitted", Width: 12},
		{Title: "Total", Width: 12},
		{Title: "Counterparty", Width: 38},
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

	return QueueModel{
		docService: docSvc,
		actor:      actor,
		table:      t,
	}
}

func (m QueueModel) Title() string { return "Approvals Queue" }
func (m QueueModel) ShortHelp() string {
	if m.state == queueStateReject {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | a: approve | x: reject | A: approve all | r: refresh"
}

func (m QueueModel) Init() tea.Cmd {
	return m.loadQueueCmd()
}

func (m QueueModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case queueLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.docs = msg.docs
		m.refreshTable()
		return m, nil

	case queueActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.report
		}
		m.state = queueStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadQueueCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case queueStateBrowse:
		return m.updateBrowse(msg)
	case queueStateReject:
		return m.updateReject(msg)
	}

	return m, nil
}

func (m QueueModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadQueueCmd()
		case "a":
			if doc := m.selected(); doc != nil {
				return m, m.approveCmd(doc.ID)
			}
		case "x":
			return m.enterRejectMode()
		case "A":
			if len(m.docs) > 0 {
				return m, m.bulkApproveCmd()
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m QueueModel) selected() *document.Document {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.docs) {
		return nil
	}

	return m.docs[idx]
}

func (m QueueModel) enterRejectMode() (tea.Model, tea.Cmd) {
	if m.selected() == nil {
		return m, nil
	}

	m.formReason = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("reason").
				Title("Rejection reason").
				Value(&m.formReason).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a reason is required")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = queueStateReject
	m.table.Blur()
	return m, m.form.Init()
}

func (m QueueModel) updateReject(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = queueStateBrowse
			m.form = nil
			m.table.Focus()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	doc := m.selected()
	if doc == nil {
		return m, nil
	}

	return m, m.rejectCmd(doc.ID, m.formReason)
}

func (m QueueModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading queue...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := tableView

	if m.state == queueStateReject && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render("Reject Document\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *QueueModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.docs))
	for _, doc := range m.docs {
		submitted := ""
		if doc.SubmittedAt != nil {
			submitted = FormatDate(*doc.SubmittedAt)
		}

		rows = append(rows, table.Row{
			doc.Number,
			string(doc.Type),
			submitted,
			FormatAmount(doc.TotalAmount),
			doc.CounterpartyID.String(),
		})
	}
	m.table.SetRows(rows)
}

// Messages

type queueLoadMsg struct {
	docs []*document.Document
	err  error
}

func (m QueueModel) loadQueueCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		docs, err := m.docService.List(ctx, document.ListFilter{
			OrgID:  m.actor.OrgID,
			Status: new(document.StatusSubmitted),
		})
		return queueLoadMsg{docs: docs, err: err}
	}
}

type queueActionMsg struct {
	report string
	err    error
}

func (m QueueModel) approveCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		doc, err := m.docService.Approve(ctx, m.actor, id)
		if err != nil {
			return queueActionMsg{err: err}
		}

		return queueActionMsg{report: fmt.Sprintf("Approved %s", doc.Number)}
	}
}

func (m QueueModel) rejectCmd(id uuid.UUID, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		doc, err := m.docService.Reject(ctx, m.actor, id, reason)
		if err != nil {
			return queueActionMsg{err: err}
		}

		return queueActionMsg{report: fmt.Sprintf("Rejected %s", doc.Number)}
	}
}

func (m QueueModel) bulkApproveCmd() tea.Cmd {
	ids := make([]uuid.UUID, len(m.docs))
	for i, doc := range m.docs {
		ids[i] = doc.ID
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		result := m.docService.BulkApprove(ctx, m.actor, ids)

		return queueActionMsg{
			report: fmt.Sprintf("Approved %d, failed %d", len(result.Succeeded), len(result.Failed)),
		}
	}
}
