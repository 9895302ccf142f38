package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/payment"
)

type paymentsState int

const (
	paymentsStateBrowse paymentsState = iota
	paymentsStateEntry
)

// PaymentsModel records payments against payment-eligible documents.
// The browse list shows every sent invoice and received purchase order
// with its remaining balance.
type PaymentsModel struct {
	CommonModel
	docService *document.Service
	paySvc     *payment.Service
	actor      authority.Actor

	state paymentsState
	table table.Model
	docs  []*document.Document
	form  *huh.Form

	loading bool
	err     error
	status  string

	formAmount    string
	formMethod    string
	formReference string
}

func NewPaymentsModel(docSvc *document.Service, paySvc *payment.Service, actor authority.Actor) PaymentsModel {
	columns := []table.Column{
		{Title: "Number", Width: 12},
		{Title: "Type", Width: 15},
		{Title: "Total", Width: 12},
		{Title: "Paid", Width: 12},
		{Title: "Remaining", Width: 12},
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

	return PaymentsModel{
		docService: docSvc,
		paySvc:     paySvc,
		actor:      actor,
		table:      t,
	}
}

func (m PaymentsModel) Title() string { return "Record Payment" }
func (m PaymentsModel) ShortHelp() string {
	if m.state == paymentsStateEntry {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | enter: record payment | r: refresh"
}

func (m PaymentsModel) Init() tea.Cmd {
	return m.loadOpenCmd()
}

func (m PaymentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case openDocsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.docs = msg.docs
		m.refreshTable()
		return m, nil

	case paymentSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.report
		}
		m.state = paymentsStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadOpenCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case paymentsStateBrowse:
		return m.updateBrowse(msg)
	case paymentsStateEntry:
		return m.updateEntry(msg)
	}

	return m, nil
}

func (m PaymentsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadOpenCmd()
		case "enter":
			return m.enterPaymentMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m PaymentsModel) selected() *document.Document {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.docs) {
		return nil
	}

	return m.docs[idx]
}

func (m PaymentsModel) enterPaymentMode() (tea.Model, tea.Cmd) {
	doc := m.selected()
	if doc == nil {
		return m, nil
	}

	remaining := doc.TotalAmount - doc.PaidAmount
	m.formAmount = FormatAmount(remaining)
	m.formMethod = string(payment.MethodTransfer)
	m.formReference = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Value(&m.formAmount).
				Validate(func(s string) error {
					cents, err := parseAmountInput(s)
					if err != nil {
						return fmt.Errorf("enter an amount like 123.45")
					}
					if cents <= 0 {
						return fmt.Errorf("amount must be positive")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("method").
				Title("Method").
				Options(
					huh.NewOption("Bank transfer", string(payment.MethodTransfer)),
					huh.NewOption("Card", string(payment.MethodCard)),
					huh.NewOption("Cash", string(payment.MethodCash)),
					huh.NewOption("Cheque", string(payment.MethodCheque)),
					huh.NewOption("Other", string(payment.MethodOther)),
				).
				Value(&m.formMethod),

			huh.NewInput().
				Key("reference").
				Title("Reference").
				Placeholder("optional").
				Value(&m.formReference),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = paymentsStateEntry
	m.table.Blur()
	return m, m.form.Init()
}

func (m PaymentsModel) updateEntry(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = paymentsStateBrowse
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

	cents, err := parseAmountInput(m.formAmount)
	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
		m.state = paymentsStateBrowse
		m.form = nil
		m.table.Focus()
		return m, nil
	}

	return m, m.recordCmd(doc, cents)
}

func (m PaymentsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading open documents...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := tableView

	if m.state == paymentsStateEntry && m.form != nil {
		title := "Record Payment"
		if doc := m.selected(); doc != nil {
			title = fmt.Sprintf("Record Payment for %s\nRemaining: %s",
				doc.Number, FormatAmount(doc.TotalAmount-doc.PaidAmount))
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *PaymentsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.docs))
	for _, doc := range m.docs {
		rows = append(rows, table.Row{
			doc.Number,
			string(doc.Type),
			FormatAmount(doc.TotalAmount),
			FormatAmount(doc.PaidAmount),
			FormatAmount(doc.TotalAmount - doc.PaidAmount),
		})
	}
	m.table.SetRows(rows)
}

// parseAmountInput converts "123.45" style input into cents.
func parseAmountInput(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	return int64(val*100 + 0.5), nil
}

// Messages

type openDocsMsg struct {
	docs []*document.Document
	err  error
}

// loadOpenCmd lists the payment-eligible documents: sent invoices and
// received purchase orders.
func (m PaymentsModel) loadOpenCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		sent, err := m.docService.List(ctx, document.ListFilter{
			OrgID:  m.actor.OrgID,
			Type:   new(document.TypeInvoice),
			Status: new(document.StatusSent),
		})
		if err != nil {
			return openDocsMsg{err: err}
		}

		received, err := m.docService.List(ctx, document.ListFilter{
			OrgID:  m.actor.OrgID,
			Type:   new(document.TypePurchaseOrder),
			Status: new(document.StatusReceived),
		})
		if err != nil {
			return openDocsMsg{err: err}
		}

		return openDocsMsg{docs: append(sent, received...)}
	}
}

type paymentSavedMsg struct {
	report string
	err    error
}

func (m PaymentsModel) recordCmd(doc *document.Document, cents int64) tea.Cmd {
	method := payment.Method(m.formMethod)
	reference := m.formReference

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.paySvc.ApplyPayment(ctx, m.actor, payment.ApplyParams{
			DocumentID: doc.ID,
			Amount:     cents,
			Method:     method,
			Reference:  reference,
		})
		if err != nil {
			return paymentSavedMsg{err: err}
		}

		return paymentSavedMsg{
			report: fmt.Sprintf("Recorded %s on %s, status %s", FormatAmount(cents), doc.Number, res.NewStatus),
		}
	}
}
