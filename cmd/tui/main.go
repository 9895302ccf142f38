package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/docledger/docledger/cmd/tui/internal/view"
	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/config"
	"github.com/docledger/docledger/internal/database"
	"github.com/docledger/docledger/internal/document"
	documentStore "github.com/docledger/docledger/internal/document/store"
	"github.com/docledger/docledger/internal/event"
	"github.com/docledger/docledger/internal/org"
	orgStore "github.com/docledger/docledger/internal/org/store"
	"github.com/docledger/docledger/internal/payment"
	paymentStore "github.com/docledger/docledger/internal/payment/store"
)

type model struct {
	docService *document.Service
	paySvc     *payment.Service
	actor      authority.Actor

	currentView View

	queueView     view.QueueModel
	documentsView view.DocumentsModel
	paymentsView  view.PaymentsModel
}

type View int

const (
	ViewMenu      View = 0
	ViewQueue     View = 1
	ViewDocuments View = 2
	ViewPayments  View = 3
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

	actor, err := operatorActor(cfg)
	if err != nil {
		slog.Error("invalid operator settings", "error", err)
		os.Exit(1)
	}

	orgSvc := org.NewService(orgStore.New(db))
	docSvc := document.NewService(documentStore.New(db), orgSvc, event.LogDispatcher{})
	paySvc := payment.NewService(paymentStore.New(db), event.LogDispatcher{})

	return model{
		docService:    docSvc,
		paySvc:        paySvc,
		actor:         actor,
		currentView:   ViewMenu,
		queueView:     view.NewQueueModel(docSvc, actor),
		documentsView: view.NewDocumentsModel(docSvc, actor),
		paymentsView:  view.NewPaymentsModel(docSvc, paySvc, actor),
	}
}

func operatorActor(cfg *config.Config) (authority.Actor, error) {
	actorID, err := uuid.Parse(cfg.TUI.ActorID)
	if err != nil {
		return authority.Actor{}, err
	}

	orgID, err := uuid.Parse(cfg.TUI.OrgID)
	if err != nil {
		return authority.Actor{}, err
	}

	return authority.Actor{
		ID:    actorID,
		Role:  authority.Role(cfg.TUI.Role),
		OrgID: orgID,
	}, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewQueue
				m.queueView = view.NewQueueModel(m.docService, m.actor)

				return m, m.queueView.Init()
			case "2":
				m.currentView = ViewDocuments
				m.documentsView = view.NewDocumentsModel(m.docService, m.actor)

				return m, m.documentsView.Init()
			case "3":
				m.currentView = ViewPayments
				m.paymentsView = view.NewPaymentsModel(m.docService, m.paySvc, m.actor)

				return m, m.paymentsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewQueue:
		var newModel tea.Model
		newModel, cmd = m.queueView.Update(msg)
		m.queueView = newModel.(view.QueueModel)
	case ViewDocuments:
		var newModel tea.Model
		newModel, cmd = m.documentsView.Update(msg)
		m.documentsView = newModel.(view.DocumentsModel)
	case ViewPayments:
		var newModel tea.Model
		newModel, cmd = m.paymentsView.Update(msg)
		m.paymentsView = newModel.(view.PaymentsModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"DocLedger Console\n\n" +
				"1. Approvals Queue\n" +
				"2. Browse Documents\n" +
				"3. Record Payment\n\n" +
				"q. Quit",
		)
	case ViewQueue:
		return m.queueView.View()
	case ViewDocuments:
		return m.documentsView.View()
	case ViewPayments:
		return m.paymentsView.View()
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
