package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/docledger/docledger/internal/config"
	"github.com/docledger/docledger/internal/database"
	"github.com/docledger/docledger/internal/document"
	documentStore "github.com/docledger/docledger/internal/document/store"
	"github.com/docledger/docledger/internal/event"
	"github.com/docledger/docledger/internal/history"
	historyStore "github.com/docledger/docledger/internal/history/store"
	ledgerHttp "github.com/docledger/docledger/internal/http"
	documentHandler "github.com/docledger/docledger/internal/http/document"
	importHandler "github.com/docledger/docledger/internal/http/importcsv"
	orgHandler "github.com/docledger/docledger/internal/http/org"
	paymentHandler "github.com/docledger/docledger/internal/http/payment"
	"github.com/docledger/docledger/internal/importer"
	"github.com/docledger/docledger/internal/importer/bankcsv"
	"github.com/docledger/docledger/internal/org"
	orgStore "github.com/docledger/docledger/internal/org/store"
	"github.com/docledger/docledger/internal/payment"
	paymentStore "github.com/docledger/docledger/internal/payment/store"
)

func main() {
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
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var dispatcher event.Dispatcher = event.LogDispatcher{}
	if cfg.Notify.WebhookURL != "" {
		dispatcher = event.NewWebhookDispatcher(cfg.Notify.WebhookURL)
	}

	var (
		orgService      = org.NewService(orgStore.New(db))
		documentService = document.NewService(documentStore.New(db), orgService, dispatcher)
		paymentService  = payment.NewService(paymentStore.New(db), dispatcher)
		historyService  = history.NewService(historyStore.New(db))
		importService   = importer.NewService(bankcsv.New(), documentService, paymentService)
	)

	var (
		documentH = documentHandler.NewHandler(documentService, historyService)
		paymentH  = paymentHandler.NewHandler(paymentService)
		orgH      = orgHandler.NewHandler(orgService)
		importH   = importHandler.NewHandler(importService)
	)

	router := ledgerHttp.New(cfg.Auth.JWTSecret, documentH, paymentH, orgH, importH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
