package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-portal/internal/api"
	"github.com/magabrotheeeer/subscription-portal/internal/checkout"
	"github.com/magabrotheeeer/subscription-portal/internal/config"
	"github.com/magabrotheeeer/subscription-portal/internal/models"
	"github.com/magabrotheeeer/subscription-portal/internal/reconcile"
	"github.com/magabrotheeeer/subscription-portal/internal/session"
	"github.com/magabrotheeeer/subscription-portal/internal/storage"
	"github.com/magabrotheeeer/subscription-portal/internal/tui"
)

var (
	ephemeral    bool
	fromCheckout bool
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Terminal client for the subscription portal",
	Long: "portal lets you browse plans, create an account, subscribe through the\n" +
		"billing provider and manage your subscription from the terminal.",
	RunE: run,
}

func init() {
	rootCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "do not persist the session across restarts")
	rootCmd.Flags().BoolVar(&fromCheckout, "from-checkout", false, "start on the dashboard with the checkout confirmation")
}

// tokenSource отдаёт клиенту API токен из хранилища сессии.
// Разрывает цикл сборки: клиент создается раньше хранилища.
type tokenSource struct {
	sessions *session.Store
}

func (t *tokenSource) Token() string {
	if t.sessions == nil {
		return ""
	}
	return t.sessions.Token()
}

func run(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting subscription-portal", slog.String("env", cfg.Env))

	var db storage.Store
	if ephemeral {
		db = storage.NewMemoryStore()
	} else {
		fileStore, err := storage.NewFileStore(cfg.Path)
		if err != nil {
			return err
		}
		db = fileStore
	}

	tokens := &tokenSource{}
	client := api.NewClient(cfg.BaseURL, cfg.Timeout, cfg.RequestsPerSecond, cfg.Burst, tokens)

	sessions, err := session.New(logger, client, db)
	if err != nil {
		return err
	}
	tokens.sessions = sessions

	app := tui.App{
		Log:        logger,
		Sessions:   sessions,
		Catalog:    client,
		Billing:    client,
		Handoff:    checkout.New(logger, db, client),
		Reconciler: reconcile.New(logger, client, sessions),
	}

	program := tea.NewProgram(tui.NewModel(app), tea.WithAltScreen())

	// Мост уведомлений: фоновые обновления сессии доходят до экранов
	sessions.Subscribe(func(sess models.Session) {
		go program.Send(tui.SessionChangedMsg{Session: sess})
	})

	if fromCheckout {
		go program.Send(tui.NavigateDashboardAfterCheckout())
	}

	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
