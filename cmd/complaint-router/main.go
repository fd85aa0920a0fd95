package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/complaint-router/internal/classifier"
	"github.com/ajitpratap0/complaint-router/internal/config"
	"github.com/ajitpratap0/complaint-router/internal/department"
	"github.com/ajitpratap0/complaint-router/internal/insights"
	"github.com/ajitpratap0/complaint-router/internal/intake"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

var (
	cfg        *config.Config
	configFile string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "complaint-router",
		Short: "complaint-router: keyword classification and SLA routing for complaints",
		Long:  "Classifies free-text complaints into categories and priorities, routes them to departments with SLA deadlines, and reports recurring patterns.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ~/.complaint-router/config.yaml or ./config.yaml)")

	rootCmd.AddCommand(
		classifyCmd(),
		keywordsCmd(),
		sentimentCmd(),
		submitCmd(),
		listCmd(),
		getCmd(),
		statusCmd(),
		reassignCmd(),
		departmentsCmd(),
		slaCmd(),
		insightsCmd(),
		notificationsCmd(),
		statsCmd(),
		healthCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newStore opens the configured backend and makes sure its schema exists.
func newStore(ctx context.Context, logger *slog.Logger) (store.Store, error) {
	if cfg.Store.Backend != config.BackendNeo4j {
		logger.Debug("using in-memory store; data is lost on exit")
		return store.NewMemoryStore(), nil
	}
	st, err := store.NewNeo4jStore(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return st, nil
}

func newClassifier(logger *slog.Logger) (*classifier.Classifier, error) {
	if cfg.Classifier.DictionaryPath == "" {
		return classifier.NewClassifier(nil, logger), nil
	}
	dict, err := classifier.LoadDictionary(cfg.Classifier.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}
	logger.Info("loaded keyword dictionary", "path", cfg.Classifier.DictionaryPath)
	return classifier.NewClassifier(dict, logger), nil
}

// newNarrator returns the Claude narrator when an API key is configured and
// the offline template otherwise.
func newNarrator(logger *slog.Logger) insights.Narrator {
	if cfg.Claude.APIKey == "" {
		return insights.TemplateNarrator{}
	}
	return insights.NewClaudeNarrator(cfg.Claude.APIKey, cfg.Claude.Model, logger)
}

// app bundles the services most commands need.
type app struct {
	logger      *slog.Logger
	store       store.Store
	classifier  *classifier.Classifier
	complaints  *intake.Service
	departments *department.Service
	reporter    *insights.Reporter
}

func newApp(ctx context.Context, name string) (*app, error) {
	logger := newLogger()
	cls, err := newClassifier(logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	st, err := newStore(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: connecting to store: %w", name, err)
	}
	return &app{
		logger:      logger,
		store:       st,
		classifier:  cls,
		complaints:  intake.NewService(st, cls, cfg.SLA.DefaultHours, logger),
		departments: department.NewService(st, logger),
		reporter:    insights.NewReporter(st, newNarrator(logger), logger),
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
}
