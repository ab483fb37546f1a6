// Package commands implements the quotation CLI.
package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cityfire/quotation-engine/internal/cache"
	"github.com/cityfire/quotation-engine/internal/config"
	"github.com/cityfire/quotation-engine/internal/extract"
	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/reconcile"
	"github.com/cityfire/quotation-engine/internal/storage"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "quotation",
	Short: "Quotation engine CLI for catalog management, document extraction and export",
	Long: `The quotation CLI manages the fire-safety product catalog, extracts line
items from uploaded quotation documents, estimates market rates, and
exports quotations as formatted spreadsheets.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(ratesCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles the lazily constructed service dependencies shared by
// commands.
type app struct {
	cfg    *config.Config
	logger *observability.Logger
	db     *sql.DB
	repos  *storage.Repositories
}

func newApp(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = cfg.Observability.LogLevel
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		ServiceName: "quotation-cli",
	})

	openCfg := storage.OpenConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.DatabaseDSN(),
	}
	if cfg.Database.Driver == "postgres" {
		openCfg.MaxOpenConns = cfg.Database.Postgres.MaxOpenConns
		openCfg.MaxIdleConns = cfg.Database.Postgres.MaxIdleConns
		openCfg.ConnMaxLifetime = cfg.Database.Postgres.ConnMaxLifetime
	} else {
		openCfg.MaxOpenConns = cfg.Database.SQLite.MaxOpenConns
	}

	db, err := storage.Open(ctx, openCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repos:  storage.NewRepositories(db),
	}, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) oracle(ctx context.Context) (*extract.GeminiOracle, error) {
	apiKey := a.cfg.OracleAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set", a.cfg.Oracle.APIKeyEnv)
	}
	return extract.NewGeminiOracle(ctx, apiKey)
}

func (a *app) oracleConfig() extract.Config {
	return extract.Config{
		Models:      a.cfg.Oracle.Models,
		MaxAttempts: a.cfg.Oracle.MaxAttempts,
		BackoffBase: a.cfg.Oracle.BackoffBase,
	}
}

func (a *app) reconciler() *reconcile.Reconciler {
	classifier := reconcile.NewClassifier(a.cfg.Matcher.StructuralKeywords)
	matcher := reconcile.NewMatcher(reconcile.MatcherConfig{
		ScoreThreshold: a.cfg.Matcher.ScoreThreshold,
		BrandBonus:     a.cfg.Matcher.BrandBonus,
		Brands:         a.cfg.Matcher.Brands,
		SpecUnits:      a.cfg.Matcher.SpecUnits,
	})
	return reconcile.New(classifier, matcher, a.repos.Products, a.logger)
}

func (a *app) memCache() cache.Client {
	return cache.NewMemoryClient(a.cfg.Cache.MaxEntries)
}
