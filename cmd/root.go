// Package cmd implements the costlens command-line interface.
package cmd

import (
	"os"

	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/config"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/routing"
	"github.com/Jrmromao/costlens/internal/savings"
	"github.com/Jrmromao/costlens/internal/store"
	"github.com/Jrmromao/costlens/internal/tracking"

	"github.com/spf13/cobra"
)

var (
	flagUser  string
	flagDays  int
	flagPlan  string
	flagDB    string
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:   "costlens",
	Short: "AI API cost tracking and cost-aware model routing",
	Long:  "Track AI API spend against plan budgets, route prompts to cheaper models, and account for the savings.",
	RunE:  runCosts,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id (empty = platform-wide where supported)")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Time window in days (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagPlan, "plan", "", "Plan tier: FREE, PRO, ENTERPRISE (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Ledger database path (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress decorative output")
}

// services bundles everything a command needs against one open ledger.
type services struct {
	cfg     config.Config
	ledger  *store.Ledger
	cat     *catalog.Catalog
	tracker *tracking.Tracker
	router  *routing.Router
	calc    *savings.Calculator
}

func (s *services) Close() {
	_ = s.ledger.Close()
}

// openServices loads config, opens the ledger, and wires the service layer.
// Flags override config values.
func openServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flagUser == "" {
		flagUser = cfg.General.DefaultUser
	}
	if flagDays <= 0 {
		flagDays = cfg.General.DefaultDays
	}
	if flagDays <= 0 {
		flagDays = 30
	}
	if flagPlan == "" {
		flagPlan = cfg.Routing.DefaultPlan
	}

	dbPath := flagDB
	if dbPath == "" {
		dbPath = config.DBPath(cfg)
	}

	ledger, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	cat := buildCatalog(cfg)
	tracker := tracking.NewTracker(ledger, cat, config.PlanLimitsFrom(cfg))
	router := routing.NewRouter(cat, ledger, ledger)
	calc := savings.NewCalculator(ledger, cat)

	return &services{
		cfg:     cfg,
		ledger:  ledger,
		cat:     cat,
		tracker: tracker,
		router:  router,
		calc:    calc,
	}, nil
}

// buildCatalog returns the default catalog with config pricing overrides
// applied.
func buildCatalog(cfg config.Config) *catalog.Catalog {
	cat := catalog.Default()
	for m, o := range cfg.Pricing.Overrides {
		r, _ := cat.Rate(m)
		if o.InputPerMTok != nil {
			r.InputPerMTok = *o.InputPerMTok
		}
		if o.OutputPerMTok != nil {
			r.OutputPerMTok = *o.OutputPerMTok
		}
		cat.OverrideRate(m, r)
	}
	return cat
}

func activePlan() model.PlanType {
	return model.ParsePlan(flagPlan)
}
