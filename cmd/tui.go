package cmd

import (
	"fmt"

	"github.com/Jrmromao/costlens/internal/billing"
	"github.com/Jrmromao/costlens/internal/config"
	"github.com/Jrmromao/costlens/internal/tui"
	"github.com/Jrmromao/costlens/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	theme.SetActive(svc.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes.
	// Without this, lipgloss may default to Ascii profile (no colors).
	lipgloss.SetColorProfile(termenv.TrueColor)

	var billingClient *billing.Client
	if key := config.GetBillingAPIKey(svc.cfg); key != "" {
		billingClient = billing.NewClient(key, svc.cfg.Billing.BaseURL)
	}

	app := tui.NewApp(tui.Deps{
		Config:  svc.cfg,
		Ledger:  svc.ledger,
		Catalog: svc.cat,
		Tracker: svc.tracker,
		Calc:    svc.calc,
		Billing: billingClient,
	}, flagUser, activePlan(), flagDays)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
