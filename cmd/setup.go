package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jrmromao/costlens/internal/config"
	"github.com/Jrmromao/costlens/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults so re-running preserves values
	cfg, _ := config.Load()

	defaultUser := cfg.General.DefaultUser
	days := strconv.Itoa(cfg.General.DefaultDays)
	if cfg.General.DefaultDays == 0 {
		days = "30"
	}
	plan := cfg.Routing.DefaultPlan
	if plan == "" {
		plan = "FREE"
	}
	themeName := cfg.Appearance.Theme
	if themeName == "" {
		themeName = "flexoki-dark"
	}
	billingKey := cfg.Billing.APIKey

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(th.Name, th.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default user").
				Description("User id for commands run without --user. Leave blank for the platform-wide view.").
				Value(&defaultUser),
			huh.NewSelect[string]().
				Title("Default time range").
				Options(
					huh.NewOption("7 days", "7"),
					huh.NewOption("30 days", "30"),
					huh.NewOption("90 days", "90"),
				).
				Value(&days),
			huh.NewSelect[string]().
				Title("Default plan tier").
				Description("Monthly spend ceiling applied when --plan is not given.").
				Options(
					huh.NewOption("FREE   ($1.25/mo)", "FREE"),
					huh.NewOption("PRO    ($25/mo)", "PRO"),
					huh.NewOption("ENTERPRISE ($500/mo)", "ENTERPRISE"),
				).
				Value(&plan),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
			huh.NewInput().
				Title("Billing API key").
				Description("Optional. For reconciling ledger estimates against billed actuals. COSTLENS_BILLING_KEY overrides this.").
				EchoMode(huh.EchoModePassword).
				Value(&billingKey),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.General.DefaultUser = strings.TrimSpace(defaultUser)
	if n, err := strconv.Atoi(days); err == nil && n > 0 {
		cfg.General.DefaultDays = n
	}
	cfg.Routing.DefaultPlan = plan
	cfg.Appearance.Theme = themeName
	cfg.Billing.APIKey = strings.TrimSpace(billingKey)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `costlens setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
