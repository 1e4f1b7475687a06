package cmd

import (
	"fmt"
	"os"

	"github.com/Jrmromao/costlens/internal/config"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(config.ConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("# %s\n", config.ConfigPath())
	if !config.Exists() {
		fmt.Println("# (file not found — showing defaults)")
	}
	fmt.Printf("# ledger: %s\n\n", config.DBPath(cfg))

	// Never echo the billing key.
	cfg.Billing.APIKey = ""

	enc := toml.NewEncoder(os.Stdout)
	return enc.Encode(cfg)
}
