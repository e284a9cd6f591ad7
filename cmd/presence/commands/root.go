package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	settingsFile string
	env          string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "presence",
	Short: "Dashboard de présence produits",
	Long: `Presence Dashboard CLI

Audit de présence des produits dans le réseau de points de vente.
Charge les observations, les produits et les points de vente, puis
agrège par marque, segment, zone, date et produit.

Usage:
  go run ./cmd/presence [command]

Examples:
  go run ./cmd/presence serve
  go run ./cmd/presence report --page dashboard --marque A --marque B
  go run ./cmd/presence test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "YAML settings file (default: SETTINGS_FILE or built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
