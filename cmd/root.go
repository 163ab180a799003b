package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global flags
	cfgFile string
	project string
)

var rootCmd = &cobra.Command{
	Use:   "autoclass",
	Short: "Bulk-enable Autoclass on Google Cloud Storage buckets",
	Long: `autoclass migrates Google Cloud Storage buckets listed in a CSV file to
Autoclass with an ARCHIVE terminal storage class, and writes a per-bucket
status report next to the input.

Commands:
  autoclass migrate -f buckets.csv            # Migrate every bucket in the file
  autoclass migrate -f buckets.csv --dry-run  # Report what would change
  autoclass status                            # Check GCP credentials

The input CSV needs GOOGLE_PROJECT_ID and BUCKET_NAME columns. Settings can also
come from a YAML file (--config) or AUTOCLASS_* environment variables.`,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&project, "project", "", "fallback GCP project for credential checks")

	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

func initConfig() {
	// Read from environment variables, e.g. AUTOCLASS_MAX_ATTEMPTS
	viper.SetEnvPrefix("AUTOCLASS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}

	// Fall back to the gcloud project env vars for the credential check
	if project == "" {
		project = viper.GetString("project")
	}
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
}
