package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vietdv277/autoclass/internal/gcp"
	"github.com/vietdv277/autoclass/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show GCP authentication status",
	Long: `Verify that Application Default Credentials are available and can mint a
token, and show the identity that bucket updates will run as.

Examples:
  autoclass status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current Status")
	fmt.Fprintln(out, ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Provider: %s\n", ui.GCPStyle.Render("GCP"))

	client, err := gcp.NewClient(cmd.Context(), gcp.WithProject(project))
	if err != nil {
		fmt.Fprintln(out, "Auth:     "+ui.ErrorStyle.Render("✗ Not authenticated"))
		fmt.Fprintf(out, "          %s\n", ui.MutedStyle.Render(err.Error()))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To authenticate:")
		fmt.Fprintln(out, "  gcloud auth application-default login")
		return nil
	}

	identity, err := client.CallerIdentity(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, "Auth:     "+ui.ErrorStyle.Render("✗ Credentials unusable"))
		fmt.Fprintf(out, "          %s\n", ui.MutedStyle.Render(err.Error()))
		return nil
	}

	fmt.Fprintln(out, "Auth:     "+ui.MigratedStyle.Render("✓ Authenticated"))
	if identity.Email != "" {
		fmt.Fprintf(out, "Account:  %s\n", identity.Email)
	}
	if identity.CredentialType != "" {
		fmt.Fprintf(out, "Type:     %s\n", identity.CredentialType)
	}
	if identity.ProjectID != "" {
		fmt.Fprintf(out, "Project:  %s\n", ui.ProjectStyle.Render(identity.ProjectID))
	} else {
		fmt.Fprintf(out, "Project:  %s\n", ui.MutedStyle.Render("(not set)"))
	}
	return nil
}
