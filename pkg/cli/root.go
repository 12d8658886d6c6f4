// Package cli implements the pagescope command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagescope",
	Short: "pagescope is a scoped HTTP proxy for Confluence Cloud",
	Long: `pagescope exposes a simplified slice of the Confluence Cloud REST API over
HTTP, built for coding agents and scripts that work with documentation pages.
When a parent page restriction is configured, every write is confined to
direct children of that page; reads are never restricted.

Connection settings come from the environment or a .env file:

  CONFLUENCE_URL          Confluence site URL, e.g. https://acme.atlassian.net/wiki/
  CONFLUENCE_USERNAME     Account email for basic auth
  CONFLUENCE_API_TOKEN    API token paired with the username
  CONFLUENCE_SPACE_KEY    Space key the service operates on
  CONFLUENCE_PARENT_PAGE  Optional page ID confining writes to its children`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
