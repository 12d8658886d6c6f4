package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagescope/pagescope/pkg/api"
	"github.com/pagescope/pagescope/pkg/config"
	"github.com/pagescope/pagescope/pkg/confluence"
	"github.com/pagescope/pagescope/pkg/logging"
	"github.com/pagescope/pagescope/pkg/metrics"
	"github.com/pagescope/pagescope/pkg/scope"
)

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

// serveFlags holds all parsed command-line flags for the serve command.
type serveFlags struct {
	host            string
	port            int
	envFile         string
	corsOrigins     string
	upstreamTimeout int
	logLevel        string
	logFormat       string
}

// serveCmd represents the serve command, the foreground server entrypoint.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pagescope server (foreground)",
	Long: `Start the HTTP server proxying the configured Confluence site.

The server reads its Confluence connection from the environment (see
'pagescope --help' for the variable list). A missing required variable is a
startup error. --host and --port override the HOST and PORT environment
variables; without either, the server binds 127.0.0.1:8123.`,
	Example: `  # Start with defaults (127.0.0.1:8123)
  pagescope serve

  # Bind to all interfaces on a custom port
  pagescope serve --host 0.0.0.0 --port 8200

  # Read connection settings from a specific env file
  pagescope serve --env-file ./staging.env

  # Restrict browsers to one origin
  pagescope serve --cors-origins https://app.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeWithFlags(&serveFlagVals)
	},
}

func initServeCmd() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals

	serveCmd.Flags().StringVar(&f.host, "host", "", "Bind host (default: HOST env var or 127.0.0.1)")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 0, "Bind port (default: PORT env var or 8123)")
	serveCmd.Flags().StringVar(&f.envFile, "env-file", "", "Path to an env file with connection settings")
	serveCmd.Flags().StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated CORS allowed origins (default: all)")
	serveCmd.Flags().IntVar(&f.upstreamTimeout, "upstream-timeout", 0, "Confluence request timeout in seconds (default: 30)")

	// Logging flags
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
}

func init() {
	initServeCmd()
}

// splitOrigins parses the --cors-origins flag value.
func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// buildAPIOptions maps serve flags onto API options.
func buildAPIOptions(f *serveFlags) []api.Option {
	opts := []api.Option{api.WithVersion(Version)}
	if origins := splitOrigins(f.corsOrigins); len(origins) > 0 {
		opts = append(opts, api.WithCORSConfig(api.CORSConfigForOrigins(origins)))
	}
	return opts
}

// buildClientOptions maps serve flags onto Confluence client options.
func buildClientOptions(f *serveFlags) []confluence.Option {
	opts := []confluence.Option{confluence.WithMetrics(metrics.Get())}
	if f.upstreamTimeout > 0 {
		opts = append(opts, confluence.WithTimeout(time.Duration(f.upstreamTimeout)*time.Second))
	}
	return opts
}

func runServeWithFlags(f *serveFlags) error {
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(f.logLevel),
		Format: logging.ParseFormat(f.logFormat),
	})

	cfg, err := config.Load(f.envFile)
	if err != nil {
		return err
	}

	host, port := config.BindAddr(f.host, f.port)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	client := confluence.New(cfg.BaseURL, cfg.Username, cfg.Token, buildClientOptions(f)...)

	opts := append(buildAPIOptions(f), api.WithLogger(logger))
	srv := api.New(addr, client, scope.Policy{ParentID: cfg.ParentPageID}, cfg.SpaceKey, opts...)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	printServeStartupMessage(srv.Addr(), cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	fmt.Println("\nShutting down...")

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func printServeStartupMessage(addr string, cfg *config.Config) {
	fmt.Println("pagescope server started")
	fmt.Println()
	fmt.Printf("  API:        http://%s\n", addr)
	fmt.Printf("  Docs:       http://%s/docs\n", addr)
	fmt.Printf("  Confluence: %s (space %s)\n", cfg.BaseURL, cfg.SpaceKey)
	if cfg.Restricted() {
		fmt.Printf("  Scope:      writes confined under page %s\n", cfg.ParentPageID)
	} else {
		fmt.Println("  Scope:      unrestricted (no parent page configured)")
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")
}
