// Package cmd implements the router-metrics CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EnMasseProject/enmasse/internal/config"
)

var (
	cfgFile    string
	logLevel   string
	logFormat  string
	routerHost string
	routerPort int
	certDir    string
	listenAddr string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("router-metrics version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "router-metrics",
	Short: "router-metrics exports AMQP router statistics to Prometheus",
	Long: "router-metrics queries the management agent of an AMQP router for its\n" +
		"router, connection and link entities and exposes per-address and\n" +
		"per-container counts in the Prometheus text format.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&routerHost, "router-host", "", "router host (overrides config and ROUTER_HOST)")
	rootCmd.PersistentFlags().IntVar(&routerPort, "router-port", 0, "router AMQP port (overrides config and ROUTER_PORT)")
	rootCmd.PersistentFlags().StringVar(&certDir, "cert-dir", "", "directory with ca.crt, tls.crt and tls.key (overrides config and CERT_DIR)")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config and LISTEN_ADDRESS)")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("router-metrics version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig layers the config file, the environment and the CLI flags, in
// that order, then applies defaults and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Parse(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if routerHost != "" {
		cfg.Router.Host = routerHost
	}
	if routerPort != 0 {
		cfg.Router.Port = routerPort
	}
	if certDir != "" {
		cfg.Router.CertDir = certDir
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
