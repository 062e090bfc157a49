package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/EnMasseProject/enmasse/internal/fsutil"
)

var collectOutput string

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass and print the metrics",
	Long: "Query the router once and write the resulting series to stdout in the\n" +
		"Prometheus text format. Exits non-zero if the pass fails.\n\n" +
		"With --output the exposition replaces the named file atomically, which\n" +
		"suits the node exporter textfile collector.",
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("router-metrics collect: %w", err)
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	pool, collector, err := newRouterCollector(cfg.Router, cfg.Collector, logger)
	if err != nil {
		return fmt.Errorf("router-metrics collect: %w", err)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		return fmt.Errorf("router-metrics collect: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("router-metrics collect: %w", err)
	}

	if collectOutput != "" {
		err = fsutil.WriteAtomic(collectOutput, 0o644, func(w io.Writer) error {
			return writeText(w, families)
		})
	} else {
		err = writeText(cmd.OutOrStdout(), families)
	}
	if err != nil {
		return fmt.Errorf("router-metrics collect: write: %w", err)
	}
	return nil
}

func writeText(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
