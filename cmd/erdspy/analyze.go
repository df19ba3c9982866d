package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"erdspy/internal/introspect"
	"erdspy/internal/logger"
)

var (
	outputPath    string
	schemaPattern string
	noOrder       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Gather the schema and print a JSON report",
	Long: `Gather the configured schema, infer implied relationships, and print the
model, its anomalies and the referential integrity table order as JSON.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&schemaPattern, "schemas", "", "analyze every populated schema matching this regular expression")
	analyzeCmd.Flags().BoolVar(&noOrder, "no-order", false, "skip the referential integrity order")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbs, err := gatherDatabases(cmd.Context(), appCfg, timeout, schemaPattern)
	if err != nil {
		return err
	}

	opts := reportOptions(appCfg.Gather)
	opts.Order = !noOrder

	var report any
	if schemaPattern == "" {
		report = introspect.NewReport(dbs[0], opts)
	} else {
		reports := make(map[string]introspect.Report, len(dbs))
		for _, d := range dbs {
			reports[cmpOr(d.SchemaName(), d.CatalogName(), d.Name)] = introspect.NewReport(d, opts)
		}
		report = reports
	}

	var w io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if outputPath != "" {
		logger.Info("report written to %s", outputPath)
	}
	return nil
}
