package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/empd2/empd-admin/pkg/logger"
	"github.com/empd2/empd-admin/pkg/report"
	"github.com/empd2/empd-admin/pkg/types"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Validate the working metadata against the schema",
	Long: `Validate every row of the working metadata file against the
declarative schema and the lookup tables, and report the findings.

Findings are expected, structured data, not errors: the command succeeds
whenever the validation ran, and --fail-on-finding turns a non-empty
report into a non-zero exit code for CI use.`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringP("extract", "e", "", "write the failing rows to this tab-separated file")
	testCmd.Flags().StringP("output", "o", "markdown", "output format (markdown, text, json, yaml)")
	testCmd.Flags().Bool("fail-on-finding", false, "exit with non-zero code if any finding is reported")

	_ = viper.BindPFlag("test.extract", testCmd.Flags().Lookup("extract"))
	_ = viper.BindPFlag("test.output", testCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("test.fail-on-finding", testCmd.Flags().Lookup("fail-on-finding"))
}

func runTest(_ *cobra.Command, _ []string) error {
	initLogger()

	s, err := openSession()
	if err != nil {
		return err
	}
	rep := s.Validate()
	log.Debug("validation finished", "rows", s.Store().Len(), "findings", rep.Len())

	if extract := viper.GetString("test.extract"); extract != "" && !rep.Empty() {
		failing := s.Store().Subset(rep.FailingKeys())
		if err := failing.WriteFile(extract); err != nil {
			return err
		}
		fmt.Printf("Wrote %d failing row(s) to %s\n\n", failing.Len(), extract)
	}

	if err := outputReport(rep, viper.GetString("test.output")); err != nil {
		return err
	}

	if !rep.Empty() && viper.GetBool("test.fail-on-finding") {
		os.Exit(1)
	}
	return nil
}

func outputReport(rep *types.Report, format string) error {
	switch format {
	case "markdown", "text":
		fmt.Print(report.FindingsTable(rep))
		return nil
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{
			"findings": rep.Findings(),
		})
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		return encoder.Encode(map[string]interface{}{
			"findings": rep.Findings(),
		})
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func initLogger() {
	logLevel := slog.LevelWarn
	if viper.GetBool("debug") {
		logLevel = slog.LevelDebug
	} else if viper.GetBool("verbose") {
		logLevel = slog.LevelInfo
	}
	l := logger.NewWithLevel(logLevel)
	log = l
	slog.SetDefault(l.GetSlogLogger())
}
