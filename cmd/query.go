package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/empd2/empd-admin/pkg/report"
)

var (
	queryCommit  bool
	queryOutput  string
	queryMaxRows int
)

var queryCmd = &cobra.Command{
	Use:   "query <predicate> [columns...]",
	Short: "Query the working metadata",
	Long: `Evaluate a predicate against the working metadata and print the
matching rows as a markdown table.

The predicate is a boolean combination (AND, OR, parentheses) of column
comparisons such as:

    Country = "Germany" AND Latitude >= 45

Trailing arguments select the columns to display, in order; without them
every column is shown. With --commit the full result is also written to
queries/query.tsv under the data directory; committing that file to
version control is handled outside this tool.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().BoolVarP(&queryCommit, "commit", "c", false, "persist the result under queries/ in the data directory")
	queryCmd.Flags().StringVarP(&queryOutput, "out", "o", "", "write the full result to this tab-separated file")
	queryCmd.Flags().IntVar(&queryMaxRows, "max-rows", 200, "maximum rows to display (0 = no limit)")
}

func runQuery(_ *cobra.Command, args []string) error {
	initLogger()

	s, err := openSession()
	if err != nil {
		return err
	}

	res, err := s.Query(args[0], args[1:])
	if err != nil {
		return err
	}
	log.Debug("query evaluated", "predicate", args[0], "rows", len(res.Rows))

	output := queryOutput
	if queryCommit && output == "" {
		output = filepath.Join("queries", "query.tsv")
	}
	if output != "" {
		if !filepath.IsAbs(output) {
			output = filepath.Join(rootDataDir(), output)
		}
		if err := writeTSV(res.TSV(), output); err != nil {
			return err
		}
		fmt.Printf("Saved %d row(s) to %s\n", len(res.Rows), output)
		if queryCommit {
			log.Info("version-control commit of the query result is handled externally", "file", output)
		}
	}

	fmt.Print(report.QueryTable(res, queryMaxRows))
	return nil
}

func rootDataDir() string {
	return filepath.Dir(basePath())
}

// writeTSV saves a serialized result as a tab-separated file, creating the
// parent directory if needed.
func writeTSV(data []byte, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "failed to write %s", path)
}
