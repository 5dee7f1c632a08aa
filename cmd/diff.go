package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/empd2/empd-admin/pkg/diff"
	"github.com/empd2/empd-admin/pkg/report"
	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
)

var (
	diffOn      []string
	diffExclude []string
	diffAtol    float64
	diffHow     string
	diffCommit  bool
	diffOutput  string
	diffMaxRows int
)

var diffCmd = &cobra.Command{
	Use:   "diff [left] [right]",
	Short: "Compare two metadata files cell by cell",
	Long: `Compare two metadata files and print the changed rows as a
markdown table: the differing columns, the left file's values for them,
and a diff column naming each row's changes.

Without arguments the working metadata file is compared against the
canonical meta.tsv; one argument replaces the left side, two replace
both. Paths are relative to the data directory. Numeric columns compare
within --atol so formatting churn does not show up as a change. With
--commit the full result is also written to queries/diff.tsv; committing
that file to version control is handled outside this tool.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringSliceVar(&diffOn, "on", nil, "columns to compare (default: columns present in both files)")
	diffCmd.Flags().StringSliceVar(&diffExclude, "exclude", nil, "columns to leave out of the comparison")
	diffCmd.Flags().Float64Var(&diffAtol, "atol", diff.DefaultAtol, "absolute tolerance for numeric columns")
	diffCmd.Flags().StringVar(&diffHow, "how", string(diff.ModeInner), "row coverage (inner, left, right, outer)")
	diffCmd.Flags().BoolVarP(&diffCommit, "commit", "c", false, "persist the result under queries/ in the data directory")
	diffCmd.Flags().StringVarP(&diffOutput, "out", "o", "", "write the full result to this tab-separated file")
	diffCmd.Flags().IntVar(&diffMaxRows, "max-rows", 200, "maximum rows to display (0 = no limit)")
}

func runDiff(_ *cobra.Command, args []string) error {
	initLogger()

	leftPath := metaPath()
	rightPath := basePath()
	if len(args) > 0 {
		leftPath = resolveDataPath(args[0])
	}
	if len(args) > 1 {
		rightPath = resolveDataPath(args[1])
	}

	lookups, err := schema.LoadLookupTables(dataPath("lookups"))
	if err != nil {
		return err
	}
	sch, err := schema.Load(dataPath("schema"), lookups)
	if err != nil {
		return err
	}
	left, err := store.LoadFile(leftPath, sch.KeyColumn)
	if err != nil {
		return err
	}
	right, err := store.LoadFile(rightPath, sch.KeyColumn)
	if err != nil {
		return err
	}

	res, err := diff.Compute(left, right, sch, diff.Options{
		Mode:    diff.Mode(diffHow),
		On:      diffOn,
		Exclude: diffExclude,
		Atol:    diffAtol,
	})
	if err != nil {
		return err
	}
	log.Debug("diff computed", "left", leftPath, "right", rightPath, "rows", len(res.Rows))

	output := diffOutput
	if diffCommit && output == "" {
		output = filepath.Join("queries", "diff.tsv")
	}
	if output != "" {
		if !filepath.IsAbs(output) {
			output = filepath.Join(rootDataDir(), output)
		}
		if err := writeTSV(res.TSV(), output); err != nil {
			return err
		}
		fmt.Printf("Saved %d row(s) to %s\n", len(res.Rows), output)
		if diffCommit {
			log.Info("version-control commit of the diff is handled externally", "file", output)
		}
	}

	fmt.Printf("%s..%s\n\n", leftPath, rightPath)
	if res.Empty() {
		fmt.Println("No differences found.")
		return nil
	}
	header, rows := res.Table()
	fmt.Print(report.Table(header, rows, diffMaxRows))
	return nil
}

// resolveDataPath interprets a user-supplied path relative to the data
// directory unless it is absolute.
func resolveDataPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDataDir(), p)
}
