package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/empd2/empd-admin/pkg/repair"
)

var (
	fixSample    string
	fixWhere     string
	fixValue     string
	fixTransform string
	fixDryRun    bool
)

var fixCmd = &cobra.Command{
	Use:   "fix <column>",
	Short: "Repair a column for selected rows",
	Long: `Apply a targeted fix to one column of the working metadata.

Rows are selected either by an explicit sample name (-s) or by a
predicate in the query language (-w), evaluated against the pre-fix
state. The new value is a literal (-v) or a named transform (-t, one of
trim or clear). The touched cells are re-validated incrementally and the
remaining findings for them are reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)

	fixCmd.Flags().StringVarP(&fixSample, "sample", "s", "", "sample name to fix")
	fixCmd.Flags().StringVarP(&fixWhere, "where", "w", "", "predicate selecting the rows to fix")
	fixCmd.Flags().StringVarP(&fixValue, "value", "v", "", "replacement value")
	fixCmd.Flags().StringVarP(&fixTransform, "transform", "t", "", "named transform (trim, clear)")
	fixCmd.Flags().Bool("no-commit", false, "do not write the fixed metadata back to disk")
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "report what would change without writing")
}

func runFix(cmd *cobra.Command, args []string) error {
	initLogger()

	if fixSample == "" && fixWhere == "" {
		return errors.New("either --sample or --where is required")
	}
	if fixValue == "" && fixTransform == "" {
		return errors.New("either --value or --transform is required")
	}

	s, err := openSession()
	if err != nil {
		return err
	}

	rep, touched, err := s.Fix(repair.Fix{
		Column:    args[0],
		Selector:  repair.Selector{Key: fixSample, Where: fixWhere},
		Value:     fixValue,
		Transform: repair.Transform(fixTransform),
	})
	if err != nil {
		return err
	}
	log.Info("fix applied", "column", args[0], "cells", len(touched))

	remaining := 0
	for cell := range touched {
		remaining += len(rep.ForCell(cell))
	}
	fmt.Printf("Fixed %d cell(s) in column %s; %d finding(s) remain for them\n",
		len(touched), args[0], remaining)
	for cell := range touched {
		for _, f := range rep.ForCell(cell) {
			fmt.Println("  " + f.String())
		}
	}

	noCommit, _ := cmd.Flags().GetBool("no-commit")
	if fixDryRun || noCommit || len(touched) == 0 {
		return nil
	}
	return s.Store().WriteFile(metaPath())
}
