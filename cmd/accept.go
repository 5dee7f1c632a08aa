package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/empd2/empd-admin/pkg/types"
)

var acceptWhere string

var acceptCmd = &cobra.Command{
	Use:   "accept <sample>:<column> ...",
	Short: "Accept failing cells so they pass validation",
	Long: `Mark columns of specific samples as accepted despite their
validation findings, by extending the okexcept list of the affected rows.

Each argument is sample:column; the sample may be "all" to accept the
column for every row. With -w the rows are selected by a predicate in
the query language instead, and each argument is a bare column name.
Accepting an already-accepted column is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAccept(cmd, args, true)
	},
}

var unacceptCmd = &cobra.Command{
	Use:   "unaccept <sample>:<column> ...",
	Short: "Re-expose previously accepted cells",
	Long: `Remove columns of specific samples from the okexcept list so
their validation findings are reported again.

Each argument is sample:column; the sample may be "all". With -w the
rows are selected by a predicate in the query language instead, and
each argument is a bare column name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAccept(cmd, args, false)
	},
}

func init() {
	rootCmd.AddCommand(acceptCmd)
	rootCmd.AddCommand(unacceptCmd)

	for _, cmd := range []*cobra.Command{acceptCmd, unacceptCmd} {
		cmd.Flags().Bool("no-commit", false, "do not write the metadata back to disk")
		cmd.Flags().StringVarP(&acceptWhere, "where", "w", "", "predicate selecting the rows")
	}
}

func runAccept(cmd *cobra.Command, args []string, accept bool) error {
	initLogger()

	s, err := openSession()
	if err != nil {
		return err
	}

	changed := 0
	for _, arg := range args {
		var touched map[types.Cell]struct{}
		switch {
		case acceptWhere != "":
			if strings.Contains(arg, ":") {
				return errors.Errorf("invalid argument %q: expected a bare column name with --where", arg)
			}
			if accept {
				touched, err = s.AcceptWhere(acceptWhere, arg)
			} else {
				touched, err = s.UnacceptWhere(acceptWhere, arg)
			}
		default:
			sample, column, ok := strings.Cut(arg, ":")
			if !ok || sample == "" || column == "" {
				return errors.Errorf("invalid argument %q: expected sample:column", arg)
			}
			if accept {
				touched, err = s.Accept(sample, column)
			} else {
				touched, err = s.Unaccept(sample, column)
			}
		}
		if err != nil {
			return err
		}
		changed += len(touched)
	}

	verb := "Accepted"
	if !accept {
		verb = "Unaccepted"
	}
	fmt.Printf("%s %d cell(s)\n", verb, changed)

	noCommit, _ := cmd.Flags().GetBool("no-commit")
	if noCommit || changed == 0 {
		return nil
	}
	return s.Store().WriteFile(metaPath())
}
