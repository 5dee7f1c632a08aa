package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/empd2/empd-admin/pkg/merge"
	"github.com/empd2/empd-admin/pkg/store"
)

var finishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Merge the working metadata into the canonical meta.tsv",
	Long: `Validate the working metadata and merge it into the canonical
meta.tsv of the data repository.

The merge refuses to run while any row still has validation findings;
fix or accept them first. On success the consolidated meta.tsv is
written, the working file is removed, and --commit notes that the
version-control commit itself is handled outside this tool.`,
	RunE: runFinish,
}

func init() {
	rootCmd.AddCommand(finishCmd)

	finishCmd.Flags().Bool("commit", false, "commit the merge in version control (handled externally)")
	finishCmd.Flags().Bool("keep", false, "keep the working file after merging")
}

func runFinish(cmd *cobra.Command, _ []string) error {
	initLogger()

	working := metaPath()
	base := basePath()
	if working == base {
		return errors.New("working file is the canonical meta.tsv; nothing to finish")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	baseStore, err := store.LoadFile(base, s.Schema().KeyColumn)
	if err != nil {
		return err
	}

	merged, err := s.Finish(baseStore)
	if err != nil {
		var conflict *merge.ConflictError
		if errors.As(err, &conflict) {
			fmt.Printf("Merge refused; %d row(s) still fail validation:\n", len(conflict.Keys))
			for _, key := range conflict.Keys {
				fmt.Println("  " + key)
			}
		}
		return err
	}

	if err := merged.WriteFile(base); err != nil {
		return err
	}
	fmt.Printf("Merged %d row(s) into %s (%d total)\n", s.Store().Len(), base, merged.Len())

	if keep, _ := cmd.Flags().GetBool("keep"); !keep {
		if err := os.Remove(working); err != nil {
			return errors.Wrapf(err, "failed to remove %s", working)
		}
	}
	if commit, _ := cmd.Flags().GetBool("commit"); commit {
		log.Info("version-control commit of the merge is handled externally", "file", base)
	}
	return nil
}
