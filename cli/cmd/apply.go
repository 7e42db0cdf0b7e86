package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crmarques/confsync/apply"
	"github.com/crmarques/confsync/reconciler"
)

func newApplyCommand() *cobra.Command {
	var (
		only        string
		exclude     string
		allowDelete bool
		skipConfirm bool
		dryRun      bool
		parallel    int
		postApply   string
	)

	cmd := &cobra.Command{
		Use:     "apply",
		GroupID: groupUserFacing,
		Short:   "Converge the server to the snapshot tree",
		Long: `Apply computes the difference between the live server and the snapshot
tree, then executes it in dependency order: referenced objects are
created before their dependents and removed after them.

Deletions only run with --delete; without it they are reported as
skipped. Failures never abort the run: every remaining operation is
still attempted and the per-operation report tells what happened.`,
		Example: `  # Converge without deleting anything
  confsync apply --path ./snapshot

  # Full convergence, no prompt, notify when done
  confsync apply --path ./snapshot --delete --yes --post-apply 'notify-team'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, _, err := loadReconciler(cmd, false)
			if err != nil {
				return err
			}

			opts := reconciler.ApplyOptions{
				Filter: reconciler.Filter{
					Only:    splitKindList(only),
					Exclude: splitKindList(exclude),
				},
				AllowDelete: allowDelete,
				Parallelism: parallel,
				DryRun:      dryRun,
				PostApply:   postApply,
			}

			if allowDelete && !dryRun {
				if err := confirmAction(cmd, skipConfirm, "Apply will delete remote objects missing from the tree. Continue?"); err != nil {
					return err
				}
			}

			result, err := rec.Apply(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if dryRun {
				infof(cmd, "%s", result.Delta.Summary())
				successf(cmd, "dry run, nothing applied")
				return nil
			}

			printReport(cmd, result.Report)
			if result.Report.HasFailures() {
				return handledError{msg: fmt.Sprintf("apply finished with %d failed operations", len(result.Report.Failed()))}
			}
			successf(cmd, "server converged to the snapshot tree")
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "Comma-separated kinds to apply")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Comma-separated kinds to leave out")
	cmd.Flags().BoolVar(&allowDelete, "delete", false, "Delete remote objects missing from the tree")
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip the deletion confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and print the delta without applying it")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Concurrent operations within one dependency tier")
	cmd.Flags().StringVar(&postApply, "post-apply", "", "Shell command run after a fully successful apply")

	return cmd
}

func printReport(cmd *cobra.Command, report *apply.Report) {
	for _, entry := range report.Entries() {
		line := fmt.Sprintf("%-9s %s %s/%s", entry.Outcome, entry.Op, entry.Kind, entry.Key)
		if entry.Reason != "" {
			line += " (" + entry.Reason + ")"
		}
		infof(cmd, "%s", line)
	}
	infof(cmd, "%s", report.Summary())
}
