package cmd

import (
	"github.com/spf13/cobra"

	"github.com/crmarques/confsync/reconciler"
)

func newExportCommand() *cobra.Command {
	var (
		only    string
		exclude string
		commit  bool
		message string
	)

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: groupUserFacing,
		Short:   "Capture the live configuration into the snapshot tree",
		Example: `  # Full export, committed to git
  confsync export --path ./snapshot --commit -m "nightly export"

  # Dashboards only; other kinds keep their files
  confsync export --path ./snapshot --only dashboards`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, _, err := loadReconciler(cmd, commit)
			if err != nil {
				return err
			}

			result, err := rec.Export(cmd.Context(), reconciler.ExportOptions{
				Filter: reconciler.Filter{
					Only:    splitKindList(only),
					Exclude: splitKindList(exclude),
				},
				Commit:  commit,
				Message: message,
			})
			if err != nil {
				return err
			}

			successf(cmd, "exported configuration snapshot")
			if commit {
				if result.Committed {
					successf(cmd, "changes committed")
				} else {
					infof(cmd, "snapshot tree already up to date, nothing to commit")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "Comma-separated kinds to export")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Comma-separated kinds to leave out")
	cmd.Flags().BoolVar(&commit, "commit", false, "Record the export as a git commit")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message (with --commit)")

	return cmd
}
