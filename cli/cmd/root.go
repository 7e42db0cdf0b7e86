package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	noStatusOutput bool
	verbosity      int
)

var rootCmd = newRootCommand()

const (
	groupUtility    = "utility"
	groupUserFacing = "user"
)

func Execute() error {
	return rootCmd.Execute()
}

func NewRootCommand() *cobra.Command {
	return newRootCommand()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confsync",
		Short: "Keep a server's configuration in sync with a version-controlled snapshot tree",
		Long: `Confsync exports the manageable configuration of a running server into a
directory of YAML files, shows what drifted, and applies the tree back.

Use the CLI to:
  - export dashboards, datasources, roles, and the rest into version control
  - diff a live server against the snapshot tree, or two trees against each other
  - apply the tree to converge a server, in dependency order`,
		Example: `  # Capture the live configuration into ./snapshot and commit it
  confsync export --path ./snapshot --commit

  # See what an apply would change
  confsync diff --path ./snapshot

  # Converge the server to the tree, including deletions
  confsync apply --path ./snapshot --delete`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetHelpCommandGroupID(groupUtility)
	cmd.SetCompletionCommandGroupID(groupUtility)

	flags := cmd.PersistentFlags()
	flags.BoolVar(&noStatusOutput, "no-status", false, "Suppress status messages and print only command output")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	flags.String("config", "", "Configuration file (default ~/.confsync/config.yaml)")
	flags.String("product", "", "Target product: grafana or directus")
	flags.String("url", "", "Server base URL")
	flags.String("username", "", "Basic auth username")
	flags.String("password", "", "Basic auth password")
	flags.String("token", "", "Bearer token")
	flags.String("path", "", "Snapshot tree directory")
	flags.Int("timeout", 0, "Remote request timeout in seconds")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err == nil {
			return nil
		}
		return usageError(cmd, err.Error())
	})

	cmd.AddGroup(&cobra.Group{ID: groupUserFacing, Title: "Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupUtility, Title: "Utility Commands:"})

	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newDiffCommand())
	cmd.AddCommand(newApplyCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}
