package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crmarques/confsync/diff"
	"github.com/crmarques/confsync/internal/providers/snapshot/fsstore"
	"github.com/crmarques/confsync/reconciler"
	"github.com/crmarques/confsync/resource"
	"github.com/crmarques/confsync/yamlutil"
)

const (
	outputSummary = "summary"
	outputYAML    = "yaml"
)

func newDiffCommand() *cobra.Command {
	var (
		only    string
		exclude string
		path2   string
		output  string
	)

	cmd := &cobra.Command{
		Use:     "diff",
		GroupID: groupUserFacing,
		Short:   "Show what an apply would change",
		Long: `Diff compares the live server against the snapshot tree: additions,
modifications, and deletions an apply would perform.

With --path2, two snapshot trees are compared instead and no server is
contacted; the tree at --path is the current state, the one at --path2
the desired state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputSummary && output != outputYAML {
				return usageError(cmd, fmt.Sprintf("unknown output format %q", output))
			}

			filter := reconciler.Filter{
				Only:    splitKindList(only),
				Exclude: splitKindList(exclude),
			}

			delta, err := computeDelta(cmd, filter, path2)
			if err != nil {
				return err
			}
			return printDelta(cmd, delta, output)
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "Comma-separated kinds to compare")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Comma-separated kinds to leave out")
	cmd.Flags().StringVar(&path2, "path2", "", "Second snapshot tree; compare trees instead of the live server")
	cmd.Flags().StringVarP(&output, "output", "o", outputSummary, "Output format: summary or yaml")

	return cmd
}

func computeDelta(cmd *cobra.Command, filter reconciler.Filter, path2 string) (*diff.Delta, error) {
	if path2 == "" {
		rec, _, err := loadReconciler(cmd, false)
		if err != nil {
			return nil, err
		}
		return rec.DiffRemote(cmd.Context(), filter)
	}

	// Tree against tree needs the kind table only, never the server.
	cfg, err := mergedConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Snapshot.Path == "" {
		return nil, usageError(cmd, "snapshot path is required (--path or the config file)")
	}
	model, err := modelForProduct(cmd, cfg.Server.Product)
	if err != nil {
		return nil, err
	}
	return reconciler.DiffTrees(
		cmd.Context(),
		model,
		fsstore.New(cfg.Snapshot.Path),
		fsstore.New(path2),
		filter,
	)
}

func printDelta(cmd *cobra.Command, delta *diff.Delta, output string) error {
	if output == outputYAML {
		encoded, err := yamlutil.MarshalStable(deltaDocument(delta), 2)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(encoded))
		return nil
	}

	infof(cmd, "%s", delta.Summary())
	if delta.Empty() {
		successf(cmd, "no differences")
	}
	return nil
}

// deltaDocument flattens a delta into plain maps for serialization:
// identity keys per operation, not full payloads.
func deltaDocument(delta *diff.Delta) map[string]any {
	document := map[string]any{}
	for _, kindDelta := range delta.Kinds {
		if kindDelta.Empty() {
			continue
		}
		entry := map[string]any{}
		if keys := instanceKeys(kindDelta.Create); len(keys) > 0 {
			entry["create"] = keys
		}
		if keys := instanceKeys(kindDelta.Update); len(keys) > 0 {
			entry["update"] = keys
		}
		if keys := instanceKeys(kindDelta.Delete); len(keys) > 0 {
			entry["delete"] = keys
		}
		document[kindDelta.Kind.Name] = entry
	}
	return document
}

func instanceKeys(instances []resource.Instance) []any {
	keys := make([]any, 0, len(instances))
	for _, instance := range instances {
		keys = append(keys, instance.Key)
	}
	return keys
}
