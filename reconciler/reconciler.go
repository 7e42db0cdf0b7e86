// Package reconciler drives the export, diff, and apply flows that the
// commands expose: a live server on one side, a version-controlled
// snapshot tree on the other.
package reconciler

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/crmarques/confsync/apply"
	"github.com/crmarques/confsync/diff"
	"github.com/crmarques/confsync/faults"
	"github.com/crmarques/confsync/remote"
	"github.com/crmarques/confsync/resource"
	"github.com/crmarques/confsync/snapshot"
)

// Committer is the optional store capability of recording a written
// snapshot as a version-control commit.
type Committer interface {
	Commit(ctx context.Context, message string) (bool, error)
}

type Reconciler struct {
	adapter remote.Adapter
	store   snapshot.Store
	log     logr.Logger
}

func New(adapter remote.Adapter, store snapshot.Store, log logr.Logger) *Reconciler {
	return &Reconciler{
		adapter: adapter,
		store:   store,
		log:     log.WithName("reconciler"),
	}
}

type ExportOptions struct {
	Filter Filter

	// Commit records the written tree as a commit when the store can.
	Commit  bool
	Message string
}

type ExportResult struct {
	Snapshot *resource.Snapshot

	// Committed reports whether a commit was recorded; false either when
	// committing was off or when the tree was already up to date.
	Committed bool
}

// Export captures the live configuration into the snapshot tree. Kinds
// outside the filter keep their existing files: the previous tree is
// carried over for them, so a narrowed export never prunes its
// neighbors.
func (r *Reconciler) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	model := r.adapter.Model()
	if err := opts.Filter.validate(model); err != nil {
		return nil, err
	}
	if err := r.adapter.Check(ctx); err != nil {
		return nil, err
	}

	include, err := remote.SupportedKinds(ctx, r.adapter, opts.Filter.include)
	if err != nil {
		return nil, err
	}

	snap, err := remote.TakeSnapshot(ctx, r.adapter, include)
	if err != nil {
		return nil, err
	}
	if err := r.carryOverExcluded(ctx, model, snap, include); err != nil {
		return nil, err
	}

	if err := r.store.Write(ctx, model, snap); err != nil {
		return nil, err
	}
	instances := 0
	for _, kind := range model.Kinds() {
		instances += snap.Count(kind.Name)
	}
	r.log.Info("exported configuration snapshot", "kinds", len(model.Kinds()), "instances", instances)

	result := &ExportResult{Snapshot: snap}
	if opts.Commit {
		committer, ok := r.store.(Committer)
		if !ok {
			return nil, validationError("snapshot store does not support committing", nil)
		}
		committed, err := committer.Commit(ctx, opts.Message)
		if err != nil {
			return nil, err
		}
		result.Committed = committed
	}
	return result, nil
}

func (r *Reconciler) carryOverExcluded(ctx context.Context, model *resource.Model, snap *resource.Snapshot, include func(resource.Kind) bool) error {
	previous, err := r.store.Read(ctx, model)
	if err != nil {
		if faults.IsCategory(err, faults.NotFoundError) {
			return nil
		}
		return err
	}
	for _, kind := range model.Kinds() {
		if include(kind) {
			continue
		}
		for _, instance := range previous.Instances(kind.Name) {
			if err := snap.Add(kind.Name, instance); err != nil {
				return err
			}
		}
	}
	return nil
}

// DiffRemote classifies what an apply would change: the live server is
// the current state, the snapshot tree the desired one.
func (r *Reconciler) DiffRemote(ctx context.Context, filter Filter) (*diff.Delta, error) {
	model := r.adapter.Model()
	if err := filter.validate(model); err != nil {
		return nil, err
	}
	if err := r.adapter.Check(ctx); err != nil {
		return nil, err
	}

	include, err := remote.SupportedKinds(ctx, r.adapter, filter.include)
	if err != nil {
		return nil, err
	}

	live, err := remote.TakeSnapshot(ctx, r.adapter, include)
	if err != nil {
		return nil, err
	}
	desired, err := r.store.Read(ctx, model)
	if err != nil {
		return nil, err
	}
	desired, err = filterSnapshot(model, desired, include)
	if err != nil {
		return nil, err
	}
	return diff.Compute(model, live, desired)
}

// DiffTrees compares two snapshot trees without touching any server,
// e.g. a staging export against a production one.
func DiffTrees(ctx context.Context, model *resource.Model, current snapshot.Store, desired snapshot.Store, filter Filter) (*diff.Delta, error) {
	if err := filter.validate(model); err != nil {
		return nil, err
	}

	currentSnap, err := current.Read(ctx, model)
	if err != nil {
		return nil, err
	}
	desiredSnap, err := desired.Read(ctx, model)
	if err != nil {
		return nil, err
	}

	currentSnap, err = filterSnapshot(model, currentSnap, filter.include)
	if err != nil {
		return nil, err
	}
	desiredSnap, err = filterSnapshot(model, desiredSnap, filter.include)
	if err != nil {
		return nil, err
	}
	return diff.Compute(model, currentSnap, desiredSnap)
}

type ApplyOptions struct {
	Filter      Filter
	AllowDelete bool
	Parallelism int

	// DryRun stops after computing the delta.
	DryRun bool

	// PostApply is a shell command run after a fully successful apply
	// that changed something.
	PostApply string
}

type ApplyResult struct {
	Delta  *diff.Delta
	Report *apply.Report
}

// Apply reconciles the server toward the snapshot tree and reports per
// operation. The post-apply hook runs only when every operation
// succeeded and at least one did.
func (r *Reconciler) Apply(ctx context.Context, opts ApplyOptions) (*ApplyResult, error) {
	delta, err := r.DiffRemote(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		return &ApplyResult{Delta: delta}, nil
	}

	report := apply.Run(ctx, r.adapter, delta, apply.Options{
		AllowDelete: opts.AllowDelete,
		Parallelism: opts.Parallelism,
		Logger:      r.log,
	})
	result := &ApplyResult{Delta: delta, Report: report}

	if opts.PostApply != "" && len(report.Entries()) > 0 && !report.HasFailures() {
		if err := r.runPostApply(ctx, opts.PostApply); err != nil {
			return result, err
		}
	}
	return result, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
