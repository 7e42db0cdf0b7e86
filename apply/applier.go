package apply

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/crmarques/confsync/diff"
	"github.com/crmarques/confsync/faults"
	"github.com/crmarques/confsync/remote"
	"github.com/crmarques/confsync/resource"
)

type Options struct {
	// AllowDelete enables execution of the delta's delete set. When
	// false, deletes are recorded as skipped.
	AllowDelete bool

	// Parallelism bounds concurrent operations within one dependency
	// tier. Values below 2 run sequentially. Ordering across tiers is
	// strict either way.
	Parallelism int

	Logger logr.Logger
}

// Run executes a delta against the adapter. Deletes run in reverse
// dependency order (leaf kinds first), creates and updates in forward
// order, so a referenced instance always exists before its dependents
// and is never removed before them. Every operation is an independent
// unit: a failure is recorded and siblings continue. There is no
// rollback; partial application is surfaced through the report.
func Run(ctx context.Context, adapter remote.Adapter, delta *diff.Delta, opts Options) *Report {
	runner := &applyRun{
		adapter: adapter,
		delta:   delta,
		opts:    opts,
		report:  NewReport(),
		remap:   newKeyRemap(),
		log:     opts.Logger.WithName("apply"),
	}
	runner.execute(ctx)
	runner.report.Finished = time.Now()
	return runner.report
}

type applyRun struct {
	adapter remote.Adapter
	delta   *diff.Delta
	opts    Options
	report  *Report
	remap   *keyRemap
	log     logr.Logger
}

func (r *applyRun) execute(ctx context.Context) {
	tiers := r.adapter.Model().Tiers()

	for idx := len(tiers) - 1; idx >= 0; idx-- {
		r.runTier(ctx, tiers[idx], r.deleteOps)
	}
	for _, tier := range tiers {
		r.runTier(ctx, tier, r.mutateOps)
	}
}

type tierOp func(ctx context.Context, kind resource.Kind) []func(context.Context)

// runTier collects the tier's operations and executes them, optionally
// in parallel. All of a tier completes, as successes or recorded
// failures, before the next tier starts.
func (r *applyRun) runTier(ctx context.Context, tier []resource.Kind, collect tierOp) {
	ops := make([]func(context.Context), 0)
	for _, kind := range tier {
		ops = append(ops, collect(ctx, kind)...)
	}
	if len(ops) == 0 {
		return
	}

	if r.opts.Parallelism < 2 {
		for _, op := range ops {
			op(ctx)
		}
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Parallelism)
	for _, op := range ops {
		op := op
		group.Go(func() error {
			op(groupCtx)
			return nil
		})
	}
	// Operations record their own outcomes and never return errors.
	_ = group.Wait()
}

func (r *applyRun) deleteOps(_ context.Context, kind resource.Kind) []func(context.Context) {
	kindDelta, ok := r.delta.Kind(kind.Name)
	if !ok {
		return nil
	}

	ops := make([]func(context.Context), 0, len(kindDelta.Delete))
	for _, instance := range kindDelta.Delete {
		if !r.opts.AllowDelete {
			r.report.record(Entry{
				Kind: kind.Name, Key: instance.Key, Op: OpDelete,
				Outcome: OutcomeSkipped, Reason: "deletes disabled; re-run with --delete",
			})
			continue
		}
		instance := instance
		ops = append(ops, func(ctx context.Context) {
			err := r.adapter.Delete(ctx, kind, instance.Key)
			r.record(kind, instance.Key, OpDelete, err)
		})
	}
	return ops
}

func (r *applyRun) mutateOps(_ context.Context, kind resource.Kind) []func(context.Context) {
	kindDelta, ok := r.delta.Kind(kind.Name)
	if !ok {
		return nil
	}

	ops := make([]func(context.Context), 0, len(kindDelta.Create)+len(kindDelta.Update))
	for _, instance := range kindDelta.Create {
		instance := instance
		ops = append(ops, func(ctx context.Context) {
			payload := r.remap.rewriteRefs(kind, instance.Payload)
			serverKey, err := r.adapter.Create(ctx, kind, payload)
			r.record(kind, instance.Key, OpCreate, err)
			if err == nil && serverKey != "" && serverKey != instance.Key {
				r.remap.store(kind.Name, instance.Key, serverKey)
				r.log.V(1).Info("remapped identity", "kind", kind.Name, "from", instance.Key, "to", serverKey)
			}
		})
	}
	for _, instance := range kindDelta.Update {
		instance := instance
		ops = append(ops, func(ctx context.Context) {
			payload := r.remap.rewriteRefs(kind, instance.Payload)
			err := r.adapter.Update(ctx, kind, instance.Key, payload)
			r.record(kind, instance.Key, OpUpdate, err)
		})
	}
	return ops
}

func (r *applyRun) record(kind resource.Kind, key string, op Op, err error) {
	switch {
	case err == nil:
		r.log.V(1).Info("applied", "op", string(op), "kind", kind.Name, "key", key)
		r.report.record(Entry{Kind: kind.Name, Key: key, Op: op, Outcome: OutcomeSucceeded})
	case faults.IsCategory(err, faults.NotImplementedError):
		r.report.record(Entry{Kind: kind.Name, Key: key, Op: op, Outcome: OutcomeSkipped, Reason: err.Error()})
	default:
		r.log.Error(err, "operation failed", "op", string(op), "kind", kind.Name, "key", key)
		r.report.record(Entry{Kind: kind.Name, Key: key, Op: op, Outcome: OutcomeFailed, Reason: err.Error()})
	}
}

// keyRemap tracks source-key to server-key translations produced by
// creates, so references held by dependent instances are rewritten with
// the identity the server actually assigned. The ordering contract
// guarantees the referenced create already ran.
type keyRemap struct {
	mu   sync.Mutex
	keys map[string]map[string]string
}

func newKeyRemap() *keyRemap {
	return &keyRemap{keys: map[string]map[string]string{}}
}

func (m *keyRemap) store(kind string, sourceKey string, serverKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[kind] == nil {
		m.keys[kind] = map[string]string{}
	}
	m.keys[kind][sourceKey] = serverKey
}

func (m *keyRemap) lookup(kind string, sourceKey string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	serverKey, ok := m.keys[kind][sourceKey]
	return serverKey, ok
}

func (m *keyRemap) rewriteRefs(kind resource.Kind, payload map[string]any) map[string]any {
	if len(kind.RefFields) == 0 {
		return payload
	}

	rewritten := make(map[string]any, len(payload))
	for key, value := range payload {
		rewritten[key] = value
	}
	for field, targetKind := range kind.RefFields {
		current, ok := rewritten[field].(string)
		if !ok || current == "" {
			continue
		}
		if serverKey, found := m.lookup(targetKind, current); found {
			rewritten[field] = serverKey
		}
	}
	return rewritten
}
