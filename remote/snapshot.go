package remote

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/crmarques/confsync/resource"
)

// TakeSnapshot lists every selected kind from the adapter and assembles
// a live snapshot. Kinds are independent, so listing runs concurrently;
// results are merged under a lock and the snapshot itself stays
// deterministic because instance iteration is key-sorted.
func TakeSnapshot(ctx context.Context, adapter Adapter, include func(resource.Kind) bool) (*resource.Snapshot, error) {
	snapshot := resource.NewSnapshot()
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for _, kind := range adapter.Model().Kinds() {
		if include != nil && !include(kind) {
			continue
		}
		kind := kind
		group.Go(func() error {
			instances, err := adapter.List(groupCtx, kind)
			if err != nil {
				return fmt.Errorf("listing %s: %w", kind.Name, err)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, instance := range instances {
				if err := snapshot.Add(kind.Name, instance); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
