package remote

import (
	"context"
	"fmt"

	"github.com/crmarques/confsync/faults"
	"github.com/crmarques/confsync/resource"
)

// Adapter is the product-specific translation layer between the generic
// resource operations and a real management API. One implementation
// exists per target product; each declares its own kind table, and with
// it the dependency graph the applier honors. Create returns the
// server-assigned identity key, which may differ from the key stored in
// the snapshot (database ids vs content-addressed uids); the applier
// remaps dependent references through it.
//
// Any mutating operation may return a NotImplementedError fault. That is
// a first-class outcome recorded as a skipped apply entry, never a fatal
// abort.
type Adapter interface {
	Model() *resource.Model

	// Check probes connectivity and credentials. Applies and exports
	// abort before any operation when it fails.
	Check(ctx context.Context) error

	List(ctx context.Context, kind resource.Kind) ([]resource.Instance, error)
	Get(ctx context.Context, kind resource.Kind, key string) (resource.Instance, error)
	Create(ctx context.Context, kind resource.Kind, payload map[string]any) (string, error)
	Update(ctx context.Context, kind resource.Kind, key string, payload map[string]any) error
	Delete(ctx context.Context, kind resource.Kind, key string) error
}

// VersionGater is an optional adapter capability. Adapters whose kinds
// carry a minimum server version implement it; callers exclude kinds the
// connected server cannot serve.
type VersionGater interface {
	Supported(ctx context.Context, kind resource.Kind) (bool, error)
}

// SupportedKinds narrows an include predicate through the adapter's
// version gate, when it has one.
func SupportedKinds(ctx context.Context, adapter Adapter, include func(resource.Kind) bool) (func(resource.Kind) bool, error) {
	gater, ok := adapter.(VersionGater)
	if !ok {
		return include, nil
	}

	supported := map[string]bool{}
	for _, kind := range adapter.Model().Kinds() {
		if include != nil && !include(kind) {
			continue
		}
		ok, err := gater.Supported(ctx, kind)
		if err != nil {
			return nil, err
		}
		supported[kind.Name] = ok
	}
	return func(kind resource.Kind) bool {
		if include != nil && !include(kind) {
			return false
		}
		return supported[kind.Name]
	}, nil
}

// NotImplemented builds the fault an adapter returns for an operation it
// does not support yet.
func NotImplemented(operation string, kind resource.Kind) error {
	return faults.NewTypedError(
		faults.NotImplementedError,
		fmt.Sprintf("%s %s is not implemented by this adapter", operation, kind.Name),
		nil,
	)
}

// InstanceFromPayload derives an Instance from a raw API payload using
// the kind's identity field.
func InstanceFromPayload(kind resource.Kind, payload map[string]any) (resource.Instance, error) {
	return resource.FromPayload(kind, payload)
}

// IdentityKey extracts an identity key from a raw payload.
func IdentityKey(kind resource.Kind, payload map[string]any) (string, error) {
	return resource.IdentityKey(kind, payload)
}
