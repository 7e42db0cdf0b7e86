package resource

import (
	"fmt"
	"sort"

	"github.com/crmarques/confsync/faults"
)

type Value = any

// OpSet declares which mutating operations a kind supports. Singleton
// kinds (server-wide settings, the notification policy tree) are
// update-only: they always exist remotely and cannot be created or
// deleted.
type OpSet struct {
	Create bool
	Update bool
	Delete bool
}

func AllOps() OpSet {
	return OpSet{Create: true, Update: true, Delete: true}
}

func UpdateOnly() OpSet {
	return OpSet{Update: true}
}

// Kind describes one category of manageable configuration object and how
// it maps onto files, identity, and the dependency graph.
type Kind struct {
	// Name is the kind's stable tag, also the snapshot subdirectory name.
	Name string

	// IdentityField names the payload field holding the identity key;
	// which field that is depends on the product (uid, id, slug).
	IdentityField string

	// FilenameFields are payload fields combined with the identity key to
	// build a human-readable file name, e.g. a dashboard's title.
	FilenameFields []string

	// DependsOn lists kinds whose instances must exist before instances
	// of this kind can be created.
	DependsOn []string

	// RefFields maps payload fields holding foreign identity keys to the
	// kind they reference. The applier rewrites these when the server
	// assigns a different identity than the snapshot stored.
	RefFields map[string]string

	Ops OpSet

	// IgnoreFields are server-managed payload paths (dotted, from the
	// payload root) excluded from content equality: timestamps, version
	// counters, database ids.
	IgnoreFields []string

	// Singleton marks kinds with exactly one remote instance.
	Singleton bool

	// ListQuery is a jq expression adapters use to extract the instance
	// array from the kind's list response.
	ListQuery string

	// MinServerVersion gates the kind on a minimum remote server version
	// (semver); empty means always available.
	MinServerVersion string
}

// Instance is one concrete object of a kind: an identity key plus its
// structured payload.
type Instance struct {
	Key     string
	Payload map[string]any
}

// Ref returns the string value of a payload field, or "" when absent or
// not a string. Used to follow foreign identity keys.
func (i Instance) Ref(field string) string {
	if i.Payload == nil {
		return ""
	}
	value, ok := i.Payload[field].(string)
	if !ok {
		return ""
	}
	return value
}

// Snapshot is a point-in-time set of instances across kinds. Identity
// keys are unique within a kind.
type Snapshot struct {
	byKind map[string]map[string]Instance
}

func NewSnapshot() *Snapshot {
	return &Snapshot{byKind: map[string]map[string]Instance{}}
}

func (s *Snapshot) Add(kind string, instance Instance) error {
	if instance.Key == "" {
		return faults.NewTypedError(faults.ValidationError, fmt.Sprintf("%s instance has no identity key", kind), nil)
	}
	instances, ok := s.byKind[kind]
	if !ok {
		instances = map[string]Instance{}
		s.byKind[kind] = instances
	}
	if _, exists := instances[instance.Key]; exists {
		return faults.NewTypedError(faults.ValidationError, fmt.Sprintf("duplicate %s identity key %q", kind, instance.Key), nil)
	}
	instances[instance.Key] = instance
	return nil
}

func (s *Snapshot) Get(kind string, key string) (Instance, bool) {
	instance, ok := s.byKind[kind][key]
	return instance, ok
}

// Instances returns the kind's instances sorted by identity key, so
// every traversal of a snapshot is deterministic.
func (s *Snapshot) Instances(kind string) []Instance {
	instances := make([]Instance, 0, len(s.byKind[kind]))
	for _, instance := range s.byKind[kind] {
		instances = append(instances, instance)
	}
	sort.Slice(instances, func(a, b int) bool {
		return instances[a].Key < instances[b].Key
	})
	return instances
}

func (s *Snapshot) Count(kind string) int {
	return len(s.byKind[kind])
}
