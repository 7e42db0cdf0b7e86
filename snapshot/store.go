package snapshot

import (
	"context"

	"github.com/crmarques/confsync/resource"
)

// Store persists snapshots as a file tree owned by version control: one
// subdirectory per kind, one file per instance.
//
// Round-trip law: Read(Write(S)) is equal to S under the Resource
// Model's equality relation. Byte equality of the files is guaranteed
// for identical content, so git diffs stay meaningful.
type Store interface {
	// Write persists the snapshot. Files for known kinds whose instance
	// disappeared are pruned; unrelated files and directories under the
	// root are left untouched.
	Write(ctx context.Context, model *resource.Model, snap *resource.Snapshot) error

	// Read loads the snapshot back, ignoring anything under the root
	// that does not belong to a known kind.
	Read(ctx context.Context, model *resource.Model) (*resource.Snapshot, error)
}
