package fsstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/crmarques/confsync/faults"
	"github.com/crmarques/confsync/resource"
	"github.com/crmarques/confsync/snapshot"
	"github.com/crmarques/confsync/yamlutil"
)

const snapshotFileExt = ".yaml"

var _ snapshot.Store = (*Store)(nil)

// Store persists snapshots under a root directory, one subdirectory per
// kind, one YAML file per instance. Writes are atomic (temp file plus
// rename) and byte-stable for identical content.
type Store struct {
	rootDir string
}

func New(rootDir string) *Store {
	return &Store{rootDir: filepath.Clean(rootDir)}
}

func (s *Store) RootDir() string {
	return s.rootDir
}

func (s *Store) Write(_ context.Context, model *resource.Model, snap *resource.Snapshot) error {
	if s.rootDir == "" {
		return validationError("snapshot root directory must not be empty", nil)
	}
	if err := os.MkdirAll(s.rootDir, 0o755); err != nil {
		return internalError("failed to create snapshot root", err)
	}

	for _, kind := range model.Kinds() {
		if err := s.writeKind(kind, snap); err != nil {
			return fmt.Errorf("writing %s: %w", kind.Name, err)
		}
	}
	return nil
}

func (s *Store) writeKind(kind resource.Kind, snap *resource.Snapshot) error {
	kindDir := filepath.Join(s.rootDir, kind.Name)
	instances := snap.Instances(kind.Name)
	if len(instances) > 0 {
		if err := os.MkdirAll(kindDir, 0o755); err != nil {
			return internalError("failed to create kind directory", err)
		}
	}

	written := make(map[string]struct{}, len(instances))
	for _, instance := range instances {
		fileName := resource.Filename(kind, instance) + snapshotFileExt
		written[fileName] = struct{}{}
		if err := s.writeInstance(filepath.Join(kindDir, fileName), instance); err != nil {
			return err
		}
	}

	return s.pruneKindDir(kindDir, written)
}

func (s *Store) writeInstance(targetPath string, instance resource.Instance) error {
	normalized, err := resource.NormalizeObject(instance.Payload)
	if err != nil {
		return err
	}
	encoded, err := yamlutil.MarshalStable(normalized, 2)
	if err != nil {
		return internalError("failed to encode payload", err)
	}

	// Unchanged files are left alone so export never churns mtimes.
	if existing, readErr := os.ReadFile(targetPath); readErr == nil && bytes.Equal(existing, encoded) {
		return nil
	}

	tempFile, err := os.CreateTemp(filepath.Dir(targetPath), ".confsync-tmp-*")
	if err != nil {
		return internalError("failed to create temporary file", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(encoded); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return internalError("failed to write temporary payload", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return internalError("failed to finalize temporary payload", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return internalError("failed to replace payload file", err)
	}
	return nil
}

// pruneKindDir removes snapshot files for instances that no longer
// exist. Only files with the snapshot extension inside a known kind
// directory are candidates; everything else under the root belongs to
// someone else.
func (s *Store) pruneKindDir(kindDir string, written map[string]struct{}) error {
	entries, err := os.ReadDir(kindDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return internalError("failed to list kind directory", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snapshotFileExt) {
			continue
		}
		if _, keep := written[name]; keep {
			continue
		}
		if err := os.Remove(filepath.Join(kindDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return internalError("failed to prune stale snapshot file", err)
		}
	}
	return nil
}

func (s *Store) Read(_ context.Context, model *resource.Model) (*resource.Snapshot, error) {
	info, err := os.Stat(s.rootDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFoundError(fmt.Sprintf("snapshot directory %q does not exist", s.rootDir))
		}
		return nil, internalError("failed to inspect snapshot root", err)
	}
	if !info.IsDir() {
		return nil, validationError(fmt.Sprintf("snapshot root %q is not a directory", s.rootDir), nil)
	}

	snap := resource.NewSnapshot()
	for _, kind := range model.Kinds() {
		if err := s.readKind(kind, snap); err != nil {
			return nil, fmt.Errorf("reading %s: %w", kind.Name, err)
		}
	}
	return snap, nil
}

func (s *Store) readKind(kind resource.Kind, snap *resource.Snapshot) error {
	kindDir := filepath.Join(s.rootDir, kind.Name)
	entries, err := os.ReadDir(kindDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return internalError("failed to list kind directory", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(name, snapshotFileExt) && !strings.HasSuffix(name, ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(kindDir, name))
		if err != nil {
			return internalError(fmt.Sprintf("failed to read %s", name), err)
		}

		var payload map[string]any
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return validationError(fmt.Sprintf("file %s is not a valid resource document", name), err)
		}

		instance, err := resource.FromPayload(kind, payload)
		if err != nil {
			return fmt.Errorf("file %s: %w", name, err)
		}
		if err := snap.Add(kind.Name, instance); err != nil {
			return fmt.Errorf("file %s: %w", name, err)
		}
	}
	return nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
