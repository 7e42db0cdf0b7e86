package gitstore

import (
	"context"
	"errors"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/crmarques/confsync/faults"
	"github.com/crmarques/confsync/internal/providers/snapshot/fsstore"
	"github.com/crmarques/confsync/resource"
	"github.com/crmarques/confsync/snapshot"
)

var _ snapshot.Store = (*Store)(nil)

// Store wraps the filesystem store with a git worktree, so an export can
// land as a commit. The snapshot tree stays owned by version control;
// this store only initializes the repository when asked and records
// changes, it never pushes.
type Store struct {
	local    *fsstore.Store
	autoInit bool
}

func New(rootDir string, autoInit bool) *Store {
	return &Store{
		local:    fsstore.New(rootDir),
		autoInit: autoInit,
	}
}

func (s *Store) Write(ctx context.Context, model *resource.Model, snap *resource.Snapshot) error {
	return s.local.Write(ctx, model, snap)
}

func (s *Store) Read(ctx context.Context, model *resource.Model) (*resource.Snapshot, error) {
	return s.local.Read(ctx, model)
}

// Commit stages everything under the snapshot root and commits it.
// Returns false when the worktree is clean.
func (s *Store) Commit(_ context.Context, message string) (bool, error) {
	repo, err := s.openRepository()
	if err != nil {
		return false, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, internalError("failed to open git worktree", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, internalError("failed to inspect git worktree status", err)
	}
	if status.IsClean() {
		return false, nil
	}

	if err := worktree.AddGlob("."); err != nil {
		return false, internalError("failed to stage snapshot changes", err)
	}

	commitMessage := strings.TrimSpace(message)
	if commitMessage == "" {
		commitMessage = "confsync: update configuration snapshot"
	}

	if _, err := worktree.Commit(commitMessage, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "confsync",
			Email: "confsync@local",
			When:  time.Now(),
		},
	}); err != nil {
		return false, internalError("failed to commit snapshot changes", err)
	}
	return true, nil
}

func (s *Store) openRepository() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(s.local.RootDir())
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, internalError("failed to open git repository", err)
	}
	if !s.autoInit {
		return nil, faults.NewTypedError(
			faults.ValidationError,
			"snapshot directory is not a git repository (initialize it or enable auto-init)",
			nil,
		)
	}

	repo, err = gogit.PlainInit(s.local.RootDir(), false)
	if err != nil {
		return nil, internalError("failed to initialize git repository", err)
	}
	return repo, nil
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
