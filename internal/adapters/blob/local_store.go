package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/storedir/backend/internal/domain/providers"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// LocalStore implements BlobStore on the local filesystem. References are
// the bare file names, so they stay valid if the base directory moves.
type LocalStore struct {
	dir string
}

var _ providers.BlobStore = (*LocalStore)(nil)

// NewLocalStore creates a local blob store rooted at dir, creating it if
// needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Put stores data under the given name and returns the reference
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = filepath.Base(name) // no path traversal
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", apperrors.NewValidationError("blob name is empty")
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", apperrors.NewInternalError("failed to write blob", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", apperrors.NewInternalError("failed to finalize blob", err)
	}

	return name, nil
}

// Remove deletes a stored blob; missing blobs are not an error
func (s *LocalStore) Remove(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ref = filepath.Base(strings.TrimSpace(ref))
	if ref == "" || ref == "." {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !os.IsNotExist(err) {
		return apperrors.NewInternalError("failed to remove blob", err)
	}
	return nil
}
