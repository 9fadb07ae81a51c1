package files

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/avillegas/chatrelay/internal/domain"
)

// UploadStore keeps uploaded images in a flat directory. Names are random,
// so a stored image is never overwritten. Images orphaned by transcript
// edits are left behind on purpose.
type UploadStore struct {
	dir string
}

func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// Save writes data under a freshly generated name and returns it.
func (u *UploadStore) Save(data []byte) (string, error) {
	filename := uuid.NewString() + ".jpg"
	if err := os.WriteFile(filepath.Join(u.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return filename, nil
}

// Path resolves filename inside the upload directory, rejecting anything
// that could escape it.
func (u *UploadStore) Path(filename string) (string, error) {
	if filepath.Base(filename) != filename || filename == "." || filename == ".." {
		return "", domain.ErrNotFound
	}
	p := filepath.Join(u.dir, filename)
	if _, err := os.Stat(p); err != nil {
		return "", domain.ErrNotFound
	}
	return p, nil
}
