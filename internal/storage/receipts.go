// Package storage persists expense receipts. The production deployment writes
// to a local directory served publicly under /files/, preserving the
// receipts/{project_id}/{expense_id}_{epoch_ms}.{ext} layout of the bucket it
// replaces.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoredReceipt describes an uploaded receipt file.
type StoredReceipt struct {
	Path     string // storage-relative path, e.g. receipts/<project>/<expense>_<ts>.pdf
	URL      string // public download URL
	Filename string // original client filename
}

// ReceiptStore saves and deletes receipt files.
type ReceiptStore interface {
	Save(projectID, expenseID uuid.UUID, filename string, src io.Reader) (*StoredReceipt, error)
	Delete(storagePath string) error
}

// DiskReceiptStore keeps receipts on the local filesystem under root and
// serves them at baseURL/files/<path>.
type DiskReceiptStore struct {
	root    string
	baseURL string
}

func NewDiskReceiptStore(root, baseURL string) *DiskReceiptStore {
	return &DiskReceiptStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskReceiptStore) Save(projectID, expenseID uuid.UUID, filename string, src io.Reader) (*StoredReceipt, error) {
	ext := strings.ToLower(path.Ext(filename))
	name := fmt.Sprintf("%s_%d%s", expenseID, time.Now().UnixMilli(), ext)
	relPath := path.Join("receipts", projectID.String(), name)

	fullPath := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(fullPath)
		return nil, err
	}

	return &StoredReceipt{
		Path:     relPath,
		URL:      s.baseURL + "/files/" + relPath,
		Filename: filename,
	}, nil
}

func (s *DiskReceiptStore) Delete(storagePath string) error {
	clean := path.Clean("/" + storagePath)
	// Refuse anything that escapes the receipts tree.
	if !strings.HasPrefix(clean, "/receipts/") {
		return fmt.Errorf("invalid receipt path %q", storagePath)
	}
	return os.Remove(filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
}

// PathFromURL recovers the storage path (receipts/<project>/<file>) from a
// stored public URL. The path is always the last three URL segments.
func PathFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) < 3 {
		return ""
	}
	return strings.Join(parts[len(parts)-3:], "/")
}
