package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestDiskReceiptStoreSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store := NewDiskReceiptStore(root, "/files")

	projectID, expenseID := uuid.New(), uuid.New()
	stored, err := store.Save(projectID, expenseID, "Factura.PDF", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if !strings.HasPrefix(stored.Path, "receipts/"+projectID.String()+"/") {
		t.Errorf("Path = %q, want receipts/%s/... prefix", stored.Path, projectID)
	}
	if !strings.HasSuffix(stored.Path, ".pdf") {
		t.Errorf("Path = %q, want lowercase .pdf extension", stored.Path)
	}
	if !strings.Contains(stored.Path, expenseID.String()) {
		t.Errorf("Path = %q, want expense id %s in file name", stored.Path, expenseID)
	}
	if stored.Filename != "Factura.PDF" {
		t.Errorf("Filename = %q, want original client name", stored.Filename)
	}
	if stored.URL != "/files/"+stored.Path {
		t.Errorf("URL = %q, want /files/%s", stored.URL, stored.Path)
	}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(stored.Path)))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(content) != "pdf bytes" {
		t.Errorf("stored content = %q, want original bytes", content)
	}

	if err := store.Delete(stored.Path); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(stored.Path))); !os.IsNotExist(err) {
		t.Error("file still exists after Delete")
	}
}

func TestDiskReceiptStoreDeleteRefusesEscapes(t *testing.T) {
	store := NewDiskReceiptStore(t.TempDir(), "/files")

	for _, path := range []string{"../etc/passwd", "receipts/../../secret", "other/file.pdf", ""} {
		if err := store.Delete(path); err == nil {
			t.Errorf("Delete(%q) = nil, want error", path)
		}
	}
}

func TestPathFromURL(t *testing.T) {
	url := "/files/receipts/0f0e0d0c/abc_17000.pdf"
	if got := PathFromURL(url); got != "receipts/0f0e0d0c/abc_17000.pdf" {
		t.Errorf("PathFromURL(%q) = %q", url, got)
	}
	if got := PathFromURL("short"); got != "" {
		t.Errorf("PathFromURL(short) = %q, want empty", got)
	}
}
