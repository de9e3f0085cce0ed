package mnode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/n2a-go/mstore/internal/diagnostics"
)

// lineCodec is a minimal stand-in for pkg/schema's real codec: one
// "key=value" line per child, no nesting, no escaping. It exists so
// mnode's own tests can exercise Document/Group/Dir persistence
// without importing pkg/schema, which itself imports mnode.
type lineCodec struct{}

func (lineCodec) ReadAll(root Node, r io.Reader) error {
	for _, c := range root.Children() {
		root.ClearChild(c.Key())
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		root.SetChild(parts[0], str(parts[1]))
	}
	return nil
}

func (lineCodec) WriteAll(root Node, w io.Writer) error {
	for _, c := range root.Children() {
		if _, err := fmt.Fprintf(w, "%s=%s\n", c.Key(), c.GetValue()); err != nil {
			return err
		}
	}
	return nil
}

func TestDocumentLazyLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("a=1\nb=2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := NewStandaloneDocument(path, lineCodec{}, diagnostics.NopSink)
	if doc.Size() != 2 {
		t.Fatalf("Size() = %d, want 2 (first access should lazily load)", doc.Size())
	}
	if got := Get(doc, "a"); got != "1" {
		t.Fatalf("Get(a) = %q, want 1", got)
	}
}

func TestDocumentMissingFileLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	doc := NewStandaloneDocument(filepath.Join(dir, "absent.txt"), lineCodec{}, diagnostics.NopSink)
	if doc.Size() != 0 {
		t.Fatalf("Size() on a missing file = %d, want 0", doc.Size())
	}
}

func TestDocumentSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "doc.txt")
	doc := NewStandaloneDocument(path, lineCodec{}, diagnostics.NopSink)
	doc.SetChild("x", str("42"))
	doc.Save()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("save should have created parent directories and the file: %v", err)
	}
	if string(data) != "x=42\n" {
		t.Fatalf("file contents = %q, want x=42", string(data))
	}
	if doc.NeedsWrite() {
		t.Fatal("save should clear the dirty bit")
	}
}

func TestDocumentSaveNoOpWhenClean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	doc := NewStandaloneDocument(path, lineCodec{}, diagnostics.NopSink)
	doc.Save() // never dirtied; must not create the file
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Save() on a clean document should be a no-op")
	}
}

func TestDocumentStandaloneSetValueRenames(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.txt")
	newPath := filepath.Join(dir, "new.txt")
	if err := os.WriteFile(oldPath, []byte("a=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := NewStandaloneDocument(oldPath, lineCodec{}, diagnostics.NopSink)
	doc.Load()

	newPathCopy := newPath
	doc.SetValue(&newPathCopy)

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatal("old path should no longer exist after rename")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatal("new path should exist after rename")
	}
	if doc.Path() != newPath {
		t.Fatalf("Path() = %q, want %q", doc.Path(), newPath)
	}
}

func TestDocumentStandaloneDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("a=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := NewStandaloneDocument(path, lineCodec{}, diagnostics.NopSink)
	doc.Delete()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Delete() should remove the file")
	}
}
