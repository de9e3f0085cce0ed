package mnode

import (
	"os"
	"path/filepath"
	"weak"

	"github.com/n2a-go/mstore/internal/diagnostics"
)

// Dir is a Group rooted at a directory on disk: each child key maps
// to a file or subdirectory directly under root. When suffix is
// non-empty, the document file actually lives at root/key/suffix,
// which lets root/key be a subdirectory holding both the document and
// arbitrary sibling files (preserved across every operation except
// Move/ClearChild, which recursively remove root/key).
//
// Dir reuses every Group behaviour unchanged — GetChild, SetChild,
// ClearChild, Move, Save, Reload, NodeChanged — by reconfiguring
// Group's path-mapping and scan hooks rather than re-implementing
// them.
type Dir struct {
	*Group
	root   string
	suffix string
}

var _ Node = (*Dir)(nil)

// NewDir creates a directory-backed document group rooted at root. An
// empty suffix means each document file is root/key directly; a
// non-empty suffix means root/key is a subdirectory and the document
// lives at root/key/suffix.
func NewDir(root, suffix string, codec Codec, sink diagnostics.Sink) *Dir {
	if err := os.MkdirAll(root, 0o755); err != nil && sink != nil {
		sink.Report("scan", root, err)
	}
	d := &Dir{
		Group:  NewGroup(root, codec, sink),
		root:   root,
		suffix: suffix,
	}
	d.Group.scanned = false
	d.Group.self = d
	d.Group.pathForDocFn = d.pathForDoc
	d.Group.pathForFileFn = d.pathForFile
	d.Group.existsFn = d.exists
	d.Group.scanFn = d.scanDisk
	return d
}

func (d *Dir) pathForDoc(key string) string {
	p := filepath.Join(d.root, key)
	if d.suffix != "" {
		p = filepath.Join(p, d.suffix)
	}
	return p
}

func (d *Dir) pathForFile(key string) string {
	return filepath.Join(d.root, key)
}

// exists reports whether key should be treated as present: either its
// document file exists, or (when suffix is set) its containing
// subdirectory exists even though the suffix file hasn't been written
// yet.
func (d *Dir) exists(key string) bool {
	if _, err := os.Stat(d.pathForDoc(key)); err == nil {
		return true
	}
	if d.suffix == "" {
		return false
	}
	_, err := os.Stat(d.pathForFile(key))
	return err == nil
}

// scanDisk lists root, filtering out dotfiles (so a sibling .git
// directory co-exists invisibly) and, when suffix is set, anything
// that isn't itself a directory.
func (d *Dir) scanDisk() map[string]bool {
	result := map[string]bool{}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		d.sink.Report("scan", d.root, err)
		return result
	}
	for _, entry := range entries {
		name := entry.Name()
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		if d.suffix != "" && !entry.IsDir() {
			continue
		}
		result[name] = true
	}
	return result
}

// Key implements Node, overriding Group's to report the root path.
func (d *Dir) Key() string { return d.root }

// GetValue implements Node, reporting the root's absolute path.
func (d *Dir) GetValue() string {
	abs, err := filepath.Abs(d.root)
	if err != nil {
		return d.root
	}
	return abs
}

// IsDefined implements Node: a Dir is defined whenever its root is
// non-empty.
func (d *Dir) IsDefined() bool { return d.root != "" }

// SetValue relocates the directory's root: flushes the write queue,
// then records the new root. The caller is responsible for physically
// relocating the directory on disk before subsequent access, matching
// the documented sequence (Save, move on disk, point at new root).
func (d *Dir) SetValue(value *string) {
	if value == nil {
		return
	}
	d.Group.Save()
	d.root = *value
	d.Group.scanned = false
}

// ClearAll empties the directory: drops the cache and write queue, and
// recursively deletes the entire root directory from disk. This is
// irreversible; the directory is re-created lazily the next time a
// document under it is saved.
func (d *Dir) ClearAll() {
	d.Group.children = map[string]weak.Pointer[Document]{}
	d.Group.writeQueue = map[string]*Document{}
	d.Group.deleteTree(d.GetValue())
}
