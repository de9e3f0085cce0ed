package mnode

import (
	"os"
	"path/filepath"

	"github.com/n2a-go/mstore/internal/diagnostics"
	"github.com/n2a-go/mstore/log"
)

// Document is a dirty-tracking tree backed by a single file. It begins
// Unloaded (no in-memory children); the first structural access
// (GetChild, SetChild, ClearChild, Size, Children) triggers Load.
// Marking the document changed enqueues it in its group's write queue,
// if it belongs to one; Save flushes and clears the dirty bits.
type Document struct {
	*Persistent

	docKey string
	parent Node // the group/dir this document belongs to, or nil
	group  writeQueuer

	// standalonePath holds the file path for a document with no
	// group parent. Ignored when group != nil.
	standalonePath string

	codec Codec
	sink  diagnostics.Sink
}

// writeQueuer is the subset of Group/Dir a Document needs: how to
// resolve its own path and how to enqueue itself for a later Save.
type writeQueuer interface {
	pathForDoc(key string) string
	enqueue(doc *Document)
}

var _ Node = (*Document)(nil)

// NewStandaloneDocument creates a document not owned by any group,
// addressed directly by a file path.
func NewStandaloneDocument(path string, codec Codec, sink diagnostics.Sink) *Document {
	if sink == nil {
		sink = diagnostics.LogSink
	}
	d := &Document{
		Persistent:     &Persistent{},
		standalonePath: path,
		codec:          codec,
		sink:           sink,
	}
	d.Persistent.onRootChanged = func() {}
	return d
}

// newGroupedDocument creates a document owned by group under key. Not
// exported: groups construct these through their own SetChild/GetChild.
func newGroupedDocument(key string, parent Node, group writeQueuer, codec Codec, sink diagnostics.Sink) *Document {
	d := &Document{
		Persistent: &Persistent{key: key},
		docKey:     key,
		parent:     parent,
		group:      group,
		codec:      codec,
		sink:       sink,
	}
	d.Persistent.onRootChanged = func() {
		if d.group != nil {
			d.group.enqueue(d)
		}
	}
	return d
}

// Key implements Node.
func (d *Document) Key() string {
	if d.group != nil {
		return d.docKey
	}
	return d.Persistent.key
}

// Parent implements Node.
func (d *Document) Parent() Node { return d.parent }

// IsDefined implements Node. A document's value is its resolved path,
// which always exists once the document is constructed.
func (d *Document) IsDefined() bool { return true }

// GetValue implements Node, returning the document's resolved path on
// disk.
func (d *Document) GetValue() string {
	if d.group != nil {
		return d.group.pathForDoc(d.Key())
	}
	return d.standalonePath
}

// SetValue implements Node. For a standalone document this renames the
// underlying file; for a grouped document, the path is derived from
// the group's mapping and setting it is a no-op.
func (d *Document) SetValue(value *string) {
	if d.group != nil || value == nil {
		return
	}
	if *value == d.standalonePath {
		return
	}
	if err := os.Rename(d.standalonePath, *value); err != nil {
		d.sink.Report("move", d.standalonePath, err)
		return
	}
	d.standalonePath = *value
}

// Path reports the resolved on-disk path, identical to GetValue but
// named for callers that don't think in tree-node terms.
func (d *Document) Path() string { return d.GetValue() }

// Load reads the backing file into memory if it has not been loaded
// yet. Missing files are treated as an empty document. I/O failures
// are reported to the sink and leave the document as an empty,
// unloaded-but-marked-loaded tree.
func (d *Document) Load() {
	if d.loaded() {
		return
	}
	path := d.GetValue()
	log.DEBUG("loading document from %s", path)

	// Suppress dirty-marking while we build the tree: without this,
	// every SetChild call made while parsing would walk up and try to
	// enqueue this not-yet-loaded document.
	d.Persistent.needsWrite = true
	d.Persistent.children = map[string]*Persistent{}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			d.sink.Report("load", path, err)
		}
		d.Persistent.ClearChanged()
		return
	}
	defer f.Close()

	if d.codec != nil {
		if err := d.codec.ReadAll(d.Persistent, f); err != nil {
			d.sink.Report("load", path, err)
		}
	}
	d.Persistent.ClearChanged()
}

func (d *Document) loaded() bool {
	return d.Persistent.children != nil
}

// GetChild implements Node, triggering Load on first access.
func (d *Document) GetChild(key string) Node {
	d.Load()
	return d.Persistent.GetChild(key)
}

// SetChild implements Node, triggering Load on first access.
func (d *Document) SetChild(key string, value *string) Node {
	d.Load()
	return d.Persistent.SetChild(key, value)
}

// ClearChild implements Node, triggering Load on first access.
func (d *Document) ClearChild(key string) {
	d.Load()
	d.Persistent.ClearChild(key)
}

// Size implements Node, triggering Load on first access.
func (d *Document) Size() int {
	d.Load()
	return d.Persistent.Size()
}

// Children implements Node, triggering Load on first access.
func (d *Document) Children() []Node {
	d.Load()
	return d.Persistent.Children()
}

// MarkChanged marks the document dirty and, the first time this
// happens for a brand-new document, pins it as "loaded" so a later
// Load() doesn't clobber in-memory state that was never written to
// disk. It then enqueues the document on its group's write queue (via
// Persistent.onRootChanged, since this document is the root of its own
// dirty-propagation chain).
func (d *Document) MarkChanged() {
	if d.Persistent.needsWrite {
		return
	}
	if d.Persistent.children == nil {
		d.Persistent.children = map[string]*Persistent{}
	}
	d.Persistent.MarkChanged()
}

// Save flushes the in-memory tree to disk if dirty. No-op if clean.
func (d *Document) Save() {
	if !d.Persistent.needsWrite {
		return
	}
	path := d.GetValue()
	log.DEBUG("saving document to %s", path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.sink.Report("save", path, err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		d.sink.Report("save", path, err)
		return
	}
	defer f.Close()
	if d.codec != nil {
		if err := d.codec.WriteAll(d.Persistent, f); err != nil {
			d.sink.Report("save", path, err)
			return
		}
	}
	d.Persistent.ClearChanged()
}

// Delete removes this document's backing file. For a standalone
// document that means removing the file directly; for a grouped
// document, the group's ClearChild handles both the file and the
// in-memory bookkeeping.
func (d *Document) Delete() {
	if d.group == nil {
		if err := os.Remove(d.standalonePath); err != nil && !os.IsNotExist(err) {
			d.sink.Report("delete", d.standalonePath, err)
		}
		return
	}
	if g, ok := d.parent.(*Group); ok {
		g.ClearChild(d.Key())
		return
	}
	if dir, ok := d.parent.(*Dir); ok {
		dir.ClearChild(d.Key())
	}
}
