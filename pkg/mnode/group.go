package mnode

import (
	"os"
	"regexp"
	"sort"
	"strings"
	"weak"

	"github.com/n2a-go/mstore/internal/diagnostics"
	"github.com/n2a-go/mstore/log"
)

// Group is a non-leaf node whose children are Documents, addressed by
// an arbitrary key. The base "free group" flavour takes the key to be
// the document's literal path on disk; Dir reconfigures the path
// mapping and adds a directory scan, via the function fields below,
// rather than through Go method overriding. Dir overrides only Key,
// GetValue, IsDefined and SetValue; every other behaviour in this file
// is shared verbatim by both flavours.
//
// Storage contract: children holds, per indexed key, a weak reference
// to the Document; writeQueue holds strong references to dirty
// documents until Save flushes them. A document cannot be collected
// while it still needs to be written, because the write queue keeps it
// alive; once flushed, the queue entry is dropped and the document
// becomes collectible the moment nothing else references it.
type Group struct {
	key        string
	parent     Node
	children   map[string]weak.Pointer[Document]
	writeQueue map[string]*Document
	codec      Codec
	sink       diagnostics.Sink

	// pathForDocFn maps a key to the document's own file.
	pathForDocFn func(key string) string
	// pathForFileFn maps a key to what move/delete act on. Identical to
	// pathForDocFn except for a Dir with a non-empty suffix.
	pathForFileFn func(key string) string
	// existsFn reports whether key should be considered present on
	// disk, even if its document file specifically is missing (a Dir
	// with a suffix tolerates an existing subdirectory that simply
	// hasn't been written to yet).
	existsFn func(key string) bool
	// scanFn, if set, returns the complete key set currently on disk.
	// nil for the base free group, which has nothing to scan: keys
	// only become known via SetChild.
	scanFn func() map[string]bool

	scanned bool

	// self is the Node identity handed to child Documents as their
	// Parent(). It defaults to the Group itself; Dir rebinds it to
	// itself so documents report the richer Dir identity (root path,
	// IsDefined) as their parent instead of the embedded Group.
	self Node
}

var _ Node = (*Group)(nil)

// NewGroup creates an empty free group addressed by key (conventionally
// unused as a path prefix — each child key is itself a full path).
func NewGroup(key string, codec Codec, sink diagnostics.Sink) *Group {
	if sink == nil {
		sink = diagnostics.LogSink
	}
	g := &Group{
		key:        key,
		children:   map[string]weak.Pointer[Document]{},
		writeQueue: map[string]*Document{},
		codec:      codec,
		sink:       sink,
		scanned:    true, // nothing to scan
	}
	g.pathForDocFn = func(k string) string { return k }
	g.pathForFileFn = g.pathForDocFn
	g.existsFn = func(k string) bool {
		_, err := os.Stat(g.pathForDocFn(k))
		return err == nil
	}
	g.self = g
	return g
}

func (g *Group) pathForDoc(key string) string  { return g.pathForDocFn(key) }
func (g *Group) pathForFile(key string) string { return g.pathForFileFn(key) }

// Key implements Node.
func (g *Group) Key() string { return g.key }

// Parent implements Node.
func (g *Group) Parent() Node { return g.parent }

// IsDefined implements Node. A group never carries a scalar value.
func (g *Group) IsDefined() bool { return false }

// GetValue implements Node.
func (g *Group) GetValue() string { return "" }

// SetValue implements Node; groups don't carry a value, so this is a
// no-op in the base flavour (Dir overrides it to relocate the root).
func (g *Group) SetValue(*string) {}

// ensureScanned runs the directory scan (if any) exactly once,
// merging freshly discovered keys into the index while preserving any
// already-cached weak references.
func (g *Group) ensureScanned() {
	if g.scanned || g.scanFn == nil {
		return
	}
	g.mergeScan(g.scanFn())
	g.scanned = true
}

func (g *Group) mergeScan(onDisk map[string]bool) {
	merged := map[string]weak.Pointer[Document]{}
	for key := range onDisk {
		merged[key] = g.children[key]
	}
	for key := range g.writeQueue {
		merged[key] = g.children[key]
	}
	g.children = merged
}

// Size implements Node.
func (g *Group) Size() int {
	g.ensureScanned()
	return len(g.children)
}

// GetChild implements Node: if key was never indexed, returns nil.
// Otherwise follows the weak reference, re-materialising an Unloaded
// Document if the reference has died but the backing file still
// exists.
func (g *Group) GetChild(key string) Node {
	g.ensureScanned()
	if key == "" {
		return nil
	}
	ref, indexed := g.children[key]
	if !indexed {
		return nil
	}
	if doc := ref.Value(); doc != nil {
		return doc
	}
	if !g.existsFn(key) {
		return nil
	}
	doc := newGroupedDocument(key, g.self, g, g.codec, g.sink)
	g.children[key] = weak.Make(doc)
	return doc
}

// SetChild implements Node. value is ignored: a Document's contents
// come from disk, not from a scalar argument. A freshly created
// document whose file doesn't yet exist is enqueued for save.
func (g *Group) SetChild(key string, _ *string) Node {
	g.ensureScanned()
	if existing := g.GetChild(key); existing != nil {
		return existing
	}
	doc := newGroupedDocument(key, g.self, g, g.codec, g.sink)
	g.children[key] = weak.Make(doc)
	if !g.existsFn(key) {
		doc.MarkChanged()
	}
	return doc
}

// ClearChild implements Node: drops the key from the cache and write
// queue, then recursively deletes pathForFile(key) from disk.
func (g *Group) ClearChild(key string) {
	delete(g.children, key)
	delete(g.writeQueue, key)
	g.deleteTree(g.pathForFile(key))
}

// deleteTree recursively removes path, reporting (not propagating)
// any failure.
func (g *Group) deleteTree(path string) {
	if err := os.RemoveAll(path); err != nil {
		g.sink.Report("delete", path, err)
	}
}

// Children implements Node, in M collation order.
func (g *Group) Children() []Node {
	g.ensureScanned()
	keys := make([]string, 0, len(g.children))
	for k := range g.children {
		keys = append(keys, k)
	}
	sortKeys(keys)
	result := make([]Node, 0, len(keys))
	for _, k := range keys {
		if c := g.GetChild(k); c != nil {
			result = append(result, c)
		}
	}
	return result
}

// enqueue adds doc to the strong-reference write queue, keeping it
// alive until Save flushes it.
func (g *Group) enqueue(doc *Document) {
	g.writeQueue[doc.Key()] = doc
}

// Save iterates the write queue, saving each dirty document, then
// clears the queue — releasing the strong references so documents
// with no other referent become collectible.
func (g *Group) Save() {
	keys := make([]string, 0, len(g.writeQueue))
	for k := range g.writeQueue {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g.writeQueue[k].Save()
	}
	g.writeQueue = map[string]*Document{}
}

// Move first saves (flushing any pending writes for fromKey), then
// atomically renames pathForFile(fromKey) to pathForFile(toKey),
// deleting any existing destination first. The cache entry is updated
// in place so a reference held before the move remains valid, with its
// key renamed.
func (g *Group) Move(fromKey, toKey string) {
	if fromKey == toKey {
		return
	}
	g.Save()

	fromPath := g.pathForFile(fromKey)
	toPath := g.pathForFile(toKey)
	log.DEBUG("moving %s to %s", fromPath, toPath)
	if _, err := os.Stat(toPath); err == nil {
		g.deleteTree(toPath)
	}
	if err := os.Rename(fromPath, toPath); err != nil {
		g.sink.Report("move", fromPath, err)
		return
	}

	delete(g.children, toKey)
	if ref, ok := g.children[fromKey]; ok {
		delete(g.children, fromKey)
		if doc := ref.Value(); doc != nil {
			doc.docKey = toKey
		}
		g.children[toKey] = ref
	}
}

// Reload marks every currently cached document Unloaded, without
// writing, and re-scans (if this group has a scan source) to refresh
// the key set while preserving object identity where possible.
func (g *Group) Reload() {
	g.scanned = false
	g.ensureScanned()
	for _, ref := range g.children {
		if doc := ref.Value(); doc != nil {
			doc.Persistent.needsWrite = false
			doc.Persistent.children = nil
		}
	}
}

// NodeChanged signals that the file for key changed on disk outside
// this process (e.g. a VCS checkout). If the file no longer exists,
// the cache entry is dropped; otherwise, if cached and live, the
// document is reset to Unloaded so the next access reloads it.
func (g *Group) NodeChanged(key string) {
	if key == "" {
		return
	}
	if !g.existsFn(key) {
		delete(g.children, key)
		return
	}
	ref, ok := g.children[key]
	if !ok {
		return
	}
	if doc := ref.Value(); doc != nil {
		doc.Persistent.needsWrite = false
		doc.Persistent.children = nil
	}
}

var reservedDeviceName = regexp.MustCompile(`^(?:LPT|COM)\d`)

// SanitizeFilename applies the store's filename-acceptance rules: the
// characters \ / : * " < > | are replaced with -, and names that would
// collide with a reserved DOS device name (CON, PRN, AUX, NUL, LPTn,
// COMn) get an underscore appended. Callers are expected to run
// user-supplied keys through this before handing them to SetChild.
func SanitizeFilename(name string) string {
	name = strings.NewReplacer(
		`\`, "-", `/`, "-", `:`, "-", `*`, "-",
		`"`, "-", `<`, "-", `>`, "-", `|`, "-",
	).Replace(name)

	upper := strings.ToUpper(name)
	if upper == "CON" || upper == "PRN" || upper == "AUX" || upper == "NUL" || reservedDeviceName.MatchString(upper) {
		name += "_"
	}
	return name
}
