package mnode

// dirtyMarker is implemented by any node that participates in upward
// dirty-bit propagation (Persistent, and Document via its override).
type dirtyMarker interface {
	MarkChanged()
}

// Persistent is a Volatile-shaped node that tracks whether it (or any
// descendant) has been modified since the last save. Every mutation
// marks this node and, transitively, every persistent ancestor up to
// the nearest document root.
type Persistent struct {
	key        string
	value      interface{}
	defined    bool
	parent     Node
	children   map[string]*Persistent
	needsWrite bool

	// onRootChanged fires when this specific Persistent has a nil
	// parent (i.e. it is the dirty-chain root) and transitions from
	// clean to dirty. Document uses this to enqueue itself onto its
	// group's write queue without needing virtual dispatch through
	// the embedded struct.
	onRootChanged func()
}

var _ Node = (*Persistent)(nil)
var _ Objecter = (*Persistent)(nil)

// NewPersistent creates a detached persistent tree.
func NewPersistent(value interface{}, key string) *Persistent {
	p := &Persistent{key: key}
	if value != nil {
		p.value = value
		p.defined = true
	}
	return p
}

// Key implements Node.
func (p *Persistent) Key() string { return p.key }

// Parent implements Node.
func (p *Persistent) Parent() Node {
	if p.parent == nil {
		return nil
	}
	return p.parent
}

// Size implements Node.
func (p *Persistent) Size() int { return len(p.children) }

// IsDefined implements Node.
func (p *Persistent) IsDefined() bool { return p.defined }

// GetValue implements Node.
func (p *Persistent) GetValue() string {
	if !p.defined {
		return ""
	}
	return stringifyObject(p.value)
}

// GetObject implements Objecter.
func (p *Persistent) GetObject() interface{} { return p.value }

// SetObject implements Objecter. Unlike SetValue, this does not
// compare against the previous value before marking dirty, since
// arbitrary payloads are not guaranteed comparable.
func (p *Persistent) SetObject(value interface{}) {
	p.value = value
	p.defined = value != nil
	p.MarkChanged()
}

// SetValue implements Node. A no-op write (identical value) does not
// mark the node dirty.
func (p *Persistent) SetValue(value *string) {
	var newDefined bool
	var newValue interface{}
	if value != nil {
		newDefined = true
		newValue = *value
	}
	if p.defined == newDefined && (!newDefined || p.GetValue() == *value) {
		return
	}
	p.value = newValue
	p.defined = newDefined
	p.MarkChanged()
}

// GetChild implements Node.
func (p *Persistent) GetChild(key string) Node {
	if p.children == nil {
		return nil
	}
	c, ok := p.children[key]
	if !ok {
		return nil
	}
	return c
}

// SetChild implements Node.
func (p *Persistent) SetChild(key string, value *string) Node {
	if p.children == nil {
		p.children = map[string]*Persistent{}
	}
	existing, ok := p.children[key]
	if !ok {
		p.MarkChanged()
		child := &Persistent{key: key, parent: p}
		if value != nil {
			child.SetValue(value)
		}
		p.children[key] = child
		return child
	}
	if value != nil {
		existing.SetValue(value)
	}
	return existing
}

// ClearChild implements Node.
func (p *Persistent) ClearChild(key string) {
	if p.children == nil {
		return
	}
	if _, ok := p.children[key]; !ok {
		return
	}
	delete(p.children, key)
	p.MarkChanged()
}

// ClearAll removes every child, marking this node changed.
func (p *Persistent) ClearAll() {
	p.children = nil
	p.MarkChanged()
}

// Children implements Node, in M collation order.
func (p *Persistent) Children() []Node {
	if len(p.children) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p.children))
	for k := range p.children {
		keys = append(keys, k)
	}
	sortKeys(keys)
	result := make([]Node, len(keys))
	for i, k := range keys {
		result[i] = p.children[k]
	}
	return result
}

// MarkChanged sets this node's dirty bit and propagates it to every
// persistent ancestor. A node already marked dirty is left untouched,
// short-circuiting further propagation (its ancestors are already
// known dirty).
func (p *Persistent) MarkChanged() {
	if p.needsWrite {
		return
	}
	if dm, ok := p.parent.(dirtyMarker); ok {
		dm.MarkChanged()
	}
	p.needsWrite = true
	if p.parent == nil && p.onRootChanged != nil {
		p.onRootChanged()
	}
}

// ClearChanged resets the dirty bit on this node and its entire
// subtree, as performed after a successful save.
func (p *Persistent) ClearChanged() {
	p.needsWrite = false
	for _, c := range p.children {
		c.ClearChanged()
	}
}

// NeedsWrite reports this node's dirty bit.
func (p *Persistent) NeedsWrite() bool { return p.needsWrite }

// MoveChild relocates a child from fromKey to toKey in place,
// preserving object identity and marking the destination (and
// therefore this node, and every ancestor) as changed.
func (p *Persistent) MoveChild(fromKey, toKey string) {
	if toKey == fromKey || p.children == nil {
		return
	}
	if _, ok := p.children[toKey]; ok {
		delete(p.children, toKey)
	}
	source, ok := p.children[fromKey]
	if !ok {
		return
	}
	delete(p.children, fromKey)
	source.key = toKey
	p.children[toKey] = source
	source.MarkChanged() // also marks p, since p is source's parent
}
