package mnode

import (
	"fmt"
	"strconv"
)

// Volatile is a concrete, entirely in-memory Node. Unlike the plain
// Node contract, a Volatile's value may carry any typed payload (see
// Objecter); GetValue stringifies it on read.
type Volatile struct {
	key      string
	value    interface{}
	defined  bool
	parent   Node
	children map[string]Node
}

var _ Node = (*Volatile)(nil)
var _ Objecter = (*Volatile)(nil)

// NewVolatile creates a detached volatile tree. A nil value leaves the
// node undefined.
func NewVolatile(value interface{}, key string) *Volatile {
	v := &Volatile{key: key}
	if value != nil {
		v.value = value
		v.defined = true
	}
	return v
}

// Key implements Node.
func (v *Volatile) Key() string { return v.key }

// Parent implements Node.
func (v *Volatile) Parent() Node {
	if v.parent == nil {
		return nil
	}
	return v.parent
}

// Size implements Node.
func (v *Volatile) Size() int { return len(v.children) }

// IsDefined implements Node.
func (v *Volatile) IsDefined() bool { return v.defined }

// GetValue implements Node, stringifying any typed payload.
func (v *Volatile) GetValue() string {
	if !v.defined {
		return ""
	}
	return stringifyObject(v.value)
}

func stringifyObject(value interface{}) string {
	switch t := value.(type) {
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// GetObject implements Objecter, returning the raw payload without
// stringification.
func (v *Volatile) GetObject() interface{} {
	return v.value
}

// SetObject implements Objecter.
func (v *Volatile) SetObject(value interface{}) {
	v.value = value
	v.defined = value != nil
}

// SetValue implements Node.
func (v *Volatile) SetValue(value *string) {
	if value == nil {
		v.value = nil
		v.defined = false
		return
	}
	v.value = *value
	v.defined = true
}

// GetChild implements Node.
func (v *Volatile) GetChild(key string) Node {
	if v.children == nil {
		return nil
	}
	c, ok := v.children[key]
	if !ok {
		return nil
	}
	return c
}

// SetChild implements Node, creating the child as a *Volatile if
// absent, and setting its value when value is non-nil.
func (v *Volatile) SetChild(key string, value *string) Node {
	if v.children == nil {
		v.children = map[string]Node{}
	}
	existing, ok := v.children[key]
	if !ok {
		child := &Volatile{key: key, parent: v}
		if value != nil {
			child.SetValue(value)
		}
		v.children[key] = child
		return child
	}
	if value != nil {
		existing.SetValue(value)
	}
	return existing
}

// ClearChild implements Node.
func (v *Volatile) ClearChild(key string) {
	if v.children == nil {
		return
	}
	delete(v.children, key)
}

// ClearAll removes every child of v (the "clear()" operation with no
// arguments).
func (v *Volatile) ClearAll() {
	v.children = nil
}

// Children implements Node, returning children in M collation order.
func (v *Volatile) Children() []Node {
	if len(v.children) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v.children))
	for k := range v.children {
		keys = append(keys, k)
	}
	sortKeys(keys)
	result := make([]Node, len(keys))
	for i, k := range keys {
		result[i] = v.children[k]
	}
	return result
}

// Link inserts an externally-owned node as a child without adopting
// it: the child's parent link is left untouched. This is the
// "symbolic link" case — the inserted node establishes no special
// relationship with v and may simultaneously be a child elsewhere.
func (v *Volatile) Link(node Node) {
	if v.children == nil {
		v.children = map[string]Node{}
	}
	v.children[node.Key()] = node
}

// MoveChild relocates a child from fromKey to toKey, preserving object
// identity: a reference held before the move remains valid, with its
// key updated in place. This differs from the generic Move() derived
// operation, which always performs clear+merge+clear; MoveChild is the
// identity-preserving fast path available on concrete map-backed
// implementations.
func (v *Volatile) MoveChild(fromKey, toKey string) {
	if toKey == fromKey || v.children == nil {
		return
	}
	delete(v.children, toKey)
	source, ok := v.children[fromKey]
	if !ok {
		return
	}
	delete(v.children, fromKey)
	if vol, ok := source.(*Volatile); ok {
		vol.key = toKey
	}
	v.children[toKey] = source
}
