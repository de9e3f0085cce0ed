package mnode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Depth counts edges from n up to root, or to the actual root if root
// is not on n's ancestor chain.
func Depth(n Node, root Node) int {
	depth := 0
	cur := n
	for {
		if cur == root {
			return depth
		}
		p := cur.Parent()
		if p == nil {
			return depth
		}
		cur = p
		depth++
	}
}

// KeyPath returns the ordered keys from just below root down to n.
func KeyPath(n Node, root Node) []string {
	depth := Depth(n, root)
	result := make([]string, depth)
	cur := n
	for i := depth; i >= 1; i-- {
		result[i-1] = cur.Key()
		cur = cur.Parent()
	}
	return result
}

// KeyPathString joins KeyPath with ".".
func KeyPathString(n Node, root Node) string {
	return strings.Join(KeyPath(n, root), ".")
}

// LCA returns the last common ancestor of a and b, or nil if they
// share no ancestor.
func LCA(a, b Node) Node {
	ancestors := map[Node]bool{}
	for cur := a; cur != nil; cur = cur.Parent() {
		ancestors[cur] = true
	}
	for cur := b; cur != nil; cur = cur.Parent() {
		if ancestors[cur] {
			return cur
		}
	}
	return nil
}

// Child descends through keys, returning nil if any segment is absent.
func Child(n Node, keys ...string) Node {
	cur := n
	for _, k := range keys {
		if cur == nil {
			return nil
		}
		cur = cur.GetChild(k)
	}
	return cur
}

// ChildOrCreate descends through keys, creating missing segments as
// undefined nodes.
func ChildOrCreate(n Node, keys ...string) Node {
	cur := n
	for _, k := range keys {
		c := cur.GetChild(k)
		if c == nil {
			c = cur.SetChild(k, nil)
		}
		cur = c
	}
	return cur
}

// emptyNode is a detached, childless stand-in returned by ChildOrEmpty
// when the requested path doesn't exist. It is safe only for reading
// and iteration.
type emptyNode struct{}

func (emptyNode) Key() string                   { return "" }
func (emptyNode) Parent() Node                  { return nil }
func (emptyNode) Size() int                     { return 0 }
func (emptyNode) IsDefined() bool               { return false }
func (emptyNode) GetValue() string              { return "" }
func (emptyNode) SetValue(*string)              {}
func (emptyNode) GetChild(string) Node          { return nil }
func (emptyNode) SetChild(string, *string) Node { return emptyNode{} }
func (emptyNode) ClearChild(string)             {}
func (emptyNode) Children() []Node              { return nil }

// ChildOrEmpty is a convenience for iterating over a possibly-absent
// sub-node.
func ChildOrEmpty(n Node, keys ...string) Node {
	c := Child(n, keys...)
	if c == nil {
		return emptyNode{}
	}
	return c
}

// ContainsKey performs a deep search: true if n or any descendant has
// a child named key.
func ContainsKey(n Node, key string) bool {
	if n.GetChild(key) != nil {
		return true
	}
	for _, c := range n.Children() {
		if ContainsKey(c, key) {
			return true
		}
	}
	return false
}

// Get returns the value at the given path, or "" if absent/undefined.
func Get(n Node, keys ...string) string {
	c := Child(n, keys...)
	if c == nil || !c.IsDefined() {
		return ""
	}
	return c.GetValue()
}

// GetOrDefaultString returns the value at keys, or def if
// absent/undefined/empty.
func GetOrDefaultString(n Node, def string, keys ...string) string {
	v := Get(n, keys...)
	if v == "" {
		return def
	}
	return v
}

// GetOrDefaultBool coerces the value at keys to bool
// ("1" -> true, anything else non-empty but present -> as parsed),
// falling back to def when absent/undefined/empty. Bool coercion can
// never fail: it is simply strip()=="1".
func GetOrDefaultBool(n Node, def bool, keys ...string) bool {
	v := Get(n, keys...)
	if v == "" {
		return def
	}
	return strings.TrimSpace(v) == "1"
}

// GetBoolean is the zero-default form of GetOrDefaultBool.
func GetBoolean(n Node, keys ...string) bool {
	return GetOrDefaultBool(n, false, keys...)
}

// GetFlag implements flag semantics: a flag defaults to true if the
// node exists at all. Non-existent, or value "0", is false.
func GetFlag(n Node, keys ...string) bool {
	c := Child(n, keys...)
	if c == nil {
		return false
	}
	if strings.TrimSpace(c.GetValue()) == "0" {
		return false
	}
	return true
}

// GetOrDefaultInt coerces the value at keys to int via round(float(v)),
// falling back to def when absent/undefined/empty/unparseable.
func GetOrDefaultInt(n Node, def int, keys ...string) int {
	v := Get(n, keys...)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return int(math.Round(f))
}

// GetOrDefaultFloat coerces the value at keys to float64, falling back
// to def when absent/undefined/empty/unparseable.
func GetOrDefaultFloat(n Node, def float64, keys ...string) float64 {
	v := Get(n, keys...)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Set stores value at the path named by keys. If value is a Node, the
// target is cleared of its current value/children and then merged
// with it. Otherwise value is stringified (bool -> "1"/"0", everything
// else via fmt.Sprint) and stored as the target's value.
func Set(n Node, value interface{}, keys ...string) Node {
	target := ChildOrCreate(n, keys...)
	if src, ok := value.(Node); ok {
		target.SetValue(nil)
		for _, c := range target.Children() {
			target.ClearChild(c.Key())
		}
		Merge(target, src)
		return target
	}
	target.SetValue(str(stringify(value)))
	return target
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "1"
		}
		return "0"
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// SetTruncated stores round(v*10^precision)/10^precision at the given
// path, with trailing zeroes and a trailing "." stripped.
func SetTruncated(n Node, v float64, precision int, keys ...string) Node {
	scale := math.Pow(10, float64(precision))
	truncated := math.Round(v*scale) / scale
	s := strconv.FormatFloat(truncated, 'f', -1, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return Set(n, s, keys...)
}

// Merge deep-copies other into dst: dst's value is replaced only if
// other is defined, and every child of other is recursively merged
// into a same-keyed (created if absent) child of dst.
func Merge(dst, other Node) {
	if other.IsDefined() {
		dst.SetValue(str(other.GetValue()))
	}
	for _, oc := range other.Children() {
		key := oc.Key()
		c := dst.GetChild(key)
		if c == nil {
			c = dst.SetChild(key, nil)
		}
		Merge(c, oc)
	}
}

// MergeUnder deep-copies other into dst without overwriting any value
// dst already has; dst's value is only set when it was undefined.
func MergeUnder(dst, other Node) {
	if !dst.IsDefined() && other.IsDefined() {
		dst.SetValue(str(other.GetValue()))
	}
	for _, oc := range other.Children() {
		key := oc.Key()
		c := dst.GetChild(key)
		if c == nil {
			c = dst.SetChild(key, nil)
			Merge(c, oc)
		} else {
			MergeUnder(c, oc)
		}
	}
}

// UniqueNodes modifies self in place so that it contains only the
// nodes that are not present (as a value) in other, implicitly keeping
// parents of such nodes (undefined if other defines them).
func UniqueNodes(self, other Node) {
	if other.IsDefined() {
		self.SetValue(nil)
	}
	for _, c := range self.Children() {
		key := c.Key()
		d := other.GetChild(key)
		if d == nil {
			continue
		}
		UniqueNodes(c, d)
		if c.Size() == 0 && !c.IsDefined() {
			self.ClearChild(key)
		}
	}
}

// UniqueValues modifies self in place so it contains only nodes that
// differ in value from other; parent nodes that aren't themselves
// differences are left undefined.
func UniqueValues(self, other Node) {
	if self.IsDefined() && other.IsDefined() && self.GetValue() == other.GetValue() {
		self.SetValue(nil)
	}
	for _, c := range self.Children() {
		key := c.Key()
		d := other.GetChild(key)
		if d == nil {
			continue
		}
		UniqueValues(c, d)
		if c.Size() == 0 && !c.IsDefined() {
			self.ClearChild(key)
		}
	}
}

// Changes modifies self in place to record what a merge of self into
// other would change: where self would overwrite a value in other, it
// keeps other's old value. Children of self that other lacks are
// dropped, since the merge would add them rather than change them.
// Removing those added nodes with UniqueNodes and then merging the
// result can revert such a merge.
func Changes(self, other Node) {
	if self.IsDefined() {
		if other.IsDefined() {
			v := other.GetValue()
			if self.GetValue() == v {
				self.SetValue(nil)
			} else {
				self.SetValue(str(v))
			}
		} else {
			self.SetValue(nil)
		}
	}
	for _, c := range self.Children() {
		key := c.Key()
		d := other.GetChild(key)
		if d == nil {
			self.ClearChild(key)
		} else {
			Changes(c, d)
		}
	}
}

// Move changes the key of a child of n from fromKey to toKey. A no-op
// if the keys are equal. Any existing node at toKey is replaced. If no
// child exists at fromKey, neither key exists afterward.
func Move(n Node, fromKey, toKey string) {
	if fromKey == toKey {
		return
	}
	n.ClearChild(toKey)
	source := n.GetChild(fromKey)
	if source == nil {
		return
	}
	dest := n.SetChild(toKey, nil)
	Merge(dest, source)
	n.ClearChild(fromKey)
}

// Visitor is called once per node during a depth-first, pre-order
// Visit. Returning false skips descent below that node.
type Visitor func(Node) bool

// Visit walks the tree rooted at n, depth-first pre-order.
func Visit(n Node, v Visitor) {
	if !v(n) {
		return
	}
	for _, c := range n.Children() {
		Visit(c, v)
	}
}

// Equals performs a deep comparison: same key, value, child count, and
// recursively equal children by matching keys.
func Equals(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Key() != b.Key() {
		return false
	}
	return equalsRecursive(a, b)
}

func equalsRecursive(a, b Node) bool {
	if a.IsDefined() != b.IsDefined() {
		return false
	}
	if a.GetValue() != b.GetValue() {
		return false
	}
	if a.Size() != b.Size() {
		return false
	}
	for _, ac := range a.Children() {
		bc := b.GetChild(ac.Key())
		if bc == nil || !equalsRecursive(ac, bc) {
			return false
		}
	}
	return true
}

// StructureEquals compares only key structure, ignoring values.
func StructureEquals(a, b Node) bool {
	if a.Size() != b.Size() {
		return false
	}
	for _, ac := range a.Children() {
		bc := b.GetChild(ac.Key())
		if bc == nil || !StructureEquals(ac, bc) {
			return false
		}
	}
	return true
}
