package mnode

import "testing"

func TestVolatileUndefinedVsEmpty(t *testing.T) {
	v := NewVolatile(nil, "root")
	if v.IsDefined() {
		t.Fatal("nil value should leave node undefined")
	}
	empty := ""
	v.SetValue(&empty)
	if !v.IsDefined() {
		t.Fatal("setting \"\" should define the node")
	}
	if v.GetValue() != "" {
		t.Fatalf("GetValue() = %q, want empty string", v.GetValue())
	}
}

func TestVolatileObjectRoundTrip(t *testing.T) {
	v := NewVolatile(42, "n")
	if got := v.GetObject(); got != 42 {
		t.Fatalf("GetObject() = %v, want 42", got)
	}
	if got := v.GetValue(); got != "42" {
		t.Fatalf("GetValue() = %q, want \"42\"", got)
	}

	v.SetObject(true)
	if got := v.GetValue(); got != "1" {
		t.Fatalf("bool true should stringify to \"1\", got %q", got)
	}
}

func TestVolatileLink(t *testing.T) {
	owner := NewVolatile(nil, "owner")
	external := NewVolatile("v", "shared")
	externalHome := NewVolatile(nil, "home")
	externalHome.SetChild("shared", nil)

	owner.Link(external)

	if owner.GetChild("shared") != external {
		t.Fatal("Link should insert the exact node as a child")
	}
	if external.Parent() != nil {
		t.Fatal("Link must not rewrite the linked node's parent")
	}
}

func TestVolatileMoveChildPreservesIdentity(t *testing.T) {
	root := NewVolatile(nil, "")
	child := root.SetChild("foo", str("1"))

	root.MoveChild("foo", "bar")

	if root.GetChild("foo") != nil {
		t.Fatal("foo should no longer exist after move")
	}
	moved := root.GetChild("bar")
	if moved != child {
		t.Fatal("MoveChild should preserve object identity")
	}
	if moved.Key() != "bar" {
		t.Fatalf("moved node key = %q, want bar", moved.Key())
	}
}

func TestVolatileChildrenOrderIsMCollation(t *testing.T) {
	root := NewVolatile(nil, "")
	for _, k := range []string{"10", "abc", "2"} {
		root.SetChild(k, str("x"))
	}
	var keys []string
	for _, c := range root.Children() {
		keys = append(keys, c.Key())
	}
	want := []string{"2", "10", "abc"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("Children() order = %v, want %v", keys, want)
		}
	}
}

func TestVolatileClearAll(t *testing.T) {
	root := NewVolatile(nil, "")
	root.SetChild("a", str("1"))
	root.SetChild("b", str("2"))
	root.ClearAll()
	if root.Size() != 0 {
		t.Fatalf("Size() after ClearAll = %d, want 0", root.Size())
	}
}
