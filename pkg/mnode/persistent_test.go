package mnode

import "testing"

func TestPersistentDirtyPropagation(t *testing.T) {
	root := NewPersistent(nil, "")
	child := root.SetChild("a", nil)
	grandchild := child.SetChild("b", nil)

	root.ClearChanged()

	grandchild.SetValue(str("1"))

	if !grandchild.(*Persistent).NeedsWrite() {
		t.Fatal("grandchild should be marked dirty")
	}
	if !child.(*Persistent).NeedsWrite() {
		t.Fatal("dirty bit should propagate to parent")
	}
	if !root.NeedsWrite() {
		t.Fatal("dirty bit should propagate to the root")
	}
}

func TestPersistentClearChangedResetsSubtree(t *testing.T) {
	root := NewPersistent(nil, "")
	child := root.SetChild("a", str("1"))
	_ = child

	if !root.NeedsWrite() {
		t.Fatal("creating a child should mark the root dirty")
	}
	root.ClearChanged()
	if root.NeedsWrite() {
		t.Fatal("ClearChanged should clear the root")
	}
	if child.(*Persistent).NeedsWrite() {
		t.Fatal("ClearChanged should clear the whole subtree")
	}
}

func TestPersistentNoOpWriteDoesNotDirty(t *testing.T) {
	root := NewPersistent("1", "")
	root.ClearChanged()
	root.SetValue(str("1"))
	if root.NeedsWrite() {
		t.Fatal("setting an identical value should not mark the node dirty")
	}
}

func TestPersistentMoveChildMarksChanged(t *testing.T) {
	root := NewPersistent(nil, "")
	child := root.SetChild("foo", str("1"))
	root.ClearChanged()

	root.MoveChild("foo", "bar")

	if root.GetChild("foo") != nil {
		t.Fatal("foo should be gone after move")
	}
	moved := root.GetChild("bar")
	if moved != child {
		t.Fatal("MoveChild should preserve identity")
	}
	if !root.NeedsWrite() {
		t.Fatal("move should mark the root dirty")
	}
}

func TestPersistentOnceDirtyStaysDirty(t *testing.T) {
	root := NewPersistent(nil, "")
	calls := 0
	root.onRootChanged = func() { calls++ }
	root.SetChild("a", str("1"))
	root.SetChild("b", str("2"))
	if calls != 1 {
		t.Fatalf("onRootChanged should fire once on the clean-to-dirty transition, fired %d times", calls)
	}
}
