package yamlconv

import (
	"testing"

	"github.com/n2a-go/mstore/pkg/mnode"
)

func TestUnmarshalBuildsTree(t *testing.T) {
	root := mnode.NewVolatile(nil, "")
	data := []byte("a:\n  b: 1\n  c: two\n")
	if err := Unmarshal(data, root); err != nil {
		t.Fatal(err)
	}

	b := mnode.Child(root, "a", "b")
	if b == nil || b.GetValue() != "1" {
		t.Fatalf("a.b = %v, want 1", b)
	}
	c := mnode.Child(root, "a", "c")
	if c == nil || c.GetValue() != "two" {
		t.Fatalf("a.c = %v, want two", c)
	}
}

func TestMarshalRendersChildren(t *testing.T) {
	root := mnode.NewVolatile(nil, "")
	mnode.Set(root, "1", "a", "b")

	out, err := Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty YAML output")
	}

	roundTrip := mnode.NewVolatile(nil, "")
	if err := Unmarshal(out, roundTrip); err != nil {
		t.Fatal(err)
	}
	if got := mnode.Get(roundTrip, "a", "b"); got != "1" {
		t.Fatalf("round-tripped a.b = %q, want 1", got)
	}
}
