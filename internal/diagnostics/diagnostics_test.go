package diagnostics

import (
	"errors"
	"testing"
)

func TestRecorderAccumulates(t *testing.T) {
	r := &Recorder{}
	r.Report("save", "/tmp/a", errors.New("boom"))
	r.Report("load", "/tmp/b", errors.New("bang"))

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if r.Events[0].Op != "save" || r.Events[0].Path != "/tmp/a" {
		t.Fatalf("unexpected first event: %+v", r.Events[0])
	}
}

func TestNopSinkDiscards(t *testing.T) {
	// Must not panic; nothing else to observe.
	NopSink.Report("delete", "/tmp/x", errors.New("ignored"))
}

func TestFuncSinkAdaptsPlainFunction(t *testing.T) {
	var got string
	sink := FuncSink(func(op, path string, err error) { got = op + ":" + path })
	sink.Report("move", "/tmp/y", nil)
	if got != "move:/tmp/y" {
		t.Fatalf("got %q", got)
	}
}
