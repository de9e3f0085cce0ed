// Package diagnostics implements the non-fatal error reporting channel
// used by the document store. Per the store's error-handling design,
// operational failures (disk I/O during load/save/delete/move/scan) are
// caught and reported here rather than propagated to the caller; the
// in-memory tree is left consistent with the state before the failed
// operation. Structural/programmer errors (a malformed schema header,
// bad arguments) are returned normally as errors by the functions that
// detect them. The one exception is a document load, which has no error
// result: Document.Load reports an empty or malformed file to its Sink
// under op "load".
package diagnostics

import (
	"sync"

	"github.com/n2a-go/mstore/log"
)

// Sink receives non-fatal operational errors. Op identifies which
// operation failed (e.g. "load", "save", "delete", "move", "scan") and
// Path identifies the file or directory involved, when applicable.
type Sink interface {
	Report(op string, path string, err error)
}

// FuncSink adapts a plain function to the Sink interface.
type FuncSink func(op string, path string, err error)

// Report implements Sink.
func (f FuncSink) Report(op string, path string, err error) {
	f(op, path, err)
}

// LogSink reports failures through the log package as a colorized
// warning, without failing the operation.
var LogSink Sink = FuncSink(func(op, path string, err error) {
	log.PrintfStdErr("@y{warning:} failed to %s @c{%s}: %s\n", op, path, err)
})

// NopSink discards everything. Useful for tests that don't care about
// operational-error reporting.
var NopSink Sink = FuncSink(func(string, string, error) {})

// Recorder is a Sink that accumulates reported failures for inspection,
// primarily by tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

// Event is one reported failure.
type Event struct {
	Op   string
	Path string
	Err  error
}

// Report implements Sink.
func (r *Recorder) Report(op string, path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Op: op, Path: path, Err: err})
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Events)
}
