// Package log provides the leveled, colorized diagnostic logging used
// throughout mstore. It mirrors the small global-function logging style
// used by the tree-merge tooling this module is modeled on: callers do
// not hold a logger instance, they call package-level DEBUG/TRACE/Printf
// functions, and verbosity is toggled with package-level flags.
package log

import (
	"fmt"
	"os"

	"github.com/starkandwayne/goutils/ansi"
)

// DebugOn controls whether DEBUG() emits anything.
var DebugOn = false

// TraceOn controls whether TRACE() emits anything.
var TraceOn = false

// Printf writes a colorized message to stdout.
func Printf(format string, args ...interface{}) {
	ansi.Fprintf(os.Stdout, format, args...)
}

// PrintfStdErr writes a colorized message to stderr.
func PrintfStdErr(format string, args ...interface{}) {
	ansi.Fprintf(os.Stderr, format, args...)
}

// DEBUG writes a message to stderr iff DebugOn is set.
func DEBUG(format string, args ...interface{}) {
	if !DebugOn {
		return
	}
	ansi.Fprintf(os.Stderr, "@m{DEBUG> }"+format+"\n", args...)
}

// TRACE writes a message to stderr iff TraceOn is set. Trace is finer
// grained than DEBUG and is meant for the schema codec / tree-walk hot
// paths where DEBUG would be too noisy to leave on.
func TRACE(format string, args ...interface{}) {
	if !TraceOn {
		return
	}
	ansi.Fprintf(os.Stderr, "@c{TRACE> }"+format+"\n", args...)
}

// Fatal prints an error in red and exits the process. Reserved for the
// CLI entry point; library code must never call this.
func Fatal(code int, format string, args ...interface{}) {
	ansi.Fprintf(os.Stderr, "@R{"+format+"}\n", args...)
	os.Exit(code)
}

// Errorf builds a colorized error, matching ansi.Errorf's contract but
// kept here so callers only need to import log.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%s", ansi.Sprintf(format, args...))
}
