// Package outputholder writes simulator-style tabular trace output: a
// tab-separated values stream with a `$t` time column prepended, plus
// a `.columns` sidecar recording header names and per-column
// attributes (color, scale, axis ranges) in schema-2 text. It is a
// peripheral collaborator of the store — it neither reads nor writes
// mnode trees — kept only for the sidecar contract it shares with
// outputparser.
package outputholder

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Holder accumulates one row of named column values at a time and
// flushes a row to the underlying writer whenever time advances.
type Holder struct {
	out            io.Writer
	closer         io.Closer
	columnFileName string

	columnMap       map[string]int
	columnOrder     []string
	columnMode      []map[string]string
	columnValues    []float64
	columnsPrevious int

	t             float64
	traceReceived bool
	raw           bool
}

var reservedHeaderChars = regexp.MustCompile(`[ \t,"]`)

// New opens fileName for writing trace output, or writes to standard
// output if fileName is empty; in that case Close writes the sidecar to
// out.columns in the working directory.
func New(fileName string) (*Holder, error) {
	h := &Holder{
		columnMap: map[string]int{},
	}
	if fileName == "" {
		h.out = os.Stdout
		h.columnFileName = "out.columns"
		return h, nil
	}
	f, err := os.Create(fileName)
	if err != nil {
		return nil, err
	}
	h.out = f
	h.closer = f
	h.columnFileName = fileName + ".columns"
	return h, nil
}

// Raw switches column naming to use the literal numeric index supplied
// to Trace as the column key, matching raw-mode simulator output.
func (h *Holder) Raw(raw bool) { h.raw = raw }

// Close flushes any pending row, closes the underlying file (if any),
// and writes the .columns sidecar.
func (h *Holder) Close() error {
	h.writeTrace()
	var closeErr error
	if h.closer != nil {
		closeErr = h.closer.Close()
	}
	if err := h.writeModes(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}

// Trace records a value for column at time now, under the given mode
// string (comma-separated key=value pairs; timeScale and the
// x/y min/max keys are chart-wide and attach to the time column). Time
// is assumed to advance monotonically; if now regresses, the value is
// folded into the current row instead of starting a new one.
func (h *Holder) Trace(now float64, column string, value float64, mode string) {
	if now > h.t {
		h.writeTrace()
		h.t = now
	}

	if !h.traceReceived {
		h.traceReceived = true
		if len(h.columnValues) == 0 {
			h.columnMap["$t"] = 0
			h.columnOrder = append(h.columnOrder, "$t")
			h.columnValues = append(h.columnValues, h.t)
			h.columnMode = append(h.columnMode, map[string]string{})
		} else {
			h.columnValues[0] = h.t
		}
	}

	if idx, ok := h.columnMap[column]; ok {
		h.columnValues[idx] = value
		return
	}

	var idx int
	if h.raw {
		i, err := strconv.Atoi(column)
		if err != nil {
			i = 0
		}
		idx = i + 1
		for len(h.columnValues) <= idx {
			h.columnValues = append(h.columnValues, math.NaN())
			h.columnMode = append(h.columnMode, map[string]string{})
		}
		h.columnValues[idx] = value
	} else {
		idx = len(h.columnValues)
		h.columnValues = append(h.columnValues, value)
		h.columnMode = append(h.columnMode, map[string]string{})
	}
	h.columnMap[column] = idx
	h.columnOrder = append(h.columnOrder, column)

	h.applyMode(idx, mode)
}

func (h *Holder) applyMode(columnIndex int, mode string) {
	for _, piece := range strings.Split(mode, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" || piece == "raw" {
			continue
		}
		kv := strings.SplitN(piece, "=", 2)
		key := strings.TrimSpace(kv[0])
		val := ""
		if len(kv) > 1 {
			val = strings.TrimSpace(kv[1])
		}
		switch key {
		case "timeScale":
			h.columnMode[0]["scale"] = val
		case "xmax", "xmin", "ymax", "ymin":
			h.columnMode[0][key] = val
		default:
			h.columnMode[columnIndex][key] = val
		}
	}
}

func (h *Holder) writeTrace() {
	if !h.traceReceived {
		return
	}
	count := len(h.columnValues)
	last := count - 1

	if count > h.columnsPrevious {
		if !h.raw {
			headers := make([]string, count)
			for name, idx := range h.columnMap {
				headers[idx] = name
			}
			fmt.Fprint(h.out, headers[0])
			for i := 1; i < h.columnsPrevious; i++ {
				fmt.Fprint(h.out, "\t")
			}
			start := h.columnsPrevious
			if start < 1 {
				start = 1
			}
			for i := start; i < count; i++ {
				fmt.Fprint(h.out, "\t")
				fmt.Fprint(h.out, encodeHeader(headers[i]))
			}
			fmt.Fprint(h.out, "\n")
		}
		h.columnsPrevious = count
	}

	for i := 0; i < count; i++ {
		v := h.columnValues[i]
		if !math.IsNaN(v) {
			fmt.Fprint(h.out, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if i < last {
			fmt.Fprint(h.out, "\t")
		}
		h.columnValues[i] = math.NaN()
	}
	fmt.Fprint(h.out, "\n")

	h.traceReceived = false
}

func encodeHeader(header string) string {
	if !reservedHeaderChars.MatchString(header) {
		return header
	}
	return `"` + strings.ReplaceAll(header, `"`, `""`) + `"`
}

func (h *Holder) writeModes() error {
	f, err := os.Create(h.columnFileName)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "N2A.schema=3")
	for _, name := range h.columnOrder {
		idx := h.columnMap[name]
		fmt.Fprintf(f, "%d:%s\n", idx, name)
		for attr, val := range h.columnMode[idx] {
			fmt.Fprintf(f, " %s:%s\n", attr, val)
		}
	}
	return nil
}
