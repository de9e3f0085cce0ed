package schema

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/n2a-go/mstore/pkg/mnode"
)

// Schema2 implements the schema-2 line-oriented text format: one node
// per non-blank line, with indentation encoding tree depth, an
// optional quoted key, an optional `:value` suffix (absence means
// undefined), and a `|`-prefixed block-text mode for multi-line
// values.
type Schema2 struct {
	version int
	kind    string
}

var _ Schema = (*Schema2)(nil)

// Version implements Schema.
func (s *Schema2) Version() int { return s.version }

// Type implements Schema.
func (s *Schema2) Type() string { return s.kind }

// Read implements Schema: clears node's existing children, then
// parses the body into fresh children. I/O failures mid-body
// silently terminate parsing at the point reached, preserving
// whatever was already read — per the store's policy that operational
// read errors are not structural failures.
func (s *Schema2) Read(node mnode.Node, r *bufio.Reader) error {
	clearAll(node)
	lr := newLineReader(r)
	s.readLevel(node, lr, 0)
	return nil
}

func clearAll(node mnode.Node) {
	for _, c := range node.Children() {
		node.ClearChild(c.Key())
	}
}

// readLevel consumes sibling lines at exactly `whitespaces` indent,
// attaching each as a child of node, and recursing for any line
// indented deeper. It returns once a line shallower than whitespaces
// is seen (left for the caller to consume) or the stream ends.
func (s *Schema2) readLevel(node mnode.Node, lr *lineReader, whitespaces int) {
	for !lr.atEOF() {
		key, value := parseKeyValue(lr.line)

		if value != nil && strings.HasPrefix(*value, "|") {
			block := readBlock(lr, whitespaces)
			value = &block
		} else {
			lr.next()
		}

		child := node.SetChild(key, value)

		if lr.whitespaces > whitespaces {
			s.readLevel(child, lr, lr.whitespaces)
		}
		if lr.whitespaces < whitespaces {
			return
		}
	}
}

// readBlock consumes the continuation lines of a `|` block value: the
// indent of the first continuation line becomes the block indent,
// stripped from every subsequent line; the block ends at the first
// line whose indent falls below it (or end of stream). A `|` with no
// qualifying continuation line yields an empty string.
func readBlock(lr *lineReader, nodeIndent int) string {
	lr.next()
	if lr.atEOF() || lr.whitespaces <= nodeIndent {
		return ""
	}
	blockIndent := lr.whitespaces
	var b strings.Builder
	first := true
	for {
		if !first {
			b.WriteByte('\n')
		}
		first = false
		line := lr.line
		if len(line) >= blockIndent {
			b.WriteString(line[blockIndent:])
		} else {
			b.WriteString(line)
		}
		lr.next()
		if lr.atEOF() || lr.whitespaces < blockIndent {
			break
		}
	}
	return b.String()
}

// parseKeyValue parses one already-left-trimmed line into a key and
// an optional value (nil if no unescaped ':' was found, meaning the
// node is undefined). A key starting with '"' is quoted: "" inside the
// quoted region is a literal '"', and a single '"' ends the region,
// after which scanning resumes for the separating ':'.
func parseKeyValue(raw string) (string, *string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return "", nil
	}
	var key strings.Builder
	var value *string

	escape := line[0] == '"'
	i := 0
	if escape {
		i = 1
	}
	last := len(line) - 1
	for i <= last {
		c := line[i]
		if escape {
			if c == '"' {
				i++
				if i > last {
					break
				}
				if line[i] != '"' {
					escape = false
					continue
				}
				// doubled quote: fall through, append one '"'
			} else {
				key.WriteByte(c)
				i++
				continue
			}
		} else if c == ':' {
			v := strings.TrimSpace(line[i+1:])
			value = &v
			break
		}
		key.WriteByte(c)
		i++
	}
	return strings.TrimSpace(key.String()), value
}

// Write implements Schema: emits one line for node (key, and :value
// if defined), then recurses into its children at indent+" ".
func (s *Schema2) Write(node mnode.Node, w io.Writer, indent string) error {
	key := encodeKey(node.Key())

	if !node.IsDefined() {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, key); err != nil {
			return err
		}
	} else {
		value := node.GetValue()
		if strings.Contains(value, "\n") || strings.HasPrefix(value, "|") {
			if _, err := fmt.Fprintf(w, "%s%s:|\n", indent, key); err != nil {
				return err
			}
			for _, line := range strings.Split(value, "\n") {
				if _, err := fmt.Fprintf(w, "%s %s\n", indent, line); err != nil {
					return err
				}
			}
		} else {
			if _, err := fmt.Fprintf(w, "%s%s:%s\n", indent, key, value); err != nil {
				return err
			}
		}
	}

	childIndent := indent + " "
	for _, c := range node.Children() {
		if err := s.Write(c, w, childIndent); err != nil {
			return err
		}
	}
	return nil
}

// encodeKey quotes key iff it is empty, starts with '"', or contains
// ':'; quoting doubles any embedded '"' as its own escape.
func encodeKey(key string) string {
	if key == "" || strings.HasPrefix(key, `"`) || strings.Contains(key, ":") {
		return `"` + strings.ReplaceAll(key, `"`, `""`) + `"`
	}
	return key
}
