// Package schema implements the line-oriented text serialization used
// to persist mnode trees to disk ("schema 2/3"): a header line
// declaring the format version, followed by indentation-delimited
// key[:value] lines, with an extended block-text mode for multi-line
// values.
package schema

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/n2a-go/mstore/pkg/mnode"
)

// ErrEmptyFile is returned when Read is given a stream with no
// content at all.
var ErrEmptyFile = errors.New("schema: file is empty")

// ErrBadHeader is returned when the first line isn't a well-formed
// "N2A.schema=<version>[,<type>]" header.
var ErrBadHeader = errors.New("schema: header line not found or malformed")

// Schema encapsulates one version of the serialization format plus
// the declared interpretation ("type") of the data it frames.
type Schema interface {
	Version() int
	Type() string

	// Read parses body content (everything after the header line) into
	// node, replacing node's existing children. The node's own
	// value is left untouched; only its children are populated.
	Read(node mnode.Node, r *bufio.Reader) error

	// Write emits node (and recursively its children) at the given
	// indent, in the wire format this Schema defines.
	Write(node mnode.Node, w io.Writer, indent string) error
}

// Latest returns the schema version this module writes: version 3,
// with no declared type.
func Latest() *Schema2 {
	return &Schema2{version: 3, kind: ""}
}

// WriteHeader writes the "N2A.schema=<version>[,<type>]\n" line for s.
func WriteHeader(s Schema, w io.Writer) error {
	if s.Type() == "" {
		_, err := fmt.Fprintf(w, "N2A.schema=%d\n", s.Version())
		return err
	}
	_, err := fmt.Fprintf(w, "N2A.schema=%d,%s\n", s.Version(), s.Type())
	return err
}

// ReadHeader reads and validates the first line of r, returning the
// Schema implementation appropriate to the declared version. Only
// schema 2 (and later, which default to the schema-2 reader) is
// implemented.
func ReadHeader(r *bufio.Reader) (Schema, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return nil, ErrEmptyFile
	}
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 12 || !strings.HasPrefix(line, "N2A.schema") || line[10] != '=' {
		return nil, ErrBadHeader
	}
	rest := line[11:]
	pieces := strings.SplitN(rest, ",", 2)
	version, verErr := strconv.Atoi(pieces[0])
	if verErr != nil {
		return nil, ErrBadHeader
	}
	kind := ""
	if len(pieces) > 1 {
		kind = strings.TrimSpace(pieces[1])
	}
	return &Schema2{version: version, kind: kind}, nil
}

// ReadAll reads the header then the body of r into node, replacing
// node's children. It returns the Schema that was used, mainly so
// callers can inspect the declared version/type.
func ReadAll(node mnode.Node, r io.Reader) (Schema, error) {
	br := bufio.NewReader(r)
	s, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	if err := s.Read(node, br); err != nil {
		return s, err
	}
	return s, nil
}

// WriteAll writes the header for s followed by every child of node, in
// child iteration order. node's own key/value are not written; it
// acts purely as a container.
func WriteAll(s Schema, node mnode.Node, w io.Writer) error {
	if err := WriteHeader(s, w); err != nil {
		return err
	}
	for _, c := range node.Children() {
		if err := s.Write(c, w, ""); err != nil {
			return err
		}
	}
	return nil
}

// Default adapts the package-level ReadAll/Latest().WriteAll pair to
// mnode.Codec, so a Document/Group/Dir can be constructed without
// importing this package's Schema type directly.
type Default struct{}

// ReadAll implements mnode.Codec.
func (Default) ReadAll(root mnode.Node, r io.Reader) error {
	_, err := ReadAll(root, r)
	return err
}

// WriteAll implements mnode.Codec.
func (Default) WriteAll(root mnode.Node, w io.Writer) error {
	return WriteAll(Latest(), root, w)
}
