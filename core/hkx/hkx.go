// Package hkx serializes and deserializes Havok animation asset files.
//
// Two on-disk encodings are supported: the XML tagfile and a binary
// container. Deserialize detects the encoding from the content itself; the
// file extension is used only for error context. Serialize targets one of a
// closed set of output formats.
package hkx

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/hkforge/annokit/core/errors"
	"github.com/hkforge/annokit/core/graph"
)

// OutFormat selects the serialization target.
type OutFormat int

const (
	// FormatXML is the XML tagfile encoding.
	FormatXML OutFormat = iota
	// FormatAmd64 is the binary container with 64-bit length words.
	FormatAmd64
	// FormatWin32 is the binary container with 32-bit length words.
	FormatWin32
)

// String returns the format's canonical token.
func (f OutFormat) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatAmd64:
		return "amd64"
	case FormatWin32:
		return "win32"
	}
	return "unknown"
}

// Extension returns the file extension conventionally used for the format,
// including the leading dot.
func (f OutFormat) Extension() string {
	if f == FormatXML {
		return ".xml"
	}
	return ".hkx"
}

// ParseOutFormat maps a format token to an OutFormat. Tokens are matched
// case-insensitively; anything outside the closed set is an error.
func ParseOutFormat(s string) (OutFormat, error) {
	switch strings.ToLower(s) {
	case "xml":
		return FormatXML, nil
	case "amd64":
		return FormatAmd64, nil
	case "win32":
		return FormatWin32, nil
	}
	return 0, errors.NewUnsupported("output format "+strconv.Quote(s), "expected xml, amd64, or win32")
}

// Deserialize parses asset bytes into an object graph. The encoding is
// sniffed from the content: the binary container magic first, XML otherwise.
// path is used only for error context.
func Deserialize(data []byte, path string) (*graph.Graph, error) {
	if bytes.HasPrefix(data, binMagic) {
		return deserializeBinary(data, path)
	}
	return deserializeXML(data, path)
}

// Serialize encodes the graph in the requested format.
func Serialize(g *graph.Graph, format OutFormat) ([]byte, error) {
	switch format {
	case FormatXML:
		return serializeXML(g)
	case FormatAmd64:
		return serializeBinary(g, wordWide, defaultOrder)
	case FormatWin32:
		return serializeBinary(g, wordNarrow, defaultOrder)
	}
	return nil, errors.NewUnsupported("output format "+strconv.Quote(format.String()), "")
}
