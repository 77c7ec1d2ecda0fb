// Package editor is the file-level façade over the codec, the object graph,
// and the annotation domain. It owns all disk access for single-file
// operations; the layers below it are pure in-memory transforms.
package editor

import (
	"encoding/hex"
	"os"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	"github.com/hkforge/annokit/core/anno"
	"github.com/hkforge/annokit/core/bridge"
	"github.com/hkforge/annokit/core/errors"
	"github.com/hkforge/annokit/core/hkx"
)

// ReadAnnotations loads the asset at path and returns its annotation state
// as canonical text.
func ReadAnnotations(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIO("read", path, err)
	}
	return ReadAnnotationsBytes(data, path)
}

// ReadAnnotationsBytes is ReadAnnotations for asset bytes already in memory.
// path is used only for error context.
func ReadAnnotationsBytes(data []byte, path string) (string, error) {
	g, err := hkx.Deserialize(data, path)
	if err != nil {
		return "", err
	}
	h, err := bridge.Extract(g)
	if err != nil {
		return "", errors.Wrapf(err, "extract annotations from %s", path)
	}
	return h.String(), nil
}

// ApplyAnnotations parses text, merges it into the asset at input, and
// writes the result to output in the requested format. output may equal
// input; the source file is fully read before anything is written.
func ApplyAnnotations(input, output, text string, format hkx.OutFormat) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return errors.NewIO("read", input, err)
	}

	out, err := applyToBytes(data, input, text, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, out, 0o644); err != nil {
		return errors.NewIO("write", output, err)
	}
	return nil
}

// PreviewXML parses text, merges it into the asset at input, and returns
// the XML serialization without touching the disk. The result must be valid
// UTF-8 so it can travel as text.
func PreviewXML(input, text string) (string, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return "", errors.NewIO("read", input, err)
	}

	out, err := applyToBytes(data, input, text, hkx.FormatXML)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", &errors.EncodingError{Path: input, Reason: "serialized XML is not valid UTF-8"}
	}
	return string(out), nil
}

func applyToBytes(data []byte, path, text string, format hkx.OutFormat) ([]byte, error) {
	h, err := anno.Parse(text)
	if err != nil {
		return nil, err
	}

	g, err := hkx.Deserialize(data, path)
	if err != nil {
		return nil, err
	}

	if err := bridge.Merge(h, g); err != nil {
		return nil, errors.Wrapf(err, "merge annotations into %s", path)
	}

	return hkx.Serialize(g, format)
}

// SourceDigest returns the BLAKE3 content hash of asset bytes, hex encoded.
// The batch layer keys its dump cache on it.
func SourceDigest(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}
