// Package archive bundles dumped annotation files into tar.xz archives so a
// whole mod folder's annotations travel as one artifact.
package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"
)

// Entry is one file inside an archive.
type Entry struct {
	Name string
	Data []byte
}

// WriteTarXz writes entries to dstPath as a tar.xz archive. Parent
// directories of dstPath are created. Timestamps inside the archive are
// normalized to the write time.
func WriteTarXz(dstPath string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("failed to create xz stream: %w", err)
	}
	tw := tar.NewWriter(xw)

	now := time.Now()
	for _, entry := range entries {
		header := &tar.Header{
			Name:    entry.Name,
			Mode:    0o644,
			Size:    int64(len(entry.Data)),
			ModTime: now,
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", entry.Name, err)
		}
		if _, err := tw.Write(entry.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", entry.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}

	if err := os.WriteFile(dstPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

// ReadTarXz reads back all entries of a tar.xz archive.
func ReadTarXz(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open xz stream: %w", err)
	}

	var entries []Entry
	tr := tar.NewReader(xr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar stream: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		entries = append(entries, Entry{Name: header.Name, Data: data})
	}
	return entries, nil
}
