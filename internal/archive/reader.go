// Package archive reads and writes repository snapshots: a whole
// repository branch packed as .zip, .tar.gz or .tar.xz. Door43 serves
// zip snapshots; tar.xz is the compact offline format.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/validation"
)

// Format is a snapshot container format.
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "tar.gz"
	FormatTarXz Format = "tar.xz"
)

// Extensions lists the recognized file extensions in lookup order.
var Extensions = []string{".zip", ".tar.gz", ".tgz", ".tar.xz"}

// DetectFormat determines the format from a file name.
func DetectFormat(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(path, ".tar.xz"):
		return FormatTarXz, nil
	}
	return "", errors.NewUnsupported("archive format", path)
}

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	closers []io.Closer
}

// NewReader opens a .tar.gz or .tar.xz file.
func NewReader(path string) (*Reader, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatZip {
		return nil, errors.NewUnsupported("tar reader", "zip archive "+path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	r, err := newTarReader(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closers = append(r.closers, f)
	return r, nil
}

func newTarReader(src io.Reader, format Format) (*Reader, error) {
	switch format {
	case FormatTarXz:
		xzr, err := xz.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return &Reader{Reader: tar.NewReader(xzr)}, nil
	case FormatTarGz:
		gzr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &Reader{Reader: tar.NewReader(gzr), closers: []io.Closer{gzr}}, nil
	}
	return nil, errors.NewUnsupported("tar reader", string(format))
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// Load reads a snapshot file fully into memory.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "snapshot", ID: path, Err: errors.ErrNotFound}
		}
		return nil, errors.NewIO("read", path, err)
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if err := validation.Snapshot(path, data); err != nil {
		return nil, err
	}
	return Decode(data, format)
}

// Decode reads a snapshot from its raw bytes.
func Decode(data []byte, format Format) (*Snapshot, error) {
	files := make(map[string][]byte)
	switch format {
	case FormatZip:
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, &errors.ParseError{Format: "zip", Message: err.Error(), Err: err}
		}
		for _, f := range zr.File {
			if f.FileInfo().IsDir() {
				continue
			}
			content, err := readZipEntry(f)
			if err != nil {
				return nil, errors.NewIO("extract", f.Name, err)
			}
			files[f.Name] = content
		}
	case FormatTarGz, FormatTarXz:
		r, err := newTarReader(bytes.NewReader(data), format)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		err = r.Iterate(func(header *tar.Header, content io.Reader) (bool, error) {
			if header.Typeflag != tar.TypeReg {
				return false, nil
			}
			b, err := io.ReadAll(content)
			if err != nil {
				return true, errors.NewIO("extract", header.Name, err)
			}
			files[header.Name] = b
			return false, nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewUnsupported("archive format", string(format))
	}
	return newSnapshot(files), nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
