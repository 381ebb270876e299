// Package archive opens decoder input from plain, compressed or archived files.
// It supports .gz and .xz single files and .tar.gz and .tar.xz archives.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ulikunitz/xz"

	apperrors "github.com/FocuswithJustin/rtftree/core/errors"
)

// Kind classifies an input path by its extension.
type Kind int

const (
	KindPlain Kind = iota
	KindGzip
	KindXz
	KindTarGz
	KindTarXz
)

// DetectKind returns the kind of path based on its extension.
func DetectKind(p string) Kind {
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return KindTarXz
	case strings.HasSuffix(lower, ".gz"):
		return KindGzip
	case strings.HasSuffix(lower, ".xz"):
		return KindXz
	}
	return KindPlain
}

// IsArchive reports whether p names a tar archive.
func IsArchive(p string) bool {
	k := DetectKind(p)
	return k == KindTarGz || k == KindTarXz
}

// file couples a possibly decompressing reader with the file it reads.
type file struct {
	io.Reader
	f            *os.File
	decompressor io.Closer
}

func (f *file) Close() error {
	var errs []error
	if f.decompressor != nil {
		if err := f.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := f.f.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Open opens a single input file, decompressing .gz and .xz transparently.
// The bytes of a tar archive are returned undecoded; use NewReader for those.
func Open(p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, apperrors.NewIO("open", p, err)
	}

	switch DetectKind(p) {
	case KindXz, KindTarXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, apperrors.NewIO("decompress", p, err)
		}
		return &file{Reader: xzr, f: f}, nil
	case KindGzip, KindTarGz:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, apperrors.NewIO("decompress", p, err)
		}
		return &file{Reader: gzr, f: f, decompressor: gzr}, nil
	}
	return &file{Reader: f, f: f}, nil
}

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	src  io.Closer
	path string
}

// NewReader creates a new archive reader for the given path.
// It handles .tar.gz and .tar.xz compression.
func NewReader(p string) (*Reader, error) {
	if !IsArchive(p) {
		return nil, apperrors.NewUnsupported("archive format", p)
	}
	src, err := Open(p)
	if err != nil {
		return nil, err
	}
	return &Reader{Reader: tar.NewReader(src), src: src, path: p}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	return r.src.Close()
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all regular file entries in the archive, calling
// the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return apperrors.Wrapf(err, "read header in %s", r.path)
		}
		if header.Typeflag != tar.TypeReg {
			continue
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

// IsRTF reports whether an entry name looks like an RTF document.
func IsRTF(name string) bool {
	return strings.EqualFold(path.Ext(name), ".rtf")
}

// EachRTF opens the archive at p and calls fn for every .rtf entry.
func EachRTF(p string, fn func(name string, content io.Reader) error) error {
	r, err := NewReader(p)
	if err != nil {
		return err
	}
	defer r.Close()

	return r.Iterate(func(header *tar.Header, content io.Reader) (bool, error) {
		if !IsRTF(header.Name) {
			return false, nil
		}
		return false, fn(header.Name, content)
	})
}
