package archives

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicBzip2 = []byte("BZh")
	magicXz    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// tarball is an opened, possibly compressed, tar archive.
type tarball struct {
	*tar.Reader

	file    *os.File
	closers []func() error
}

// Close closes the decompressor and the underlying file.
func (t *tarball) Close() error {
	for i := len(t.closers) - 1; i >= 0; i-- {
		t.closers[i]()
	}

	return t.file.Close()
}

// openTarball opens a tar archive, detecting its compression from the
// leading magic bytes.
func openTarball(path string) (*tarball, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open %q: %w", path, err)
	}

	t := &tarball{file: f}

	br := bufio.NewReader(f)

	// Short files are handled by the tar reader.
	magic, _ := br.Peek(len(magicXz))

	var r io.Reader

	switch {
	case bytes.HasPrefix(magic, magicGzip):
		zr, err := pgzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %q: %w", ErrUnsupportedArchive, path, err)
		}

		t.closers = append(t.closers, zr.Close)
		r = zr
	case bytes.HasPrefix(magic, magicBzip2):
		r = bzip2.NewReader(br)
	case bytes.HasPrefix(magic, magicXz):
		xr, err := xz.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %q: %w", ErrUnsupportedArchive, path, err)
		}

		r = xr
	case bytes.HasPrefix(magic, magicZstd):
		zr, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %q: %w", ErrUnsupportedArchive, path, err)
		}

		t.closers = append(t.closers, func() error {
			zr.Close()
			return nil
		})

		r = zr
	default:
		r = br
	}

	t.Reader = tar.NewReader(r)

	return t, nil
}

// ModTime returns the latest modification time of all members of the tarball.
func ModTime(path string) (time.Time, error) {
	t, err := openTarball(path)
	if err != nil {
		return time.Time{}, err
	}

	defer t.Close()

	var (
		latest  time.Time
		members int
	)

	for {
		hdr, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %w", ErrUnsupportedArchive, path, err)
		}

		members++

		if hdr.ModTime.After(latest) {
			latest = hdr.ModTime
		}
	}

	if members == 0 {
		return time.Time{}, fmt.Errorf("%w: %q has no members", ErrUnsupportedArchive, path)
	}

	return latest, nil
}
