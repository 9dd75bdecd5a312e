package archives

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
)

type extractedDir struct {
	path  string
	mode  os.FileMode
	mtime time.Time
}

// Extract unpacks the tarball into target. Member paths are resolved inside
// target, so neither ".." nor symlinks can escape it.
func Extract(path string, target string) error {
	err := extract(path, target)
	if err != nil {
		// Check if we ran out of space
		spaceErr := checkFreeSpace(target)
		if spaceErr != nil {
			return spaceErr
		}

		return err
	}

	return nil
}

func extract(path string, target string) error {
	t, err := openTarball(path)
	if err != nil {
		return err
	}

	defer t.Close()

	err = os.MkdirAll(target, 0755)
	if err != nil {
		return fmt.Errorf("Failed to create directory %q: %w", target, err)
	}

	var dirs []extractedDir

	for {
		hdr, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrUnsupportedArchive, path, err)
		}

		dest, err := securejoin.SecureJoin(target, hdr.Name)
		if err != nil {
			return fmt.Errorf("Failed to resolve %q: %w", hdr.Name, err)
		}

		if dest == filepath.Clean(target) && hdr.Typeflag != tar.TypeDir {
			return fmt.Errorf("Invalid member %q", hdr.Name)
		}

		mode := hdr.FileInfo().Mode().Perm()

		switch hdr.Typeflag {
		case tar.TypeDir:
			err = os.MkdirAll(dest, 0755)
			if err != nil {
				return fmt.Errorf("Failed to create directory %q: %w", dest, err)
			}

			dirs = append(dirs, extractedDir{path: dest, mode: mode, mtime: hdr.ModTime})
		case tar.TypeReg:
			err = writeFile(dest, t, mode)
			if err != nil {
				return err
			}

			err = os.Chtimes(dest, hdr.AccessTime, hdr.ModTime)
			if err != nil {
				return fmt.Errorf("Failed to set times of %q: %w", dest, err)
			}
		case tar.TypeSymlink:
			err = prepareParent(dest)
			if err != nil {
				return err
			}

			err = os.Symlink(hdr.Linkname, dest)
			if err != nil {
				return fmt.Errorf("Failed to create symlink %q: %w", dest, err)
			}
		case tar.TypeLink:
			src, err := securejoin.SecureJoin(target, hdr.Linkname)
			if err != nil {
				return fmt.Errorf("Failed to resolve %q: %w", hdr.Linkname, err)
			}

			err = prepareParent(dest)
			if err != nil {
				return err
			}

			err = os.Link(src, dest)
			if err != nil {
				return fmt.Errorf("Failed to create hard link %q: %w", dest, err)
			}
		}
	}

	// Apply directory metadata last, children were written into them.
	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]

		err = os.Chmod(d.path, d.mode|0700)
		if err != nil {
			return fmt.Errorf("Failed to set mode of %q: %w", d.path, err)
		}

		err = os.Chtimes(d.path, d.mtime, d.mtime)
		if err != nil {
			return fmt.Errorf("Failed to set times of %q: %w", d.path, err)
		}
	}

	return nil
}

// prepareParent creates the parent directory of path and removes whatever is
// in the way of path itself.
func prepareParent(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return fmt.Errorf("Failed to create directory %q: %w", filepath.Dir(path), err)
	}

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("Failed to remove %q: %w", path, err)
	}

	return nil
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	err := prepareParent(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0200)
	if err != nil {
		return fmt.Errorf("Failed to create file %q: %w", path, err)
	}

	defer f.Close()

	_, err = io.Copy(f, r)
	if err != nil {
		return fmt.Errorf("Failed to write file %q: %w", path, err)
	}

	return f.Close()
}
