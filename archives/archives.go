package archives

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"

	"github.com/utbest/toolbox/shared"
)

// DateLayout is the layout of archive dates. It is the format svn expects for svn:date.
const DateLayout = "2006-01-02T15:04:05.000000Z"

// ErrUnsupportedArchive is returned for files which cannot be read as tarball.
var ErrUnsupportedArchive = errors.New("Unsupported archive")

// ErrEmptyPattern is returned if a pattern doesn't match any file.
var ErrEmptyPattern = errors.New("Pattern matches no archive")

// An Archive is a single release tarball.
type Archive struct {
	// Date is the archive date formatted with DateLayout.
	Date string `yaml:"date"`
	// Name is the file name of the archive.
	Name string `yaml:"name"`
	// Path is the location of the archive on disk.
	Path string `yaml:"path"`
	// Subdir is the working copy directory the archive belongs into.
	Subdir string `yaml:"subdir"`
}

// List returns all archives in dir matching one of the patterns, sorted by date.
func List(dir string, patterns []shared.DefinitionPattern, loc *time.Location) ([]Archive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("Failed to read directory %q: %w", dir, err)
	}

	var archives []Archive

	for _, pattern := range patterns {
		var found []Archive

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			ok, err := MatchName(pattern.Match, entry.Name())
			if err != nil {
				return nil, fmt.Errorf("Invalid pattern %q: %w", pattern.Match, err)
			}

			if !ok {
				continue
			}

			path := filepath.Join(dir, entry.Name())

			var date string

			if pattern.DateFormat != "" {
				date, err = ParseDate(entry.Name(), pattern.DateFormat)
			} else {
				date, err = TarDate(path, loc)
			}

			if err != nil {
				return nil, err
			}

			found = append(found, Archive{
				Date:   date,
				Name:   entry.Name(),
				Path:   path,
				Subdir: pattern.Subdir,
			})
		}

		if len(found) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyPattern, pattern.Match)
		}

		archives = append(archives, found...)
	}

	slices.SortStableFunc(archives, func(a, b Archive) int {
		return strings.Compare(a.Date, b.Date)
	})

	return archives, nil
}

// MatchName reports whether name matches the shell pattern. Both "[!...]" and
// "[^...]" negate a character class.
func MatchName(pattern string, name string) (bool, error) {
	return filepath.Match(strings.ReplaceAll(pattern, "[!", "[^"), name)
}

// ParseDate reads the date from the file name using a strptime format.
func ParseDate(name string, format string) (string, error) {
	t, err := timefmt.Parse(name, format)
	if err != nil {
		return "", fmt.Errorf("Failed to parse date of %q with %q: %w", name, format, err)
	}

	return t.Format(DateLayout), nil
}

// TarDate returns the day of the latest modification inside the tarball.
func TarDate(path string, loc *time.Location) (string, error) {
	mtime, err := ModTime(path)
	if err != nil {
		return "", err
	}

	mtime = mtime.In(loc)

	return time.Date(mtime.Year(), mtime.Month(), mtime.Day(), 0, 0, 0, 0, loc).Format(DateLayout), nil
}
