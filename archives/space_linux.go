package archives

import (
	"errors"

	"golang.org/x/sys/unix"
)

func checkFreeSpace(path string) error {
	fs := unix.Statfs_t{}

	err := unix.Statfs(path, &fs)
	if err != nil {
		// The target may not exist if extraction failed early.
		return nil
	}

	// Check if we're running out of space
	if int64(fs.Bfree) < 10 {
		return errors.New("Unable to extract archive, run out of disk space")
	}

	return nil
}
