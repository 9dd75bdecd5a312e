package vcs

import (
	"strings"
)

const (
	// StatusMissing marks a tracked path which is absent on disk.
	StatusMissing = '!'
	// StatusUntracked marks a path on disk which isn't tracked.
	StatusUntracked = '?'
)

// Status is the parsed output of a status query.
type Status struct {
	Missing   []string
	Untracked []string
	// Lines holds every non-empty status line, recognized or not.
	Lines []string
}

// Clean reports whether the working copy has no pending changes.
func (s *Status) Clean() bool {
	return len(s.Lines) == 0
}

// ParseStatus parses "svn status" output. Each line starts with a status
// code followed by the path.
func ParseStatus(output string) *Status {
	status := &Status{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		status.Lines = append(status.Lines, line)

		path := strings.TrimSpace(line[1:])
		if path == "" {
			continue
		}

		switch line[0] {
		case StatusMissing:
			status.Missing = append(status.Missing, path)
		case StatusUntracked:
			status.Untracked = append(status.Untracked, path)
		}
	}

	return status
}
