package shared

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCommitMessage is the commit message template used when none is set.
const DefaultCommitMessage = "Content of archive {{ archive.name }}"

// A DefinitionPattern identifies one series of archives.
type DefinitionPattern struct {
	// Subdir is the directory inside the working copy the archives are extracted into.
	Subdir string `yaml:"subdir"`
	// Match is a shell pattern selecting the archive files.
	Match string `yaml:"match"`
	// DateFormat is a strptime-like format used to read the date from the file
	// name. If empty, the date is taken from the archive content.
	DateFormat string `yaml:"date-format,omitempty"`
}

// A Definition describes an archive import.
type Definition struct {
	Repository    string              `yaml:"repository"`
	WorkingCopy   string              `yaml:"working-copy"`
	ArchiveDir    string              `yaml:"archive-dir,omitempty"`
	Timezone      string              `yaml:"timezone,omitempty"`
	CommitMessage string              `yaml:"commit-message,omitempty"`
	Client        string              `yaml:"client,omitempty"`
	Patterns      []DefinitionPattern `yaml:"patterns"`
}

// SetValue overrides a top-level definition key.
func (d *Definition) SetValue(key string, value string) error {
	switch key {
	case "repository":
		d.Repository = value
	case "working-copy":
		d.WorkingCopy = value
	case "archive-dir":
		d.ArchiveDir = value
	case "timezone":
		d.Timezone = value
	case "commit-message":
		d.CommitMessage = value
	case "client":
		d.Client = value
	default:
		return fmt.Errorf("Unknown key %q", key)
	}

	return nil
}

// SetDefaults sets some default values.
func (d *Definition) SetDefaults() {
	if d.ArchiveDir == "" {
		d.ArchiveDir = "."
	}

	if d.Timezone == "" {
		d.Timezone = "Local"
	}

	if d.CommitMessage == "" {
		d.CommitMessage = DefaultCommitMessage
	}

	if d.Client == "" {
		d.Client = "svn"
	}
}

// Validate validates the Definition.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Repository) == "" {
		return errors.New("repository may not be empty")
	}

	if strings.TrimSpace(d.WorkingCopy) == "" {
		return errors.New("working-copy may not be empty")
	}

	_, err := d.Location()
	if err != nil {
		return fmt.Errorf("Invalid timezone %q: %w", d.Timezone, err)
	}

	if len(d.Patterns) == 0 {
		return errors.New("patterns may not be empty")
	}

	for i, p := range d.Patterns {
		err := p.validate()
		if err != nil {
			return fmt.Errorf("Invalid pattern %d: %w", i, err)
		}
	}

	return nil
}

// Location returns the time zone archive dates are computed in.
func (d *Definition) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.Local, nil
	}

	return time.LoadLocation(d.Timezone)
}

func (p *DefinitionPattern) validate() error {
	if p.Subdir == "" {
		return errors.New("subdir may not be empty")
	}

	if filepath.IsAbs(p.Subdir) || filepath.Clean(p.Subdir) != p.Subdir || strings.HasPrefix(p.Subdir, "..") {
		return fmt.Errorf("subdir %q must be a clean relative path", p.Subdir)
	}

	if p.Match == "" {
		return errors.New("match may not be empty")
	}

	_, err := filepath.Match(p.Match, "")
	if err != nil {
		return fmt.Errorf("Invalid match %q: %w", p.Match, err)
	}

	return nil
}
