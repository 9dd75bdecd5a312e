package shared

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-ldap/ldap/v3"
)

// A DirectoryEntries describes how one kind of entry (users or groups) is
// read and exported.
type DirectoryEntries struct {
	File             string   `yaml:"file"`
	Base             string   `yaml:"base"`
	ObjectClasses    []string `yaml:"object-classes"`
	IgnoreAttributes []string `yaml:"ignore-attributes,omitempty"`
	Ignore           []string `yaml:"ignore,omitempty"`
	MinID            int      `yaml:"min-id"`
	MaxID            int      `yaml:"max-id"`
}

// Ignored reports whether the entry with the given name is excluded.
func (e *DirectoryEntries) Ignored(name string) bool {
	return slices.Contains(e.Ignore, name)
}

// InRange reports whether id lies within [MinID, MaxID].
func (e *DirectoryEntries) InRange(id int) bool {
	return id >= e.MinID && id <= e.MaxID
}

// IgnoredAttribute reports whether the attribute is left out of the export.
func (e *DirectoryEntries) IgnoredAttribute(name string) bool {
	return slices.Contains(e.IgnoreAttributes, name)
}

// A DirectoryDefinition describes a passwd/group to LDIF export.
type DirectoryDefinition struct {
	Output       string           `yaml:"output"`
	Base         string           `yaml:"base"`
	Users        DirectoryEntries `yaml:"users"`
	Groups       DirectoryEntries `yaml:"groups"`
	DefaultGroup string           `yaml:"default-group,omitempty"`
	Header       string           `yaml:"header,omitempty"`
}

// SetValue overrides a definition key.
func (d *DirectoryDefinition) SetValue(key string, value string) error {
	switch key {
	case "output":
		d.Output = value
	case "base":
		d.Base = value
	case "users.file":
		d.Users.File = value
	case "users.base":
		d.Users.Base = value
	case "groups.file":
		d.Groups.File = value
	case "groups.base":
		d.Groups.Base = value
	case "default-group":
		d.DefaultGroup = value
	default:
		return fmt.Errorf("Unknown key %q", key)
	}

	return nil
}

// SetDefaults sets some default values.
func (d *DirectoryDefinition) SetDefaults() {
	if d.Output == "" {
		d.Output = "passwd_export.ldif"
	}

	if d.Users.File == "" {
		d.Users.File = "passwd"
	}

	if d.Groups.File == "" {
		d.Groups.File = "group"
	}

	if d.Users.Base == "" && d.Base != "" {
		d.Users.Base = "ou=people," + d.Base
	}

	if d.Groups.Base == "" && d.Base != "" {
		d.Groups.Base = "ou=groups," + d.Base
	}

	if d.Users.MaxID == 0 {
		d.Users.MaxID = 65533
	}

	if d.Groups.MaxID == 0 {
		d.Groups.MaxID = 65533
	}
}

// Validate validates the DirectoryDefinition.
func (d *DirectoryDefinition) Validate() error {
	if d.Output == "" {
		return errors.New("output may not be empty")
	}

	for name, dn := range map[string]string{"base": d.Base, "users.base": d.Users.Base, "groups.base": d.Groups.Base} {
		if dn == "" {
			return fmt.Errorf("%s may not be empty", name)
		}

		_, err := ldap.ParseDN(dn)
		if err != nil {
			return fmt.Errorf("Invalid %s %q: %w", name, dn, err)
		}
	}

	if len(d.Users.ObjectClasses) == 0 {
		return errors.New("users.object-classes may not be empty")
	}

	if len(d.Groups.ObjectClasses) == 0 {
		return errors.New("groups.object-classes may not be empty")
	}

	if d.Users.MinID > d.Users.MaxID {
		return fmt.Errorf("users.min-id (%d) is larger than users.max-id (%d)", d.Users.MinID, d.Users.MaxID)
	}

	if d.Groups.MinID > d.Groups.MaxID {
		return fmt.Errorf("groups.min-id (%d) is larger than groups.max-id (%d)", d.Groups.MinID, d.Groups.MaxID)
	}

	return nil
}
