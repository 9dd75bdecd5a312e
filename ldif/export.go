package ldif

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/utbest/toolbox/shared"
)

// Export converts the passwd and group files of the definition into an LDIF
// file.
func Export(definition shared.DirectoryDefinition, logger *logrus.Logger) error {
	users, err := readUsers(definition, logger)
	if err != nil {
		return err
	}

	groups, err := readGroups(definition)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"users": len(users), "groups": len(groups)}).Info("Read accounts")

	header, err := shared.RenderTemplate(definition.Header, headerContext(definition))
	if err != nil {
		return fmt.Errorf("Failed to render header: %w", err)
	}

	f, err := os.Create(definition.Output)
	if err != nil {
		return fmt.Errorf("Failed to create %q: %w", definition.Output, err)
	}

	defer f.Close()

	w := bufio.NewWriter(f)

	_, err = w.WriteString(header)
	if err != nil {
		return fmt.Errorf("Failed to write %q: %w", definition.Output, err)
	}

	enc := NewEncoder(w, definition, logger)

	err = enc.EncodeUsers(users)
	if err != nil {
		return fmt.Errorf("Failed to write users: %w", err)
	}

	err = enc.EncodeGroups(groups, users)
	if err != nil {
		return fmt.Errorf("Failed to write groups: %w", err)
	}

	err = w.Flush()
	if err != nil {
		return fmt.Errorf("Failed to write %q: %w", definition.Output, err)
	}

	logger.WithField("file", definition.Output).Info("Wrote LDIF")

	return f.Close()
}

// headerContext returns the values available to the header template. Keys
// are valid template identifiers.
func headerContext(definition shared.DirectoryDefinition) map[string]any {
	entries := func(e shared.DirectoryEntries) map[string]any {
		return map[string]any{"base": e.Base, "file": e.File}
	}

	return map[string]any{
		"base":          definition.Base,
		"output":        definition.Output,
		"default_group": definition.DefaultGroup,
		"users":         entries(definition.Users),
		"groups":        entries(definition.Groups),
	}
}

func readUsers(definition shared.DirectoryDefinition, logger *logrus.Logger) ([]User, error) {
	f, err := os.Open(definition.Users.File)
	if err != nil {
		return nil, fmt.Errorf("Failed to open passwd file: %w", err)
	}

	defer f.Close()

	return ParseUsers(f, definition.Users.File, definition.Users, logger)
}

func readGroups(definition shared.DirectoryDefinition) ([]Group, error) {
	f, err := os.Open(definition.Groups.File)
	if err != nil {
		return nil, fmt.Errorf("Failed to open group file: %w", err)
	}

	defer f.Close()

	return ParseGroups(f, definition.Groups.File, definition.Groups)
}
