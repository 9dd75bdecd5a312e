package vcs

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrUnknownClient represents the unknown client error.
var ErrUnknownClient = errors.New("Unknown version control client")

// Client is a version control working copy client.
type Client interface {
	// Checkout checks out url into path.
	Checkout(url string, path string) error
	// Status reports the state of path.
	Status(path string) (*Status, error)
	// Update brings path up to date, restoring missing files.
	Update(path string) error
	// Remove schedules paths for deletion.
	Remove(paths []string) error
	// Add schedules paths for addition.
	Add(paths []string) error
	// Commit commits path and returns the new revision, or an empty string if
	// there was nothing to commit.
	Commit(path string, message string) (string, error)
	// SetDate sets the date of the latest revision of the repository of path.
	SetDate(path string, date string) error
}

type client interface {
	Client

	init(ctx context.Context, logger *logrus.Logger)
}

var clients = map[string]func() client{
	"svn": func() client { return &svn{run: runCommand} },
}

// Load loads and initializes a version control client.
func Load(ctx context.Context, name string, logger *logrus.Logger) (Client, error) {
	cf, ok := clients[name]
	if !ok {
		return nil, ErrUnknownClient
	}

	c := cf()

	c.init(ctx, logger)

	return c, nil
}
