package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	incus "github.com/lxc/incus/v6/shared/util"
	"github.com/sirupsen/logrus"

	"github.com/utbest/toolbox/archives"
	"github.com/utbest/toolbox/shared"
	"github.com/utbest/toolbox/vcs"
)

// ErrUnclean is returned if the working copy still has changes after a commit.
var ErrUnclean = errors.New("Working copy not clean after commit")

// Importer commits archives into a working copy, one revision per archive.
type Importer struct {
	logger     *logrus.Logger
	client     vcs.Client
	definition shared.Definition
	extract    func(path string, target string) error
}

// New returns an Importer for the given definition.
func New(logger *logrus.Logger, client vcs.Client, definition shared.Definition) *Importer {
	return &Importer{
		logger:     logger,
		client:     client,
		definition: definition,
		extract:    archives.Extract,
	}
}

// Checkout checks out the repository into the working copy.
func (i *Importer) Checkout() error {
	i.logger.WithFields(logrus.Fields{"repository": i.definition.Repository, "working-copy": i.definition.WorkingCopy}).Info("Checking out working copy")

	return i.client.Checkout(i.definition.Repository, i.definition.WorkingCopy)
}

// Run imports the archives in the given order. It stops at the first error
// and returns the number of archives imported until then.
func (i *Importer) Run(list []archives.Archive) (int, error) {
	for n, archive := range list {
		err := i.Import(archive)
		if err != nil {
			return n, fmt.Errorf("Failed to import %q: %w", archive.Name, err)
		}
	}

	i.logger.Infof("Added %d new revisions", len(list))

	return len(list), nil
}

// Import replaces the content of the archive's subdirectory with the archive
// and commits the result.
func (i *Importer) Import(archive archives.Archive) error {
	target := filepath.Join(i.definition.WorkingCopy, archive.Subdir)

	logger := i.logger.WithFields(logrus.Fields{"archive": archive.Name, "date": archive.Date, "subdir": archive.Subdir})
	logger.Info("Importing archive")

	// Delete all files in the working copy
	if incus.PathExists(target) {
		err := os.RemoveAll(target)
		if err != nil {
			return fmt.Errorf("Failed to remove %q: %w", target, err)
		}
	}

	err := i.extract(archive.Path, target)
	if err != nil {
		return fmt.Errorf("Failed to extract %q: %w", archive.Path, err)
	}

	status, err := i.client.Status(target)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"new": len(status.Untracked), "deleted": len(status.Missing)}).Info("Reconciling working copy")

	// Restore missing files, some may only be missing because of the
	// extraction order.
	err = i.client.Update(target)
	if err != nil {
		return err
	}

	err = i.client.Remove(status.Missing)
	if err != nil {
		return err
	}

	err = i.client.Add(status.Untracked)
	if err != nil {
		return err
	}

	message, err := shared.RenderTemplate(i.definition.CommitMessage, map[string]any{"archive": archive})
	if err != nil {
		return fmt.Errorf("Failed to render commit message: %w", err)
	}

	revision, err := i.client.Commit(target, message)
	if err != nil {
		return err
	}

	if archive.Date != "" {
		if revision == "" {
			logger.Warn("Nothing committed, keeping date of previous revision")
		} else {
			err = i.client.SetDate(i.definition.WorkingCopy, archive.Date)
			if err != nil {
				return err
			}

			logger.WithField("revision", revision).Debug("Set revision date")
		}
	}

	err = i.client.Update(target)
	if err != nil {
		return err
	}

	status, err = i.client.Status(target)
	if err != nil {
		return err
	}

	if !status.Clean() {
		return fmt.Errorf("%w: %s", ErrUnclean, strings.Join(status.Lines, "; "))
	}

	return nil
}
