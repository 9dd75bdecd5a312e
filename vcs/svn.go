package vcs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lxc/incus/v6/shared/subprocess"
	"github.com/sirupsen/logrus"
)

// ErrCheckout is returned if a checkout didn't report a checked out revision.
var ErrCheckout = errors.New("Checkout did not report a revision")

var committedRevision = regexp.MustCompile(`(?m)^Committed revision (\d+)\.`)

type runner func(ctx context.Context, name string, args ...string) (string, error)

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	return subprocess.RunCommandContext(ctx, name, args...)
}

// svn drives the Subversion command line client.
type svn struct {
	ctx    context.Context
	logger *logrus.Logger
	run    runner
}

func (s *svn) init(ctx context.Context, logger *logrus.Logger) {
	s.ctx = ctx
	s.logger = logger
}

func (s *svn) svn(args ...string) (string, error) {
	args = append([]string{"--non-interactive"}, args...)

	s.logger.WithField("args", args).Debug("Running svn")

	return s.run(s.ctx, "svn", args...)
}

func (s *svn) Checkout(url string, path string) error {
	out, err := s.svn("checkout", url, path)
	if err != nil {
		return fmt.Errorf("Failed to check out %q: %w", url, err)
	}

	if !strings.Contains(out, "Checked out revision") {
		return fmt.Errorf("%w: %q", ErrCheckout, strings.TrimSpace(out))
	}

	return nil
}

func (s *svn) Status(path string) (*Status, error) {
	out, err := s.svn("status", path)
	if err != nil {
		return nil, fmt.Errorf("Failed to get status of %q: %w", path, err)
	}

	return ParseStatus(out), nil
}

func (s *svn) Update(path string) error {
	_, err := s.svn("update", path)
	if err != nil {
		return fmt.Errorf("Failed to update %q: %w", path, err)
	}

	return nil
}

func (s *svn) Remove(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	_, err := s.svn(append([]string{"remove"}, paths...)...)
	if err != nil {
		return fmt.Errorf("Failed to remove %d paths: %w", len(paths), err)
	}

	return nil
}

func (s *svn) Add(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	_, err := s.svn(append([]string{"add"}, paths...)...)
	if err != nil {
		return fmt.Errorf("Failed to add %d paths: %w", len(paths), err)
	}

	return nil
}

func (s *svn) Commit(path string, message string) (string, error) {
	out, err := s.svn("commit", "-m", message, path)
	if err != nil {
		return "", fmt.Errorf("Failed to commit %q: %w", path, err)
	}

	match := committedRevision.FindStringSubmatch(out)
	if match == nil {
		return "", nil
	}

	return match[1], nil
}

func (s *svn) SetDate(path string, date string) error {
	_, err := s.svn("propset", "svn:date", date, "--revprop", "-r", "HEAD", path)
	if err != nil {
		return fmt.Errorf("Failed to set svn:date (is the pre-revprop-change hook enabled?): %w", err)
	}

	return nil
}
