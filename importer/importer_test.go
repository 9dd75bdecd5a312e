package importer

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/utbest/toolbox/archives"
	"github.com/utbest/toolbox/shared"
	"github.com/utbest/toolbox/vcs"
)

// fakeClient emulates a working copy by tracking file paths.
type fakeClient struct {
	tracked  map[string]bool
	revision int

	removed   [][]string
	added     [][]string
	messages  []string
	dates     []string
	updates   int
	updateErr error
	noCommit  bool
	dirty     bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{tracked: map[string]bool{}}
}

func (f *fakeClient) Checkout(url string, path string) error {
	return os.MkdirAll(path, 0755)
}

func (f *fakeClient) Status(path string) (*vcs.Status, error) {
	status := &vcs.Status{}

	onDisk := map[string]bool{}

	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			onDisk[p] = true
		}

		return nil
	})

	var tracked []string
	for p := range f.tracked {
		tracked = append(tracked, p)
	}

	slices.Sort(tracked)

	for _, p := range tracked {
		if !onDisk[p] {
			status.Missing = append(status.Missing, p)
			status.Lines = append(status.Lines, "!       "+p)
		}
	}

	var untracked []string
	for p := range onDisk {
		if !f.tracked[p] {
			untracked = append(untracked, p)
		}
	}

	slices.Sort(untracked)

	for _, p := range untracked {
		status.Untracked = append(status.Untracked, p)
		status.Lines = append(status.Lines, "?       "+p)
	}

	if f.dirty && f.revision > 0 {
		status.Lines = append(status.Lines, "M       "+path)
	}

	return status, nil
}

func (f *fakeClient) Update(path string) error {
	f.updates++

	if f.updateErr != nil {
		return f.updateErr
	}

	for p := range f.tracked {
		_, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			err = os.MkdirAll(filepath.Dir(p), 0755)
			if err != nil {
				return err
			}

			err = os.WriteFile(p, nil, 0644)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (f *fakeClient) Remove(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	f.removed = append(f.removed, paths)

	for _, p := range paths {
		delete(f.tracked, p)
		os.Remove(p)
	}

	return nil
}

func (f *fakeClient) Add(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	f.added = append(f.added, paths)

	for _, p := range paths {
		f.tracked[p] = true
	}

	return nil
}

func (f *fakeClient) Commit(path string, message string) (string, error) {
	f.messages = append(f.messages, message)

	if f.noCommit {
		return "", nil
	}

	f.revision++

	return strconv.Itoa(f.revision), nil
}

func (f *fakeClient) SetDate(path string, date string) error {
	f.dates = append(f.dates, date)
	return nil
}

func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	defer f.Close()

	zw := pgzip.NewWriter(f)
	tw := tar.NewWriter(zw)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		body := files[name]

		err = tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(body)),
			ModTime:  time.Date(2015, 1, 2, 3, 4, 5, 0, time.UTC),
		})
		require.NoError(t, err)

		_, err = tw.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
}

func newTestImporter(t *testing.T, client vcs.Client) (*Importer, string) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := t.TempDir()

	def := shared.Definition{
		Repository:  "file:///srv/svn/archive",
		WorkingCopy: filepath.Join(dir, "wc"),
		ArchiveDir:  dir,
		Patterns: []shared.DefinitionPattern{
			{Subdir: "project", Match: "project_??-??-??.tar.gz", DateFormat: "project_%y-%m-%d.tar.gz"},
		},
	}

	def.SetDefaults()
	require.NoError(t, def.Validate())

	return New(logger, client, def), dir
}

func TestImportReconcilesWorkingCopy(t *testing.T) {
	client := newFakeClient()
	imp, dir := newTestImporter(t, client)

	require.NoError(t, imp.Checkout())

	// Working copy tracks a and b.
	target := filepath.Join(dir, "wc", "project")
	require.NoError(t, os.MkdirAll(target, 0755))

	for _, name := range []string{"a", "b"} {
		p := filepath.Join(target, name)
		require.NoError(t, os.WriteFile(p, []byte(name+"\n"), 0644))
		client.tracked[p] = true
	}

	// The archive holds b and c.
	path := filepath.Join(dir, "project_15-01-02.tar.gz")
	writeArchive(t, path, map[string]string{"b": "b\n", "c": "c\n"})

	archive := archives.Archive{
		Date:   "2015-01-02T00:00:00.000000Z",
		Name:   "project_15-01-02.tar.gz",
		Path:   path,
		Subdir: "project",
	}

	err := imp.Import(archive)
	require.NoError(t, err)

	require.Equal(t, [][]string{{filepath.Join(target, "a")}}, client.removed)
	require.Equal(t, [][]string{{filepath.Join(target, "c")}}, client.added)
	require.Equal(t, []string{"Content of archive project_15-01-02.tar.gz"}, client.messages)
	require.Equal(t, []string{"2015-01-02T00:00:00.000000Z"}, client.dates)
	require.Equal(t, 2, client.updates)

	require.NoFileExists(t, filepath.Join(target, "a"))
	require.FileExists(t, filepath.Join(target, "b"))
	require.FileExists(t, filepath.Join(target, "c"))
	require.True(t, client.tracked[filepath.Join(target, "b")])
}

func TestRunInOrder(t *testing.T) {
	client := newFakeClient()
	imp, dir := newTestImporter(t, client)

	require.NoError(t, imp.Checkout())

	var list []archives.Archive

	for _, a := range []struct{ name, date string }{
		{"project_14-05-01.tar.gz", "2014-05-01T00:00:00.000000Z"},
		{"project_15-01-02.tar.gz", "2015-01-02T00:00:00.000000Z"},
	} {
		path := filepath.Join(dir, a.name)
		writeArchive(t, path, map[string]string{"README": a.name})
		list = append(list, archives.Archive{Date: a.date, Name: a.name, Path: path, Subdir: "project"})
	}

	n, err := imp.Run(list)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"2014-05-01T00:00:00.000000Z", "2015-01-02T00:00:00.000000Z"}, client.dates)
	require.Equal(t, []string{"Content of archive project_14-05-01.tar.gz", "Content of archive project_15-01-02.tar.gz"}, client.messages)

	content, err := os.ReadFile(filepath.Join(dir, "wc", "project", "README"))
	require.NoError(t, err)
	require.Equal(t, "project_15-01-02.tar.gz", string(content))
}

func TestImportUpdateFailure(t *testing.T) {
	client := newFakeClient()
	client.updateErr = errors.New("svn: E155004: Working copy locked")

	imp, dir := newTestImporter(t, client)

	path := filepath.Join(dir, "project_15-01-02.tar.gz")
	writeArchive(t, path, map[string]string{"b": "b\n"})

	n, err := imp.Run([]archives.Archive{{Date: "2015-01-02T00:00:00.000000Z", Name: "project_15-01-02.tar.gz", Path: path, Subdir: "project"}})
	require.ErrorIs(t, err, client.updateErr)
	require.Equal(t, 0, n)
	require.Empty(t, client.messages)
	require.Empty(t, client.dates)
}

func TestImportUnclean(t *testing.T) {
	client := newFakeClient()
	client.dirty = true

	imp, dir := newTestImporter(t, client)

	path := filepath.Join(dir, "project_15-01-02.tar.gz")
	writeArchive(t, path, map[string]string{"b": "b\n"})

	err := imp.Import(archives.Archive{Date: "2015-01-02T00:00:00.000000Z", Name: "project_15-01-02.tar.gz", Path: path, Subdir: "project"})
	require.ErrorIs(t, err, ErrUnclean)
}

func TestImportWithoutRevision(t *testing.T) {
	client := newFakeClient()
	client.noCommit = true

	imp, dir := newTestImporter(t, client)

	path := filepath.Join(dir, "project_15-01-02.tar.gz")
	writeArchive(t, path, map[string]string{"b": "b\n"})

	err := imp.Import(archives.Archive{Date: "2015-01-02T00:00:00.000000Z", Name: "project_15-01-02.tar.gz", Path: path, Subdir: "project"})
	require.NoError(t, err)
	require.Empty(t, client.dates)
}

func TestImportCommitMessageTemplate(t *testing.T) {
	client := newFakeClient()
	imp, dir := newTestImporter(t, client)

	imp.definition.CommitMessage = "Import {{ archive.subdir }} from {{ archive.name }} ({{ archive.date }})"

	path := filepath.Join(dir, "project_15-01-02.tar.gz")
	writeArchive(t, path, map[string]string{"b": "b\n"})

	err := imp.Import(archives.Archive{Date: "2015-01-02T00:00:00.000000Z", Name: "project_15-01-02.tar.gz", Path: path, Subdir: "project"})
	require.NoError(t, err)
	require.Equal(t, []string{"Import project from project_15-01-02.tar.gz (2015-01-02T00:00:00.000000Z)"}, client.messages)
}
