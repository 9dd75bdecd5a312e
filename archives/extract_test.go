package archives

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2012, 4, 5, 6, 7, 8, 0, time.UTC)

	archive := filepath.Join(dir, "release.tar.gz")
	writeTarball(t, archive, "gzip", []member{
		{name: "./", typeflag: tar.TypeDir, mtime: mtime},
		{name: "src/", typeflag: tar.TypeDir, mtime: mtime},
		{name: "src/main.c", body: "int main() { return 0; }\n", mtime: mtime},
		{name: "doc/README", body: "readme\n", mtime: mtime},
		{name: "src/current.c", typeflag: tar.TypeSymlink, linkname: "main.c", mtime: mtime},
		{name: "src/copy.c", typeflag: tar.TypeLink, linkname: "src/main.c", mtime: mtime},
		{name: "../escape", body: "outside\n", mtime: mtime},
	})

	target := filepath.Join(dir, "wc", "project")

	err := Extract(archive, target)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(target, "src", "main.c"))
	require.NoError(t, err)
	require.Equal(t, "int main() { return 0; }\n", string(content))

	content, err = os.ReadFile(filepath.Join(target, "doc", "README"))
	require.NoError(t, err)
	require.Equal(t, "readme\n", string(content))

	link, err := os.Readlink(filepath.Join(target, "src", "current.c"))
	require.NoError(t, err)
	require.Equal(t, "main.c", link)

	content, err = os.ReadFile(filepath.Join(target, "src", "copy.c"))
	require.NoError(t, err)
	require.Equal(t, "int main() { return 0; }\n", string(content))

	info, err := os.Stat(filepath.Join(target, "src", "main.c"))
	require.NoError(t, err)
	require.True(t, info.ModTime().Equal(mtime))

	info, err = os.Stat(filepath.Join(target, "src"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.True(t, info.ModTime().Equal(mtime))

	// Members can't leave the target directory.
	require.NoFileExists(t, filepath.Join(dir, "wc", "escape"))
	require.FileExists(t, filepath.Join(target, "escape"))
}

func TestExtractOverwrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "project")

	first := filepath.Join(dir, "first.tar")
	writeTarball(t, first, "", []member{
		{name: "file", body: "first version with a longer body\n"},
	})

	second := filepath.Join(dir, "second.tar")
	writeTarball(t, second, "", []member{
		{name: "file", body: "second\n"},
	})

	require.NoError(t, Extract(first, target))
	require.NoError(t, Extract(second, target))

	content, err := os.ReadFile(filepath.Join(target, "file"))
	require.NoError(t, err)
	require.Equal(t, "second\n", string(content))
}

func TestExtractUnsupported(t *testing.T) {
	dir := t.TempDir()

	archive := filepath.Join(dir, "broken.tar")
	require.NoError(t, os.WriteFile(archive, []byte("no tarball here"), 0644))

	err := Extract(archive, filepath.Join(dir, "project"))
	require.ErrorIs(t, err, ErrUnsupportedArchive)
}
