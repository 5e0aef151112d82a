package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeLibrary(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("fake media"), 0644))
	}
	return dir
}

func TestScanFindsVideoFiles(t *testing.T) {
	dir := writeLibrary(t,
		"movies/alpha.mkv",
		"movies/beta.mp4",
		"shows/s01/ep1.webm",
		"notes.txt",
		"cover.jpg",
	)
	catalog := NewCatalog(dir)
	count, err := catalog.Scan()
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.Equal(t, 3, catalog.Len())
	require.False(t, catalog.LastScanned().IsZero())

	list := catalog.List()
	require.Len(t, list, 3)
	require.Equal(t, "movies/alpha.mkv", list[0].RelPath)
	require.Equal(t, "movies/beta.mp4", list[1].RelPath)
	require.Equal(t, "shows/s01/ep1.webm", list[2].RelPath)
	for _, info := range list {
		require.Len(t, info.ID, 12)
		require.Equal(t, int64(len("fake media")), info.Size)
	}
}

func TestScanSkipsHiddenDirectories(t *testing.T) {
	dir := writeLibrary(t, "visible.mp4", ".trash/deleted.mp4")
	catalog := NewCatalog(dir)
	count, err := catalog.Scan()
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, "visible.mp4", catalog.List()[0].RelPath)
}

func TestMediaIDIsStable(t *testing.T) {
	require.Equal(t, MediaID("movies/alpha.mkv"), MediaID("movies/alpha.mkv"))
	require.NotEqual(t, MediaID("movies/alpha.mkv"), MediaID("movies/beta.mkv"))
	// Windows style separators map to the same ID.
	require.Equal(t, MediaID("movies/alpha.mkv"), MediaID(filepath.FromSlash("movies/alpha.mkv")))
}

func TestFindMedia(t *testing.T) {
	dir := writeLibrary(t, "movie.mp4")
	catalog := NewCatalog(dir)
	_, err := catalog.Scan()
	require.NoError(t, err)

	id := MediaID("movie.mp4")
	info, err := catalog.FindMedia(id)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "movie.mp4"), info.Path)

	_, err = catalog.FindMedia("doesnotexist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindMediaDetectsDeletedFile(t *testing.T) {
	dir := writeLibrary(t, "movie.mp4")
	catalog := NewCatalog(dir)
	_, err := catalog.Scan()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "movie.mp4")))
	_, err = catalog.FindMedia(MediaID("movie.mp4"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRescanReplacesIndex(t *testing.T) {
	dir := writeLibrary(t, "first.mp4")
	catalog := NewCatalog(dir)
	_, err := catalog.Scan()
	require.NoError(t, err)
	require.Equal(t, 1, catalog.Len())

	require.NoError(t, os.Remove(filepath.Join(dir, "first.mp4")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.mp4"), []byte("x"), 0644))

	count, err := catalog.Scan()
	require.NoError(t, err)
	require.Equal(t, 1, count)
	_, err = catalog.FindMedia(MediaID("first.mp4"))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = catalog.FindMedia(MediaID("second.mp4"))
	require.NoError(t, err)
}
