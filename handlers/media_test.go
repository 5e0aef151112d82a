package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListMedia(t *testing.T) {
	d, mediaID := newTestCollection(t)

	w := httptest.NewRecorder()
	d.ListMedia()(w, httptest.NewRequest("GET", "/api/media", nil), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp MediaListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, mediaID, resp.Media[0].ID)
	require.Equal(t, "movies/demo.mp4", resp.Media[0].RelPath)
	require.Equal(t, "/hls/"+mediaID+"/master.m3u8", resp.Media[0].MasterPlaylist)
}

func TestRefreshCatalog(t *testing.T) {
	d, _ := newTestCollection(t)

	// A file added after the startup scan appears once refresh runs.
	moviesDir := filepath.Dir(d.Library.List()[0].Path)
	require.NoError(t, os.WriteFile(filepath.Join(moviesDir, "second.mkv"), []byte("x"), 0644))

	w := httptest.NewRecorder()
	d.RefreshCatalog()(w, httptest.NewRequest("POST", "/api/refresh", nil), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp["count"])
	require.Equal(t, 2, d.Library.Len())
}
