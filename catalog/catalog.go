// Package catalog maintains the library of media files the engine can
// stream: it scans a directory tree for video files and hands out stable
// IDs for them.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vodstream/jit-api/log"
)

// ErrNotFound means the media ID does not correspond to a scanned library
// file.
var ErrNotFound = errors.New("media not found in library")

// videoExtensions are the file types the scanner picks up. Everything else in
// the library directory is ignored.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".ts":   true,
	".m2ts": true,
}

// MediaInfo is one library entry. ID is derived from the library-relative
// path, so it survives restarts but changes when the file is moved.
type MediaInfo struct {
	ID      string    `json:"id"`
	Path    string    `json:"-"`
	RelPath string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Catalog scans a media directory and answers lookups by media ID. Scan
// replaces the whole index atomically; lookups never see a half built scan.
type Catalog struct {
	mediaDir string

	mu      sync.RWMutex
	byID    map[string]MediaInfo
	scanned time.Time
}

func NewCatalog(mediaDir string) *Catalog {
	return &Catalog{
		mediaDir: mediaDir,
		byID:     make(map[string]MediaInfo),
	}
}

// MediaID is the first 12 hex characters of the sha256 of the
// library-relative path, normalized to forward slashes.
func MediaID(relPath string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(relPath)))
	return hex.EncodeToString(sum[:])[:12]
}

// Scan walks the media directory and rebuilds the index. Unreadable
// subdirectories are logged and skipped rather than failing the whole scan.
func (c *Catalog) Scan() (int, error) {
	found := make(map[string]MediaInfo)
	err := filepath.WalkDir(c.mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.LogNoRequestID("skipping unreadable path during media scan", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != c.mediaDir {
				return fs.SkipDir
			}
			return nil
		}
		if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		relPath, err := filepath.Rel(c.mediaDir, path)
		if err != nil {
			return fmt.Errorf("failed to resolve library path for %s: %w", path, err)
		}
		info, err := d.Info()
		if err != nil {
			log.LogNoRequestID("skipping unstattable file during media scan", "path", path, "err", err)
			return nil
		}
		id := MediaID(relPath)
		if existing, ok := found[id]; ok {
			log.LogNoRequestID("media ID collision, keeping first file", "id", id, "kept", existing.RelPath, "dropped", relPath)
			return nil
		}
		found[id] = MediaInfo{
			ID:      id,
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("media scan of %s failed: %w", c.mediaDir, err)
	}

	c.mu.Lock()
	c.byID = found
	c.scanned = time.Now()
	c.mu.Unlock()

	log.LogNoRequestID("media library scanned", "dir", c.mediaDir, "count", len(found))
	return len(found), nil
}

// FindMedia looks up one library entry and re-checks that the file still
// exists, so a deletion between scans surfaces as not-found rather than a
// failed probe later.
func (c *Catalog) FindMedia(mediaID string) (MediaInfo, error) {
	c.mu.RLock()
	info, ok := c.byID[mediaID]
	c.mu.RUnlock()
	if !ok {
		return MediaInfo{}, fmt.Errorf("no library entry for %s: %w", mediaID, ErrNotFound)
	}
	if _, err := os.Stat(info.Path); err != nil {
		return MediaInfo{}, fmt.Errorf("library file %s missing on disk: %w", info.RelPath, ErrNotFound)
	}
	return info, nil
}

// List returns every library entry sorted by relative path.
func (c *Catalog) List() []MediaInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := make([]MediaInfo, 0, len(c.byID))
	for _, info := range c.byID {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].RelPath < list[j].RelPath })
	return list
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// LastScanned reports when the index was last rebuilt, zero if never.
func (c *Catalog) LastScanned() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scanned
}
