// Package playlist renders the HLS master and rendition playlists for a
// segment plan and owns the on-disk layout of the HLS cache tree.
package playlist

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/grafov/m3u8"

	"github.com/vodstream/jit-api/video"
)

const (
	MasterPlaylistFilename  = "master.m3u8"
	VariantPlaylistFilename = "playlist.m3u8"

	// EXTINF safety margin. Encoded segments can run slightly past the
	// planned duration when the encoder finishes a GOP, and HLS requires
	// EXTINF to upper bound the real duration.
	extinfPadding = 0.05
)

// independentSegmentsTag emits #EXT-X-INDEPENDENT-SEGMENTS on rendition
// playlists. Every segment starts with a forced keyframe, so players may
// decode any segment on its own.
type independentSegmentsTag struct{}

func (independentSegmentsTag) TagName() string {
	return "#EXT-X-INDEPENDENT-SEGMENTS"
}

func (t independentSegmentsTag) Encode() *bytes.Buffer {
	return bytes.NewBufferString(t.TagName())
}

func (t independentSegmentsTag) String() string {
	return t.TagName()
}

// Master renders the master playlist with one STREAM-INF entry per rendition,
// highest resolution first.
func Master(metadata video.MediaMetadata) (string, error) {
	if len(metadata.AvailableProfiles) == 0 {
		return "", errors.New("no renditions to write to master playlist")
	}

	profiles := make([]video.QualityProfile, len(metadata.AvailableProfiles))
	copy(profiles, metadata.AvailableProfiles)
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].Height > profiles[j].Height })

	master := m3u8.NewMasterPlaylist()
	for _, profile := range profiles {
		bandwidth, err := profileBandwidth(profile)
		if err != nil {
			return "", fmt.Errorf("failed to derive bandwidth for %s: %w", profile.Name, err)
		}
		master.Append(
			profile.Name+"/"+VariantPlaylistFilename,
			&m3u8.MediaPlaylist{},
			m3u8.VariantParams{
				Name:       profile.Name,
				Bandwidth:  bandwidth,
				Resolution: fmt.Sprintf("%dx%d", profile.Width, profile.Height),
				FrameRate:  metadata.Analysis.FPS,
			},
		)
	}
	return master.String(), nil
}

// Variant renders one rendition playlist for the segment plan. Segment
// durations carry the EXTINF padding, and every segment after the first is
// preceded by a discontinuity marker because each is an independent encoder
// invocation with its own timestamp base.
func Variant(metadata video.MediaMetadata, profile video.QualityProfile) (string, error) {
	if len(metadata.Segments) == 0 {
		return "", fmt.Errorf("no segments planned for %s", metadata.MediaID)
	}

	rendition, err := m3u8.NewMediaPlaylist(0, uint(len(metadata.Segments)))
	if err != nil {
		return "", fmt.Errorf("failed to create rendition playlist: %w", err)
	}
	rendition.MediaType = m3u8.VOD
	rendition.SetCustomTag(independentSegmentsTag{})

	for i, segment := range metadata.Segments {
		if err := rendition.Append(segment.FileName, segment.Duration+extinfPadding, ""); err != nil {
			return "", fmt.Errorf("failed to append segment %d to %s playlist: %w", segment.SegmentNumber, profile.Name, err)
		}
		if i > 0 {
			if err := rendition.SetDiscontinuity(); err != nil {
				return "", fmt.Errorf("failed to mark discontinuity on segment %d: %w", segment.SegmentNumber, err)
			}
		}
	}
	rendition.Close()
	return rendition.String(), nil
}

// WriteAll renders every playlist for the media item and writes them under
// root. All content is rendered before the first byte hits disk, and each
// file is synced and renamed into place so a crash never leaves a half
// written playlist behind. Returns the master playlist path.
func WriteAll(root string, metadata video.MediaMetadata) (string, error) {
	masterContent, err := Master(metadata)
	if err != nil {
		return "", err
	}
	variants := make(map[string]string, len(metadata.AvailableProfiles))
	for _, profile := range metadata.AvailableProfiles {
		content, err := Variant(metadata, profile)
		if err != nil {
			return "", err
		}
		variants[profile.Name] = content
	}

	for name, content := range variants {
		dir := VariantDir(root, metadata.MediaID, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create rendition directory %s: %w", dir, err)
		}
		if err := writeFileDurable(filepath.Join(dir, VariantPlaylistFilename), []byte(content)); err != nil {
			return "", err
		}
	}

	masterPath := MasterPath(root, metadata.MediaID)
	if err := writeFileDurable(masterPath, []byte(masterContent)); err != nil {
		return "", err
	}
	return masterPath, nil
}

// MediaDir is <root>/<mediaId>.
func MediaDir(root, mediaID string) string {
	return filepath.Join(root, mediaID)
}

// MasterPath is <root>/<mediaId>/master.m3u8.
func MasterPath(root, mediaID string) string {
	return filepath.Join(root, mediaID, MasterPlaylistFilename)
}

// VariantDir is <root>/<mediaId>/<quality>.
func VariantDir(root, mediaID, quality string) string {
	return filepath.Join(root, mediaID, quality)
}

// VariantPath is <root>/<mediaId>/<quality>/playlist.m3u8.
func VariantPath(root, mediaID, quality string) string {
	return filepath.Join(root, mediaID, quality, VariantPlaylistFilename)
}

// SegmentPath is <root>/<mediaId>/<quality>/<fileName>. Callers validate
// fileName against the segment name pattern before building paths with it.
func SegmentPath(root, mediaID, quality, fileName string) string {
	return filepath.Join(root, mediaID, quality, fileName)
}

func profileBandwidth(profile video.QualityProfile) (uint32, error) {
	videoBits, err := video.ParseBitrate(profile.VideoBitrate)
	if err != nil {
		return 0, err
	}
	audioBits, err := video.ParseBitrate(profile.AudioBitrate)
	if err != nil {
		return 0, err
	}
	return uint32(videoBits + audioBits), nil
}

func writeFileDurable(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}
