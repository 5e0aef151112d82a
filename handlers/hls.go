package handlers

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	apiErrs "github.com/vodstream/jit-api/errors"
	"github.com/vodstream/jit-api/log"
	"github.com/vodstream/jit-api/requests"
	"github.com/vodstream/jit-api/video"
)

const (
	playlistContentType = "application/vnd.apple.mpegurl"
	segmentContentType  = "video/mp2t"

	// Playlists are immutable per initialization but can change after an
	// eviction; segments are content addressed and never change.
	playlistCacheControl  = "public, max-age=3600"
	segmentCacheControl   = "public, max-age=31536000, immutable"
	thumbnailCacheControl = "public, max-age=86400"

	// Keyframe lists run to thousands of entries for long media; above this
	// the metadata endpoint reports the count instead.
	maxKeyframesInResponse = 100
)

// HLSGet serves everything under GET /hls/. httprouter cannot register both
// /hls/:mediaId/master.m3u8 and /hls/:mediaId/:quality/playlist.m3u8, so a
// single wildcard handler splits the path tail itself:
//
//	stats                               engine snapshot
//	metadata                            summaries for every initialized media
//	<mediaId>/master.m3u8               master playlist
//	<mediaId>/metadata                  full metadata for one media
//	<mediaId>/thumbnail.jpg             poster frame
//	<mediaId>/<quality>/playlist.m3u8   variant playlist
//	<mediaId>/<quality>/segment_NNN.ts  media segment
func (d *JITAPIHandlersCollection) HLSGet() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		requestID := requests.GetRequestId(req)
		parts := strings.Split(strings.Trim(params.ByName("filepath"), "/"), "/")

		switch len(parts) {
		case 1:
			switch parts[0] {
			case "stats":
				writeJSON(requestID, w, http.StatusOK, d.Engine.Stats())
				return
			case "metadata":
				writeJSON(requestID, w, http.StatusOK, d.Engine.MetadataSummaries())
				return
			}
		case 2:
			mediaID := parts[0]
			switch parts[1] {
			case "master.m3u8":
				d.serveMasterPlaylist(requestID, w, req, mediaID)
				return
			case "metadata":
				d.serveMediaMetadata(requestID, w, mediaID)
				return
			case "thumbnail.jpg":
				d.serveThumbnail(requestID, w, req, mediaID)
				return
			}
		case 3:
			mediaID, quality, file := parts[0], parts[1], parts[2]
			if file == "playlist.m3u8" {
				d.serveVariantPlaylist(requestID, w, req, mediaID, quality)
				return
			}
			d.serveSegment(requestID, w, req, mediaID, quality, file)
			return
		}
		apiErrs.WriteHTTPNotFound(w, "no such HLS resource", nil)
	}
}

// HLSDelete handles operator cache eviction:
//
//	DELETE /hls/cache            evict everything
//	DELETE /hls/<mediaId>/cache  evict one media
func (d *JITAPIHandlersCollection) HLSDelete() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		requestID := requests.GetRequestId(req)
		parts := strings.Split(strings.Trim(params.ByName("filepath"), "/"), "/")

		switch {
		case len(parts) == 1 && parts[0] == "cache":
			count, err := d.Engine.EvictAll(requestID)
			if err != nil {
				writeEngineError(requestID, w, req, err)
				return
			}
			writeJSON(requestID, w, http.StatusOK, map[string]int{"evicted": count})
		case len(parts) == 2 && parts[1] == "cache":
			if err := d.Engine.EvictMedia(requestID, parts[0]); err != nil {
				writeEngineError(requestID, w, req, err)
				return
			}
			writeJSON(requestID, w, http.StatusOK, map[string]string{"status": "evicted", "mediaId": parts[0]})
		default:
			apiErrs.WriteHTTPNotFound(w, "no such HLS resource", nil)
		}
	}
}

func (d *JITAPIHandlersCollection) serveMasterPlaylist(requestID string, w http.ResponseWriter, req *http.Request, mediaID string) {
	path, err := d.Engine.InitializeStreaming(requestID, mediaID)
	if err != nil {
		writeEngineError(requestID, w, req, err)
		return
	}
	w.Header().Set("Content-Type", playlistContentType)
	w.Header().Set("Cache-Control", playlistCacheControl)
	http.ServeFile(w, req, path)
}

func (d *JITAPIHandlersCollection) serveVariantPlaylist(requestID string, w http.ResponseWriter, req *http.Request, mediaID, quality string) {
	path, err := d.Engine.VariantPlaylistPath(requestID, mediaID, quality)
	if err != nil {
		writeEngineError(requestID, w, req, err)
		return
	}
	w.Header().Set("Content-Type", playlistContentType)
	w.Header().Set("Cache-Control", playlistCacheControl)
	http.ServeFile(w, req, path)
}

func (d *JITAPIHandlersCollection) serveSegment(requestID string, w http.ResponseWriter, req *http.Request, mediaID, quality, segmentFile string) {
	log.AddContext(requestID, "media_id", mediaID, "quality", quality, "segment", segmentFile)
	path, err := d.Engine.GetSegment(requestID, mediaID, quality, segmentFile)
	if err != nil {
		writeEngineError(requestID, w, req, err)
		return
	}
	w.Header().Set("Content-Type", segmentContentType)
	w.Header().Set("Cache-Control", segmentCacheControl)
	http.ServeFile(w, req, path)
}

func (d *JITAPIHandlersCollection) serveThumbnail(requestID string, w http.ResponseWriter, req *http.Request, mediaID string) {
	path, err := d.Engine.Thumbnail(requestID, mediaID)
	if err != nil {
		writeEngineError(requestID, w, req, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", thumbnailCacheControl)
	http.ServeFile(w, req, path)
}

// mediaMetadataResponse is MediaMetadata with the keyframe list elided once
// it gets large. The outer Keyframes field shadows the embedded one.
type mediaMetadataResponse struct {
	video.MediaMetadata
	Keyframes     []video.Keyframe `json:"keyframes,omitempty"`
	KeyframeCount int              `json:"keyframeCount"`
}

// serveMediaMetadata reports the cached streaming plan for one media item.
// Diagnostics never initialize streaming themselves.
func (d *JITAPIHandlersCollection) serveMediaMetadata(requestID string, w http.ResponseWriter, mediaID string) {
	metadata, ok := d.Engine.MetadataFor(mediaID)
	if !ok {
		apiErrs.WriteHTTPNotFound(w, "streaming not initialized for media", nil)
		return
	}
	resp := mediaMetadataResponse{
		MediaMetadata: *metadata,
		KeyframeCount: len(metadata.Keyframes),
	}
	if len(metadata.Keyframes) <= maxKeyframesInResponse {
		resp.Keyframes = metadata.Keyframes
	}
	writeJSON(requestID, w, http.StatusOK, resp)
}
