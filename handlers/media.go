package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/vodstream/jit-api/catalog"
	apiErrs "github.com/vodstream/jit-api/errors"
	"github.com/vodstream/jit-api/log"
	"github.com/vodstream/jit-api/requests"
)

type mediaListItem struct {
	catalog.MediaInfo
	MasterPlaylist string `json:"masterPlaylist"`
}

type MediaListResponse struct {
	Media []mediaListItem `json:"media"`
	Count int             `json:"count"`
}

// ListMedia returns the scanned library with the playback URL for each item.
func (d *JITAPIHandlersCollection) ListMedia() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		requestID := requests.GetRequestId(req)
		entries := d.Library.List()
		items := make([]mediaListItem, 0, len(entries))
		for _, info := range entries {
			items = append(items, mediaListItem{
				MediaInfo:      info,
				MasterPlaylist: "/hls/" + info.ID + "/master.m3u8",
			})
		}
		writeJSON(requestID, w, http.StatusOK, MediaListResponse{Media: items, Count: len(items)})
	}
}

// RefreshCatalog rescans the library directory on demand.
func (d *JITAPIHandlersCollection) RefreshCatalog() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		requestID := requests.GetRequestId(req)
		count, err := d.Library.Scan()
		if err != nil {
			log.LogError(requestID, "media rescan failed", err)
			apiErrs.WriteHTTPInternalServerError(w, "media rescan failed", err)
			return
		}
		log.Log(requestID, "media library rescanned", "count", count)
		writeJSON(requestID, w, http.StatusOK, map[string]int{"count": count})
	}
}
