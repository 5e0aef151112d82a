package handlers

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	apiErrs "github.com/vodstream/jit-api/errors"
	"github.com/vodstream/jit-api/log"
	"github.com/vodstream/jit-api/requests"
	"github.com/xeipuuv/gojsonschema"
)

const PrewarmRequestSchemaDefinition = `{
	"type": "object",
	"properties": {
		"mediaId": {
			"type": "string",
			"minLength": 1
		},
		"quality": {
			"type": "string"
		},
		"segments": {
			"type": "integer",
			"minimum": 1,
			"maximum": 32
		}
	},
	"required": ["mediaId"],
	"additionalProperties": false
}`

type PrewarmRequest struct {
	MediaID  string `json:"mediaId"`
	Quality  string `json:"quality"`
	Segments int    `json:"segments"`
}

type PrewarmResponse struct {
	MasterPlaylist string `json:"masterPlaylist"`
	RequestID      string `json:"requestId"`
}

func HasContentType(r *http.Request, mimetype string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return mimetype == "application/octet-stream"
	}

	for _, v := range strings.Split(contentType, ",") {
		t, _, err := mime.ParseMediaType(v)
		if err != nil {
			break
		}
		if t == mimetype {
			return true
		}
	}
	return false
}

// Prewarm initializes streaming for a media item and schedules its first
// segments in background, so playback starts from a warm cache. Responds 202
// without waiting for the jobs.
func (d *JITAPIHandlersCollection) Prewarm() httprouter.Handle {
	schema := inputSchemasCompiled["Prewarm"]

	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		requestID := requests.GetRequestId(req)

		var prewarmRequest PrewarmRequest
		if !HasContentType(req, "application/json") {
			apiErrs.WriteHTTPUnsupportedMediaType(w, "Requires application/json content type", nil)
			return
		} else if payload, err := io.ReadAll(req.Body); err != nil {
			apiErrs.WriteHTTPInternalServerError(w, "Cannot read payload", err)
			return
		} else if result, err := schema.Validate(gojsonschema.NewBytesLoader(payload)); err != nil {
			apiErrs.WriteHTTPInternalServerError(w, "Cannot validate payload", err)
			return
		} else if !result.Valid() {
			apiErrs.WriteHTTPBadBodySchema("Prewarm", w, result.Errors())
			return
		} else if err := json.Unmarshal(payload, &prewarmRequest); err != nil {
			apiErrs.WriteHTTPBadRequest(w, "Invalid request payload", err)
			return
		}

		log.AddContext(requestID, "media_id", prewarmRequest.MediaID, "quality", prewarmRequest.Quality)
		_, err := d.Engine.Prewarm(requestID, prewarmRequest.MediaID, prewarmRequest.Quality, prewarmRequest.Segments)
		if err != nil {
			writeEngineError(requestID, w, req, err)
			return
		}
		writeJSON(requestID, w, http.StatusAccepted, PrewarmResponse{
			MasterPlaylist: "/hls/" + prewarmRequest.MediaID + "/master.m3u8",
			RequestID:      requestID,
		})
	}
}
