package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/vodstream/jit-api/catalog"
	apiErrs "github.com/vodstream/jit-api/errors"
	"github.com/vodstream/jit-api/log"
	"github.com/vodstream/jit-api/stream"
)

// JITAPIHandlersCollection serves the player facing HLS surface and the
// library endpoints behind it.
type JITAPIHandlersCollection struct {
	Engine  *stream.Engine
	Library *catalog.Catalog
}

func NewJITAPIHandlersCollection(engine *stream.Engine, library *catalog.Catalog) *JITAPIHandlersCollection {
	return &JITAPIHandlersCollection{Engine: engine, Library: library}
}

func (d *JITAPIHandlersCollection) Ok() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		if _, err := io.WriteString(w, "OK"); err != nil {
			log.LogNoRequestID("Failed to write HTTP response for " + req.URL.Path)
		}
	}
}

func writeJSON(requestID string, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.LogError(requestID, "failed to write JSON response", err)
	}
}

// writeEngineError maps the engine error taxonomy onto HTTP statuses.
func writeEngineError(requestID string, w http.ResponseWriter, req *http.Request, err error) {
	log.LogError(requestID, "request failed", err, "url", req.URL)
	switch {
	case errors.Is(err, stream.ErrMediaNotFound):
		apiErrs.WriteHTTPNotFound(w, "media not found", err)
	case errors.Is(err, stream.ErrBadSegmentName):
		apiErrs.WriteHTTPBadRequest(w, "invalid segment name", err)
	case errors.Is(err, stream.ErrSegmentOutOfRange):
		apiErrs.WriteHTTPBadRequest(w, "segment out of range", err)
	case errors.Is(err, stream.ErrUnknownQuality):
		apiErrs.WriteHTTPBadRequest(w, "unknown quality", err)
	case errors.Is(err, stream.ErrMediaBusy):
		apiErrs.WriteHTTPConflict(w, "media has jobs in flight", err)
	case errors.Is(err, stream.ErrShutdown):
		apiErrs.WriteHTTPServiceUnavailable(w, "shutting down", err)
	default:
		apiErrs.WriteHTTPInternalServerError(w, "internal server error", err)
	}
}
