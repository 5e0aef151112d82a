package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/vodstream/jit-api/config"
	"github.com/vodstream/jit-api/log"
)

type HealthcheckResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	MediaCount int    `json:"mediaCount"`
}

// Healthcheck returns 200 while the process is able to serve, along with the
// build version and the number of catalogued media files. Used by supervisors
// and reverse proxies.
func (d *JITAPIHandlersCollection) Healthcheck() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		responseObject := HealthcheckResponse{
			Status:     "healthy",
			Version:    config.Version,
			MediaCount: d.Library.Len(),
		}

		b, err := json.Marshal(responseObject)
		if err != nil {
			log.LogNoRequestID("Failed to marshal healthcheck status: " + err.Error())
			b = []byte(`{"status": "marshalling status failed"}`)
		}

		if _, err := io.Writer.Write(w, b); err != nil {
			log.LogNoRequestID("Failed to write HTTP response for " + req.URL.Path)
		}
	}
}
