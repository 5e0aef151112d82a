package requests

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation ID for a playback request. An
// incoming value wins over a freshly minted one.
const RequestIDHeader = "X-Request-Id"

// GetRequestId returns the request's correlation ID, minting a short one and
// pinning it to the request headers on first call.
func GetRequestId(req *http.Request) string {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID != "" {
		return requestID
	}
	requestID = uuid.NewString()[:8]
	req.Header.Set(RequestIDHeader, requestID)
	return requestID
}
