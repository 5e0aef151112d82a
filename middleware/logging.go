package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-kit/log"
	"github.com/julienschmidt/httprouter"
	"github.com/vodstream/jit-api/errors"
	"github.com/vodstream/jit-api/requests"
)

type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	// Handlers that write a body without an explicit WriteHeader respond 200.
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}

	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

// LogRequest writes one access log line per request and turns handler panics
// into a 500 response. The request ID is assigned here so that every handler
// downstream logs under the same ID.
func LogRequest(logger log.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		fn := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			start := time.Now()
			requestID := requests.GetRequestId(r)
			wrapped := wrapResponseWriter(w)
			wrapped.Header().Set(requests.RequestIDHeader, requestID)

			defer func() {
				if rec := recover(); rec != nil {
					errors.WriteHTTPInternalServerError(wrapped, "Internal Server Error", nil)
					logger.Log("request_id", requestID, "err", rec, "trace", debug.Stack())
				}
				logger.Log(
					"request_id", requestID,
					"remote", r.RemoteAddr,
					"proto", r.Proto,
					"method", r.Method,
					"uri", r.URL.RequestURI(),
					"duration", time.Since(start),
					"status", wrapped.status,
				)
			}()

			next(wrapped, r, ps)
		}

		return fn
	}
}
