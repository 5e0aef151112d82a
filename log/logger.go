package log

import (
	"os"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/patrickmn/go-cache"
)

var loggerCache *cache.Cache

const loggerCacheExpiry = time.Hour

func init() {
	loggerCache = cache.New(loggerCacheExpiry, 10*time.Minute)
}

// AddContext pins extra key-values onto the request's logger. Everything
// logged under the same request ID afterwards carries them.
func AddContext(requestID string, keyvals ...interface{}) {
	loggerCache.Set(requestID, kitlog.With(getLogger(requestID), keyvals...), loggerCacheExpiry)
}

func Log(requestID string, message string, keyvals ...interface{}) {
	_ = kitlog.With(getLogger(requestID), "msg", message).Log(keyvals...)
}

// LogNoRequestID logs outside any request scope. Meant for startup and
// lifecycle messages; request handling paths should carry a request ID.
func LogNoRequestID(message string, keyvals ...interface{}) {
	_ = kitlog.With(newLogger(), "msg", message).Log(keyvals...)
}

func LogError(requestID string, message string, err error, keyvals ...interface{}) {
	msgLogger := kitlog.With(getLogger(requestID), "msg", message)
	errLogger := kitlog.With(msgLogger, "err", err.Error())
	_ = errLogger.Log(keyvals...)
}

func getLogger(requestID string) kitlog.Logger {
	logger, found := loggerCache.Get(requestID)
	if found {
		return logger.(kitlog.Logger)
	}

	requestLogger := kitlog.With(newLogger(), "request_id", requestID)
	loggerCache.Set(requestID, requestLogger, loggerCacheExpiry)
	return requestLogger
}

func newLogger() kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
}
