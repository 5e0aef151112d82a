package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerIsCachedPerRequestID(t *testing.T) {
	requestID := "some-request-id"
	_, found := loggerCache.Get(requestID)
	require.False(t, found)

	Log(requestID, "first message", "key", "value")

	_, found = loggerCache.Get(requestID)
	require.True(t, found)
}

func TestAddContextReplacesCachedLogger(t *testing.T) {
	requestID := "context-request-id"
	first := getLogger(requestID)

	AddContext(requestID, "media_id", "abc123")

	second := getLogger(requestID)
	require.NotSame(t, first, second)

	// must not panic with accumulated context
	Log(requestID, "a message")
	LogError(requestID, "something failed", errors.New("boom"), "key", "value")
}
