package errors

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteHTTPErrorSetsStatusAndBody(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteHTTPNotFound(rr, "media not found", fmt.Errorf("no such id"))

	require.Equal(t, 404, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "media not found", body["error"])
	require.Equal(t, "no such id", body["error_detail"])
}

func TestWriteHTTPErrorWithoutCause(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteHTTPBadRequest(rr, "invalid segment name", nil)

	require.Equal(t, 400, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "", body["error_detail"])
}

func TestUnretriable(t *testing.T) {
	err := fmt.Errorf("bar")
	require.False(t, IsUnretriable(err))
	require.True(t, IsUnretriable(Unretriable(err)))
	require.True(t, IsUnretriable(fmt.Errorf("wrapped: %w", Unretriable(err))))
}
