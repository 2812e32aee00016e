package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSONError(rec, "invalid range token", http.StatusBadRequest)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid range token", body["error"])
}

func TestRoundFloat(t *testing.T) {
	require.Equal(t, 12.35, RoundFloat(12.345678, 2))
	require.Equal(t, 12.0, RoundFloat(12.0, 2))
	require.Equal(t, -3.1, RoundFloat(-3.14159, 1))
}
