package upload

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feildrixliemdra/library-admin/internal/constants"
)

func TestRouter_ServesAuthParams(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner("private_key")
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(signer, nil))
	defer server.Close()

	resp, err := http.Get(server.URL + constants.UploadAuthPath)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var params AuthParams
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&params))

	_, err = uuid.Parse(params.Token)
	require.NoError(t, err)
	assert.Equal(t, Signature("private_key", params.Token, params.Expire), params.Signature)
}

func TestRouter_UnknownPath(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner("private_key")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewRouter(signer, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	NewRouter(signer, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, constants.UploadAuthPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Debug(string, map[string]interface{}) {}
func (l *recordingLogger) Info(string, map[string]interface{}) {}
func (l *recordingLogger) Warn(string, map[string]interface{}) {}
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) {
	l.errors = append(l.errors, msg)
}

func TestAuthHandler_Failure(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner("private_key")
	require.NoError(t, err)

	signer.newToken = func() (uuid.UUID, error) { return uuid.Nil, errors.New("no entropy") }
	logger := &recordingLogger{}

	rec := httptest.NewRecorder()
	AuthHandler(signer, logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, constants.UploadAuthPath, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to generate authentication parameters"}`, rec.Body.String())
	assert.Equal(t, []string{"upload auth failed"}, logger.errors)
}
