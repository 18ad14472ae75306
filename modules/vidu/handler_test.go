package vidu

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidu-proxy-server/modules/common/logger"
)

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHandler_Health(t *testing.T) {
	for _, key := range []string{"", testAPIKey} {
		router := newTestRouter(t, newTestService(t, "http://127.0.0.1:1", key))

		rec := doRequest(t, router, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"status":"OK","message":"Vidu API Proxy Server is running"}`, rec.Body.String())
	}
}

func TestHandler_SubmitGeneration_RelaysBodyVerbatim(t *testing.T) {
	upstream := newFakeVidu(t, http.StatusOK, `{"id":"abc"}`)
	router := newTestRouter(t, newTestService(t, upstream.URL, testAPIKey))

	rec := doRequest(t, router, http.MethodPost, "/api/text2video", `{"prompt":"sunset over the sea"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"id":"abc"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandler_SubmitGeneration_StyleOmittedAndProvided(t *testing.T) {
	upstream := newFakeVidu(t, http.StatusOK, `{}`)
	router := newTestRouter(t, newTestService(t, upstream.URL, testAPIKey))

	doRequest(t, router, http.MethodPost, "/api/text2video", `{"prompt":"p"}`)
	doRequest(t, router, http.MethodPost, "/api/text2video", `{"prompt":"p","style":"general"}`)

	calls := upstream.calls()
	require.Len(t, calls, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &first))
	require.NoError(t, json.Unmarshal(calls[1].Body, &second))

	assert.NotContains(t, first, "style")
	assert.Equal(t, "general", second["style"])
	assert.Equal(t, "vidu-1", first["model"])
	assert.EqualValues(t, 4, first["duration"])
	assert.Equal(t, "16:9", first["aspect_ratio"])
}

func TestHandler_SubmitGeneration_EmptyPromptIsForwarded(t *testing.T) {
	upstream := newFakeVidu(t, http.StatusBadRequest, `{"message":"prompt is empty"}`)
	router := newTestRouter(t, newTestService(t, upstream.URL, testAPIKey))

	rec := doRequest(t, router, http.MethodPost, "/api/text2video", `{"prompt":""}`)

	require.Len(t, upstream.calls(), 1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, TitleUpstream, env["error"])
	assert.Equal(t, "prompt is empty", env["message"])
}

func TestHandler_SubmitGeneration_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing prompt", body: `{"model":"vidu-1"}`},
		{name: "null prompt", body: `{"prompt":null}`},
		{name: "malformed json", body: `{"prompt":`},
		{name: "wrong type", body: `{"prompt":"p","duration":"four"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := newFakeVidu(t, http.StatusOK, `{}`)
			router := newTestRouter(t, newTestService(t, upstream.URL, testAPIKey))

			rec := doRequest(t, router, http.MethodPost, "/api/text2video", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, TitleValidation, env["error"])
			assert.Empty(t, upstream.calls())
		})
	}
}

func TestHandler_MissingAPIKey(t *testing.T) {
	upstream := newFakeVidu(t, http.StatusOK, `{}`)
	router := newTestRouter(t, newTestService(t, upstream.URL, ""))

	requests := []struct {
		method, target, body string
	}{
		{http.MethodPost, "/api/text2video", `{"prompt":"p"}`},
		{http.MethodGet, "/api/videos/abc", ""},
		{http.MethodGet, "/api/tasks/abc/creations", ""},
	}

	for _, r := range requests {
		rec := doRequest(t, router, r.method, r.target, r.body)

		assert.Equal(t, http.StatusInternalServerError, rec.Code, r.target)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "API key not configured", env["error"])
		assert.Equal(t, "VITE_VIDU_API_KEY environment variable is not set", env["message"])
		assert.NotContains(t, env, "details")
	}

	assert.Empty(t, upstream.calls())
}

func TestHandler_GetVideoStatus_UpstreamNotFound(t *testing.T) {
	upstream := newFakeVidu(t, http.StatusNotFound, `{"message":"not found"}`)
	router := newTestRouter(t, newTestService(t, upstream.URL, testAPIKey))

	rec := doRequest(t, router, http.MethodGet, "/api/videos/xyz", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Vidu API Error", env["error"])
	assert.Equal(t, "not found", env["message"])
	assert.Equal(t, map[string]any{"message": "not found"}, env["details"])

	calls := upstream.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/ent/v2/videos/xyz", calls[0].Path)
}

func TestHandler_UpstreamErrorWithoutBody(t *testing.T) {
	upstream := newFakeVidu(t, http.StatusServiceUnavailable, ``)
	router := newTestRouter(t, newTestService(t, upstream.URL, testAPIKey))

	rec := doRequest(t, router, http.MethodGet, "/api/tasks/t1/creations", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "HTTP 503: Service Unavailable", env["message"])
	assert.Equal(t, map[string]any{}, env["details"])
}

func TestHandler_GetTaskCreations_UsesTokenScheme(t *testing.T) {
	upstream := newFakeVidu(t, http.StatusOK, `{"creations":[]}`)
	router := newTestRouter(t, newTestService(t, upstream.URL, testAPIKey))

	rec := doRequest(t, router, http.MethodGet, "/api/tasks/task-9/creations", "")
	doRequest(t, router, http.MethodGet, "/api/videos/video-9", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"creations":[]}`, rec.Body.String())

	calls := upstream.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/ent/v2/tasks/task-9/creations", calls[0].Path)
	assert.Equal(t, "Token "+testAPIKey, calls[0].Authorization)
	assert.Equal(t, "Bearer "+testAPIKey, calls[1].Authorization)
}

func TestHandler_NetworkTimeout(t *testing.T) {
	upstream := newFakeVidu(t, http.StatusOK, `{}`)
	upstream.setDelay(time.Second)

	svc := NewService(Config{
		APIKey:  testAPIKey,
		BaseURL: upstream.URL,
		Timeout: 50 * time.Millisecond,
	}, logger.NewTestLogger(t))
	router := newTestRouter(t, svc)

	for _, target := range []string{"/api/videos/v", "/api/tasks/t/creations"} {
		rec := doRequest(t, router, http.MethodGet, target, "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Network Error", env["error"])
	}

	rec := doRequest(t, router, http.MethodPost, "/api/text2video", `{"prompt":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Network Error", decodeEnvelope(t, rec)["error"])
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, newTestService(t, "http://127.0.0.1:1", testAPIKey))

	rec := doRequest(t, router, http.MethodGet, "/api/text2video", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
