package vidu

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"vidu-proxy-server/modules/common/logger"
)

const testAPIKey = "test-key"

// recordedRequest is what the fake Vidu API saw.
type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

// fakeVidu is an httptest upstream that records every call and answers with
// a fixed status and body.
type fakeVidu struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
	delay    time.Duration
}

func newFakeVidu(t *testing.T, status int, body string) *fakeVidu {
	t.Helper()

	f := &fakeVidu{status: status, body: body}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeVidu) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:        r.Method,
		Path:          r.URL.EscapedPath(),
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	})
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.body)
}

func (f *fakeVidu) setDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *fakeVidu) calls() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func newTestService(t *testing.T, baseURL, apiKey string) *Service {
	t.Helper()
	return NewService(Config{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	}, logger.NewTestLogger(t))
}

func newTestRouter(t *testing.T, svc *Service) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	NewHandler(svc, logger.NewTestLogger(t)).RegisterRoutes(r)
	return r
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
