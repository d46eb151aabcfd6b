package integration

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"xscraper/pkg/viewport/snapshot"
)

// MockTimelineServer serves timeline pages with the card markup of the live
// site. Each path gets its own cards; unknown paths render an empty timeline.
type MockTimelineServer struct {
	server       *httptest.Server
	mu           sync.RWMutex
	timelines    map[string][]snapshot.Card
	requests     []string
	requestCount int32
	errorStatus  int32
}

// NewMockTimelineServer starts the server
func NewMockTimelineServer() *MockTimelineServer {
	m := &MockTimelineServer{timelines: make(map[string][]snapshot.Card)}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// SetTimeline sets the cards rendered for path, e.g. "/search"
func (m *MockTimelineServer) SetTimeline(path string, cards ...snapshot.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timelines[path] = cards
}

// SetErrorStatus makes every request fail with status; 0 restores normal
// responses
func (m *MockTimelineServer) SetErrorStatus(status int) {
	atomic.StoreInt32(&m.errorStatus, int32(status))
}

func (m *MockTimelineServer) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	m.requests = append(m.requests, r.URL.RequestURI())
	cards := m.timelines[r.URL.Path]
	m.mu.Unlock()

	if status := atomic.LoadInt32(&m.errorStatus); status != 0 {
		http.Error(w, http.StatusText(int(status)), int(status))
		return
	}
	if r.URL.Path == "/favicon.ico" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(snapshot.Page(cards...)))
}

// URL returns the base URL of the server
func (m *MockTimelineServer) URL() string {
	return m.server.URL
}

// Requests returns every request URI received, in order
func (m *MockTimelineServer) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requests...)
}

// RequestCount returns the number of requests served
func (m *MockTimelineServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// Close shuts the server down
func (m *MockTimelineServer) Close() {
	m.server.Close()
}
