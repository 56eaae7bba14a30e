package notion

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MockPage is a page stored by the mock server.
type MockPage struct {
	ID         string
	DatabaseID string
	Properties Properties
}

// MockServer provides a fake Notion API for testing
type MockServer struct {
	*httptest.Server
	mu    sync.RWMutex
	pages []*MockPage // insertion order preserved for deterministic queries

	nextStatus   int
	nextBody     string
	rateLimits   int
	requestCount int
}

// NewMockServer creates a mock Notion API server
func NewMockServer() *MockServer {
	m := &MockServer{}

	mux := http.NewServeMux()

	// Query: POST /v1/databases/{id}/query
	mux.HandleFunc("/v1/databases/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/databases/"), "/")
		if len(parts) != 2 || parts[1] != "query" || r.Method != http.MethodPost {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if m.intercept(w) {
			return
		}
		m.handleQuery(w, r)
	})

	// Create: POST /v1/pages
	// Update: PATCH /v1/pages/{id}
	mux.HandleFunc("/v1/pages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if m.intercept(w) {
			return
		}
		m.handleCreate(w, r)
	})
	mux.HandleFunc("/v1/pages/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if m.intercept(w) {
			return
		}
		pageID := strings.TrimPrefix(r.URL.Path, "/v1/pages/")
		m.handleUpdate(w, r, pageID)
	})

	m.Server = httptest.NewServer(mux)
	return m
}

func (m *MockServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []Page
	for _, page := range m.pages {
		prop, ok := page.Properties[req.Filter.Property]
		if ok && prop.URL == req.Filter.URL.Equals {
			results = append(results, Page{ID: page.ID})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(queryResponse{Results: results})
}

func (m *MockServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	page := &MockPage{
		ID:         uuid.New().String(),
		DatabaseID: req.Parent.DatabaseID,
		Properties: req.Properties,
	}

	m.mu.Lock()
	m.pages = append(m.pages, page)
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Page{ID: page.ID})
}

func (m *MockServer) handleUpdate(w http.ResponseWriter, r *http.Request, pageID string) {
	var req updatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, page := range m.pages {
		if page.ID == pageID {
			for name, prop := range req.Properties {
				page.Properties[name] = prop
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(Page{ID: page.ID})
			return
		}
	}

	http.Error(w, `{"message":"Could not find page"}`, http.StatusNotFound)
}

// intercept serves an injected error or rate-limit response if one is
// queued. Returns true if the request was handled.
func (m *MockServer) intercept(w http.ResponseWriter) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestCount++

	if m.rateLimits > 0 {
		m.rateLimits--
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"Rate limited"}`))
		return true
	}

	if m.nextStatus != 0 {
		status, body := m.nextStatus, m.nextBody
		m.nextStatus, m.nextBody = 0, ""
		w.WriteHeader(status)
		w.Write([]byte(body))
		return true
	}

	return false
}

// AddPage seeds a page directly (for test setup).
func (m *MockServer) AddPage(databaseID string, props Properties) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	page := &MockPage{
		ID:         uuid.New().String(),
		DatabaseID: databaseID,
		Properties: props,
	}
	m.pages = append(m.pages, page)
	return page.ID
}

// Pages returns all stored pages (for test assertions).
func (m *MockServer) Pages() []*MockPage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*MockPage(nil), m.pages...)
}

// PageByURL returns the first stored page whose URL property equals url,
// or nil if none exists.
func (m *MockServer) PageByURL(url string) *MockPage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, page := range m.pages {
		if prop, ok := page.Properties["URL"]; ok && prop.URL == url {
			return page
		}
	}
	return nil
}

// SetNextError makes the next request fail with the given status and body.
func (m *MockServer) SetNextError(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextStatus = status
	m.nextBody = body
}

// SetRateLimits makes the next n requests fail with 429 before succeeding.
func (m *MockServer) SetRateLimits(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimits = n
}

// RequestCount returns the number of requests served.
func (m *MockServer) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// Reset clears all pages and injected errors.
func (m *MockServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = nil
	m.nextStatus = 0
	m.nextBody = ""
	m.rateLimits = 0
	m.requestCount = 0
}
