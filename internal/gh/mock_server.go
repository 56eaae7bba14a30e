package gh

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockServer provides a fake GitHub API for testing
type MockServer struct {
	*httptest.Server
	mu        sync.RWMutex
	userRepos map[string][]Repository // username -> repos
	orgRepos  map[string][]Repository // org -> repos
	issues    map[string][]Issue      // "owner/repo" -> issues

	nextStatus   int
	nextBody     string
	rateLimits   int // number of rate-limited responses to serve before succeeding
	requestCount int
}

// NewMockServer creates a mock GitHub API server
func NewMockServer() *MockServer {
	m := &MockServer{
		userRepos: make(map[string][]Repository),
		orgRepos:  make(map[string][]Repository),
		issues:    make(map[string][]Issue),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
		if len(parts) != 2 || parts[1] != "repos" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if m.intercept(w) {
			return
		}
		m.mu.RLock()
		repos, ok := m.userRepos[parts[0]]
		m.mu.RUnlock()
		if !ok {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, repos)
	})

	mux.HandleFunc("/orgs/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/orgs/"), "/")
		if len(parts) != 2 || parts[1] != "repos" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if m.intercept(w) {
			return
		}
		m.mu.RLock()
		repos, ok := m.orgRepos[parts[0]]
		m.mu.RUnlock()
		if !ok {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, repos)
	})

	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/repos/"), "/")
		if len(parts) != 3 || parts[2] != "issues" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if m.intercept(w) {
			return
		}
		m.mu.RLock()
		issues, ok := m.issues[parts[0]+"/"+parts[1]]
		m.mu.RUnlock()
		if !ok {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, issues)
	})

	m.Server = httptest.NewServer(mux)
	return m
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
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
		w.Write([]byte(`{"message":"API rate limit exceeded"}`))
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

// SetUserRepos sets the repositories returned for a user.
func (m *MockServer) SetUserRepos(username string, fullNames ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userRepos[username] = toRepos(fullNames)
}

// SetOrgRepos sets the repositories returned for an organization.
func (m *MockServer) SetOrgRepos(org string, fullNames ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgRepos[org] = toRepos(fullNames)
}

func toRepos(fullNames []string) []Repository {
	repos := make([]Repository, len(fullNames))
	for i, name := range fullNames {
		repos[i] = Repository{FullName: name}
	}
	return repos
}

// SetIssues sets the issues returned for an "owner/repo" pair.
func (m *MockServer) SetIssues(repo string, issues ...Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[repo] = issues
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

// Reset clears all configured data and injected errors.
func (m *MockServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userRepos = make(map[string][]Repository)
	m.orgRepos = make(map[string][]Repository)
	m.issues = make(map[string][]Issue)
	m.nextStatus = 0
	m.nextBody = ""
	m.rateLimits = 0
	m.requestCount = 0
}
