// Package profilestest provides an in-process SEOScribe API for tests.
package profilestest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
)

// scriptable stand-in for the remote API
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]profiles.Profile
	demoUsed bool
	quota    bool
	drafts   int
	toolRuns map[string]int
}

// starts a server with no accounts. Close it when done.
func NewServer() *Server {
	s := &Server{
		accounts: make(map[string]profiles.Profile),
		toolRuns: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profile", s.handleProfile)
	mux.HandleFunc("GET /api/demo-usage", s.handleDemoUsage)
	mux.HandleFunc("POST /api/draft", s.handleDraft)
	mux.HandleFunc("POST /api/tools/{tool}", s.handleTool)

	s.Server = httptest.NewServer(mux)

	return s
}

// accepts token for the given profile
func (s *Server) AddAccount(token string, p profiles.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[token] = p
}

func (s *Server) SetDemoUsed(used bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demoUsed = used
}

// makes every action fail with a 429
func (s *Server) SetQuotaExceeded(exceeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quota = exceeded
}

// number of successful generations served
func (s *Server) Drafts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts
}

// number of successful runs of tool
func (s *Server) ToolRuns(tool string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toolRuns[tool]
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.account(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleDemoUsage(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	used := s.demoUsed
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"used": used})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	var req profiles.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Topic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "topic is required"})
		return
	}

	s.mu.Lock()
	s.drafts++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"title":   req.Topic,
		"content": "# " + req.Topic,
	})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	tool := r.PathValue("tool")

	s.mu.Lock()
	s.toolRuns[tool]++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"tool": tool, "score": 80})
}

// rejects unknown tokens and, when scripted, quota
func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if bearer(r) != "" {
		if _, ok := s.account(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return false
		}
	}

	s.mu.Lock()
	quota := s.quota
	s.mu.Unlock()

	if quota {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Daily limit reached"})
		return false
	}

	return true
}

func (s *Server) account(r *http.Request) (profiles.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.accounts[bearer(r)]
	return p, ok
}

func bearer(r *http.Request) string {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck,gosec // test server
}
