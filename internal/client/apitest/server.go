// Package apitest runs an in-process fake of the FireStation auth API for
// tests. Tokens are real HS256 JWTs so the client's token inspector sees
// the same claims layout as in production.
package apitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/firestation/internal/client/models"
	"github.com/dmitrijs2005/firestation/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

type account struct {
	password string
	profile  models.UserProfile
}

// Server is the fake API. The zero configuration accepts no logins;
// register users with AddUser.
type Server struct {
	*httptest.Server

	mux    *http.ServeMux
	secret []byte

	mu         sync.Mutex
	accounts   map[string]account
	down       bool
	meStatus   int
	meBody     string
	loginCalls int
	meCalls    int
	lastAuth   string
	lastLogin  models.LoginRequest
}

// New starts a fake API and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		mux:      http.NewServeMux(),
		secret:   []byte("apitest-secret"),
		accounts: make(map[string]account),
	}
	s.mux.HandleFunc("POST /api/auth/login/", s.handleLogin)
	s.mux.HandleFunc("GET /api/auth/me/", s.handleMe)
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to configure the client with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// HTTPClient returns a client for this server without keep-alives. The
// transport silently replays idempotent requests that fail on a reused
// connection, which would double-count requests made while the server is
// down.
func (s *Server) HTTPClient() *http.Client {
	return &http.Client{
		Timeout:   2 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
}

// Handle registers an extra route under /api, e.g. "GET /api/reports/".
func (s *Server) Handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, h)
}

// AddUser registers a login/password pair.
func (s *Server) AddUser(login, password string, profile models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[login] = account{password: password, profile: profile}
}

// SetDown makes the server drop every connection without answering.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// SetMeStatus forces /auth/me/ to answer with code. 0 restores normal
// token checking.
func (s *Server) SetMeStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meStatus = code
}

// SetMeBody forces the body of successful /auth/me/ answers.
func (s *Server) SetMeBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meBody = body
}

// LoginCalls returns how many login requests reached the server.
func (s *Server) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls
}

// MeCalls returns how many /auth/me/ requests reached the server,
// including those dropped while down.
func (s *Server) MeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meCalls
}

// LastAuthorization returns the Authorization header of the last request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// LastLogin returns the body of the last login request.
func (s *Server) LastLogin() models.LoginRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLogin
}

// IssueToken mints a token for profile valid for ttl (negative ttl gives
// an already expired token).
func (s *Server) IssueToken(profile models.UserProfile, ttl time.Duration) string {
	return Token(s.secret, profile, time.Now().Add(ttl))
}

// Token mints an HS256 token carrying sub, login, role and exp.
func Token(secret []byte, profile models.UserProfile, exp time.Time) string {
	claims := jwt.MapClaims{
		"login": profile.Login,
		"role":  profile.Role,
		"exp":   exp.Unix(),
	}
	if n, err := strconv.ParseInt(string(profile.ID), 10, 64); err == nil {
		claims["sub"] = n
	} else {
		claims["sub"] = string(profile.ID)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.lastAuth = r.Header.Get(common.AuthorizationHeader)
	if strings.HasSuffix(r.URL.Path, "/auth/me/") {
		s.meCalls++
	}
	down := s.down
	s.mu.Unlock()

	if down {
		hijackAndClose(w)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func hijackAndClose(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "cannot hijack", http.StatusInternalServerError)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	s.mu.Lock()
	s.loginCalls++
	s.lastLogin = req
	acc, ok := s.accounts[req.Login]
	s.mu.Unlock()

	if !ok || acc.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Access: s.IssueToken(acc.profile, time.Hour),
		User:   &acc.profile,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status, body := s.meStatus, s.meBody
	s.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
		return
	}

	profile, err := s.authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": err.Error()})
		return
	}
	if body != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) authenticate(r *http.Request) (*models.UserProfile, error) {
	raw, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeader), common.BearerPrefix)
	if !ok || raw == "" {
		return nil, errors.New("missing bearer token")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	login, _ := claims["login"].(string)
	s.mu.Lock()
	acc, ok := s.accounts[login]
	s.mu.Unlock()
	if !ok {
		return nil, errors.New("unknown user")
	}
	p := acc.profile
	return &p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
