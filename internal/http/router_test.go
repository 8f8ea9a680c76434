package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/logging"
	"example.com/blog-api/internal/platform/config"
	"example.com/blog-api/internal/platform/jwt"
	"example.com/blog-api/internal/platform/password"
	"example.com/blog-api/internal/repo"
)

const (
	adminEmail    = "root@blog.local"
	adminPassword = "root-password"
)

type testServer struct {
	t   *testing.T
	srv http.Handler
}

func newTestServer(t *testing.T, transport string) *testServer {
	t.Helper()
	cfg := config.Config{
		Env:       "test",
		JWTSecret: []byte("router-test-secret"),
		TokenTTL:  time.Hour,
		Transport: transport,
	}
	log := logging.Discard()

	tokens, err := jwt.NewHS256(jwt.Options{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL})
	require.NoError(t, err)

	accounts := core.NewAccountService(repo.NewAccountMem(), password.NewHasher(bcrypt.MinCost), tokens, cfg.TokenTTL, log)
	require.NoError(t, accounts.EnsureAdmin(context.Background(), adminEmail, adminPassword))
	posts := core.NewPostService(repo.NewPostMem(), log)

	return &testServer{
		t: t,
		srv: Build(Deps{
			Config:   cfg,
			Accounts: accounts,
			Posts:    posts,
			Verifier: tokens,
			Logger:   log,
		}),
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(email, pass string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/users/login", "", map[string]string{"email": email, "password": pass})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.NewDecoder(rec.Body).Decode(&out))
	require.NotEmpty(s.t, out.Token)
	return out.Token
}

func (s *testServer) signUp(first, email, pass string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/users/signup", "", map[string]string{
		"firstName": first, "lastName": "Tester", "email": email, "password": pass,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		User core.Profile `json:"user"`
	}
	require.NoError(s.t, json.NewDecoder(rec.Body).Decode(&out))
	return out.User.ID
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestAdminStatsScenario(t *testing.T) {
	s := newTestServer(t, config.TransportBoth)

	rec := s.do(http.MethodPost, "/users/signup", "", map[string]string{
		"firstName": "A", "lastName": "B", "email": "a@b.c", "password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		User core.Profile `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, core.RoleUser, created.User.Role)

	userToken := s.login("a@b.c", "pw123456")

	rec = s.do(http.MethodGet, "/admin/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access Denied, you are not allowed to access this resource!", errorOf(t, rec))

	adminToken := s.login(adminEmail, adminPassword)
	rec = s.do(http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.EqualValues(t, 2, stats["total_users"])
	assert.EqualValues(t, 0, stats["total_posts"])
}

func TestSignUp_Errors(t *testing.T) {
	s := newTestServer(t, config.TransportBoth)

	rec := s.do(http.MethodPost, "/users/signup", "", map[string]string{"lastName": "B", "email": "a@b.c", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "First Name, Last Name and Email are required!", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/users", "", map[string]string{"firstName": "A", "lastName": "B", "email": "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password is missing!", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/users/signup", "", map[string]string{"firstName": " ", "lastName": " ", "email": "   ", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "First Name, Last Name and Email are required!", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/users/login", "", map[string]string{"email": "\t", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email or Password is missing!", errorOf(t, rec))

	s.signUp("A", "a@b.c", "pw")
	rec = s.do(http.MethodPost, "/users", "", map[string]string{"firstName": "A", "lastName": "B", "email": "A@B.C", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already exists!", errorOf(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/users/signup", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignUp_RoleIgnored(t *testing.T) {
	s := newTestServer(t, config.TransportBoth)

	rec := s.do(http.MethodPost, "/users/signup", "", map[string]string{
		"firstName": "Eve", "lastName": "X", "email": "eve@x.com", "password": "pw", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	token := s.login("eve@x.com", "pw")
	rec = s.do(http.MethodGet, "/admin/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogin_Errors(t *testing.T) {
	s := newTestServer(t, config.TransportBoth)
	s.signUp("A", "a@b.c", "right")

	rec := s.do(http.MethodPost, "/users/login", "", map[string]string{"email": "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email or Password is missing!", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/users/login", "", map[string]string{"email": "ghost@b.c", "password": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User with email ghost@b.c not found!", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/users/login", "", map[string]string{"email": "a@b.c", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Password is incorrect!", errorOf(t, rec))
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_Cookie(t *testing.T) {
	tests := []struct {
		transport  string
		wantCookie bool
	}{
		{config.TransportBoth, true},
		{config.TransportCookie, true},
		{config.TransportBearer, false},
	}
	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			s := newTestServer(t, tt.transport)
			s.signUp("A", "a@b.c", "pw")

			rec := s.do(http.MethodPost, "/users/login", "", map[string]string{"email": "a@b.c", "password": "pw"})
			require.Equal(t, http.StatusOK, rec.Code)

			var cookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == "token" {
					cookie = c
				}
			}
			if !tt.wantCookie {
				assert.Nil(t, cookie)
				return
			}
			require.NotNil(t, cookie)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
			assert.Equal(t, "/", cookie.Path)
			assert.Equal(t, 3600, cookie.MaxAge)

			// the cookie alone authenticates
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.AddCookie(&http.Cookie{Name: "token", Value: cookie.Value})
			me := httptest.NewRecorder()
			s.srv.ServeHTTP(me, req)
			assert.Equal(t, http.StatusOK, me.Code)
		})
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	s := newTestServer(t, config.TransportCookie)
	rec := s.do(http.MethodPost, "/users/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestProtectedRoutes_RejectBadCredentials(t *testing.T) {
	s := newTestServer(t, config.TransportBoth)

	rec := s.do(http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/blogs", "not-a-jwt", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid token", errorOf(t, rec))

	past := time.Now().Add(-2 * time.Hour)
	old, err := jwt.NewHS256(jwt.Options{
		Secret: []byte("router-test-secret"),
		TTL:    time.Hour,
		Now:    func() time.Time { return past },
	})
	require.NoError(t, err)
	expired, _, err := old.Issue(core.Identity{AccountID: "x", Email: "x@y.z", Role: core.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	rec = s.do(http.MethodGet, "/admin/stats", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token expired", errorOf(t, rec))
}

func TestUsers(t *testing.T) {
	s := newTestServer(t, config.TransportBoth)
	aliceID := s.signUp("Alice", "alice@x.com", "pw")
	bobID := s.signUp("Bob", "bob@x.com", "pw")
	alice := s.login("alice@x.com", "pw")
	admin := s.login(adminEmail, adminPassword)

	rec := s.do(http.MethodGet, "/users/me", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me core.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, aliceID, me.ID)
	assert.Equal(t, "alice@x.com", me.Email)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/users/"+aliceID, alice, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/users/"+bobID, alice, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/users/"+bobID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/users/nope", admin, nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/users", alice, nil).Code)

	rec = s.do(http.MethodGet, "/users?limit=2", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Users []core.Profile `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Users, 2)

	rec = s.do(http.MethodGet, "/users?email=BOB@x.com", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Users, 1)
	assert.Equal(t, bobID, list.Users[0].ID)
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestBlogs(t *testing.T) {
	s := newTestServer(t, config.TransportBoth)
	s.signUp("Alice", "alice@x.com", "pw")
	s.signUp("Bob", "bob@x.com", "pw")
	alice := s.login("alice@x.com", "pw")
	bob := s.login("bob@x.com", "pw")
	admin := s.login(adminEmail, adminPassword)

	rec := s.do(http.MethodGet, "/blogs", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Blogs not found", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/blogs", alice, map[string]string{"title": "Go"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/blogs", alice, map[string]string{"title": "Go", "content": "is fun", "author": "someone-else"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Blog core.Post `json:"blog"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	id := created.Blog.ID
	assert.NotEqual(t, "someone-else", created.Blog.AuthorID)

	rec = s.do(http.MethodGet, "/blogs?title=Go", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/blogs?title=Rust", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Blog not found for this title: Rust", errorOf(t, rec))

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/blogs/"+id, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/blogs/missing", "", nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, "/blogs/"+id, bob, map[string]string{"title": "mine"}).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPut, "/blogs/"+id, alice, map[string]string{"review": "5/5"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/blogs/"+id, bob, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/blogs/"+id, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/blogs/"+id, "", nil).Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, config.TransportBoth)

	rec := s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route Not Found!", errorOf(t, rec))

	assert.Equal(t, http.StatusMethodNotAllowed, s.do(http.MethodPatch, "/blogs", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)
}
