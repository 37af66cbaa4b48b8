package auth0

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-jobqueue/internal/adapters/httpclient"
	"github.com/target/mmk-jobqueue/internal/mocks"
	"go.uber.org/mock/gomock"
)

type fakeAuth0 struct {
	mu         sync.Mutex
	tokenCalls atomic.Int32
	users      []createUserRequest
	tickets    []map[string]string
	userStatus int
}

func (f *fakeAuth0) snapshot() ([]createUserRequest, []map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]createUserRequest(nil), f.users...), append([]map[string]string(nil), f.tickets...)
}

func (f *fakeAuth0) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "http://"+r.Host+"/api/v2/", r.PostForm.Get("audience"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"mgmt-token","token_type":"Bearer","expires_in":86400}`))
	})
	mux.HandleFunc("POST /api/v2/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mgmt-token", r.Header.Get("Authorization"))
		if f.userStatus != 0 {
			w.WriteHeader(f.userStatus)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
			return
		}
		var req createUserRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.users = append(f.users, req)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"user_id":"auth0|123","email":"` + req.Email + `"}`))
	})
	mux.HandleFunc("POST /api/v2/tickets/password-change", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mgmt-token", r.Header.Get("Authorization"))
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.tickets = append(f.tickets, req)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ticket":"https://login.example.com/reset?ticket=abc"}`))
	})
	return mux
}

func newTestClient(t *testing.T, srv *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = srv.URL
	cfg.ClientID = "cid"
	cfg.ClientSecret = "secret"
	cfg.HTTPClient = srv.Client()
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{ClientID: "a", ClientSecret: "b"})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "https://tenant.auth0.com"})
	require.Error(t, err)

	c, err := NewClient(Config{BaseURL: "https://tenant.auth0.com/", ClientID: "a", ClientSecret: "b"})
	require.NoError(t, err)
	assert.Equal(t, "https://tenant.auth0.com/oauth/token", c.creds.TokenURL)
	assert.Equal(t, []string{"https://tenant.auth0.com/api/v2/"}, c.creds.EndpointParams["audience"])
	assert.Equal(t, DefaultConnection, c.connection)
}

func TestClient_CreateUserAndTicket(t *testing.T) {
	fake := &fakeAuth0{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	ctx := context.Background()

	userID, err := c.CreateUser(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "auth0|123", userID)

	users, _ := fake.snapshot()
	require.Len(t, users, 1)
	got := users[0]
	assert.Equal(t, DefaultConnection, got.Connection)
	assert.Equal(t, "new@example.com", got.Email)
	assert.False(t, got.VerifyEmail)
	assert.Len(t, got.Password, passwordLength)

	ticket, err := c.PasswordResetTicket(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "https://login.example.com/reset?ticket=abc", ticket)
	_, tickets := fake.snapshot()
	require.Len(t, tickets, 1)
	assert.Equal(t, map[string]string{"user_id": "auth0|123", "client_id": "cid"}, tickets[0])

	assert.Equal(t, int32(1), fake.tokenCalls.Load(), "token should be reused")
}

func TestClient_StatusErrorSurfaces(t *testing.T) {
	fake := &fakeAuth0{userStatus: http.StatusConflict}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	_, err := c.CreateUser(context.Background(), "dup@example.com")

	var se *httpclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
}

func TestClient_UsesSharedTokenCache(t *testing.T) {
	fake := &fakeAuth0{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)

	cached, err := json.Marshal(map[string]any{
		"access_token": "mgmt-token",
		"token_type":   "Bearer",
		"expiry":       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	cache.EXPECT().Get(gomock.Any(), "auth0:token:cid").Return(cached, nil)

	c := newTestClient(t, srv, Config{TokenCache: cache})
	_, err = c.PasswordResetTicket(context.Background(), "auth0|1")
	require.NoError(t, err)
	assert.Zero(t, fake.tokenCalls.Load())
}

func TestClient_StoresFetchedToken(t *testing.T) {
	fake := &fakeAuth0{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	cache.EXPECT().Get(gomock.Any(), "auth0:token:cid").Return(nil, nil)
	cache.EXPECT().
		Set(gomock.Any(), "auth0:token:cid", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, value []byte, ttl time.Duration) error {
			assert.Contains(t, string(value), "mgmt-token")
			assert.Greater(t, ttl, 23*time.Hour)
			return nil
		})

	c := newTestClient(t, srv, Config{TokenCache: cache})
	_, err := c.PasswordResetTicket(context.Background(), "auth0|1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
}

func TestRandomPassword(t *testing.T) {
	a, err := randomPassword(passwordLength)
	require.NoError(t, err)
	b, err := randomPassword(passwordLength)
	require.NoError(t, err)

	assert.Len(t, a, passwordLength)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.Contains(t, passwordAlphabet, string(r))
	}
}
