// Package auth0 implements core.IdentityProvider against the Auth0 Management API.
package auth0

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/target/mmk-jobqueue/internal/adapters/httpclient"
	"github.com/target/mmk-jobqueue/internal/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultConnection is the Auth0 database connection new users are created in.
	DefaultConnection = "Username-Password-Authentication"

	passwordLength   = 60
	passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	tokenCacheMargin = time.Minute
)

// Config configures the Auth0 client.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// Audience defaults to BaseURL + "/api/v2/".
	Audience   string
	Connection string
	HTTPClient *http.Client
	// TokenCache shares the management token across processes. Optional.
	TokenCache core.CacheRepository
	Logger     *slog.Logger
}

// Client talks to the Auth0 Management API with a client-credentials token.
type Client struct {
	api        *httpclient.Client
	creds      clientcredentials.Config
	http       *http.Client
	clientID   string
	connection string
	cache      core.CacheRepository
	cacheKey   string
	logger     *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

var _ core.IdentityProvider = (*Client)(nil)

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("auth0 base URL is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("auth0 client id and secret are required")
	}
	audience := cfg.Audience
	if audience == "" {
		audience = base + "/api/v2/"
	}
	connection := cfg.Connection
	if connection == "" {
		connection = DefaultConnection
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{
		creds: clientcredentials.Config{
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			TokenURL:       base + "/oauth/token",
			EndpointParams: map[string][]string{"audience": {audience}},
			AuthStyle:      oauth2.AuthStyleInParams,
		},
		http:       hc,
		clientID:   cfg.ClientID,
		connection: connection,
		cache:      cfg.TokenCache,
		cacheKey:   "auth0:token:" + cfg.ClientID,
		logger:     logger.With("component", "auth0"),
	}
	api, err := httpclient.New(httpclient.Config{
		BaseURL:   base,
		HTTP:      hc,
		Authorize: c.authorize,
	})
	if err != nil {
		return nil, fmt.Errorf("auth0 client: %w", err)
	}
	c.api = api
	return c, nil
}

type createUserRequest struct {
	Connection  string `json:"connection"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	VerifyEmail bool   `json:"verify_email"`
}

// CreateUser creates a password user with a random password and returns its user_id.
func (c *Client) CreateUser(ctx context.Context, email string) (string, error) {
	password, err := randomPassword(passwordLength)
	if err != nil {
		return "", err
	}
	var out struct {
		UserID string `json:"user_id"`
	}
	req := createUserRequest{Connection: c.connection, Email: email, Password: password}
	if err := c.api.Do(ctx, http.MethodPost, "/api/v2/users", nil, req, &out); err != nil {
		return "", fmt.Errorf("create auth0 user: %w", err)
	}
	if out.UserID == "" {
		return "", errors.New("create auth0 user: response missing user_id")
	}
	return out.UserID, nil
}

// PasswordResetTicket returns a password-change ticket URL for userID.
func (c *Client) PasswordResetTicket(ctx context.Context, userID string) (string, error) {
	var out struct {
		Ticket string `json:"ticket"`
	}
	req := map[string]string{"user_id": userID, "client_id": c.clientID}
	if err := c.api.Do(ctx, http.MethodPost, "/api/v2/tickets/password-change", nil, req, &out); err != nil {
		return "", fmt.Errorf("create password ticket: %w", err)
	}
	if out.Ticket == "" {
		return "", errors.New("create password ticket: response missing ticket")
	}
	return out.Ticket, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)
	return nil
}

func (c *Client) accessToken(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token, nil
	}
	if tok := c.cachedToken(ctx); tok.Valid() {
		c.token = tok
		return tok, nil
	}

	tok, err := c.creds.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		return nil, fmt.Errorf("fetch auth0 token: %w", err)
	}
	c.token = tok
	c.storeToken(ctx, tok)
	return tok, nil
}

func (c *Client) cachedToken(ctx context.Context) *oauth2.Token {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, c.cacheKey)
	if err != nil {
		c.logger.WarnContext(ctx, "auth0 token cache read failed", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		c.logger.WarnContext(ctx, "auth0 token cache entry invalid", "error", err)
		return nil
	}
	return &tok
}

func (c *Client) storeToken(ctx context.Context, tok *oauth2.Token) {
	if c.cache == nil || tok.Expiry.IsZero() {
		return
	}
	ttl := time.Until(tok.Expiry) - tokenCacheMargin
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey, raw, ttl); err != nil {
		c.logger.WarnContext(ctx, "auth0 token cache write failed", "error", err)
	}
}

func randomPassword(n int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
