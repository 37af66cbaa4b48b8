// Package oidc verifies admin bearer tokens with go-oidc and evaluates admin claims with JMESPath.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
)

var (
	// ErrMissingToken is returned when the Authorization header carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Identity is the verified caller.
type Identity struct {
	Subject string
	Email   string
	Admin   bool
	Claims  map[string]any
}

// ClaimMatcher decides whether a claim set belongs to an administrator.
type ClaimMatcher struct {
	expr string
}

// NewClaimMatcher compiles expr. The expression is truthy for admins, e.g.
// `contains(groups, 'mmk-admins')`.
func NewClaimMatcher(expr string) (*ClaimMatcher, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("admin claim expression is required")
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("compile admin expression: %w", err)
	}
	return &ClaimMatcher{expr: expr}, nil
}

// Match evaluates the expression against claims using JMESPath truthiness.
func (m *ClaimMatcher) Match(claims map[string]any) (bool, error) {
	if m == nil {
		return false, nil
	}
	out, err := jmespath.Search(m.expr, claims)
	if err != nil {
		return false, fmt.Errorf("evaluate admin expression: %w", err)
	}
	return truthy(out), nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// Config configures a Verifier.
type Config struct {
	// Issuer is the OIDC issuer URL used for discovery.
	Issuer   string
	ClientID string
	// AdminExpression is a JMESPath expression over the token claims.
	AdminExpression string
	HTTPClient      *http.Client
}

// Verifier checks bearer tokens against the issuer's keys.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
	matcher  *ClaimMatcher
}

// NewVerifier performs OIDC discovery for cfg.Issuer and returns a Verifier.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	matcher, err := NewClaimMatcher(cfg.AdminExpression)
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = gooidc.ClientContext(ctx, httpClient)
	issuer := strings.TrimSuffix(strings.TrimSuffix(cfg.Issuer, "/"), "/.well-known/openid-configuration")
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	return &Verifier{
		verifier: provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		matcher:  matcher,
	}, nil
}

// NewVerifierWithKeySet builds a Verifier from a fixed key set without discovery.
func NewVerifierWithKeySet(issuer string, keys gooidc.KeySet, cfg *gooidc.Config, matcher *ClaimMatcher) *Verifier {
	return &Verifier{verifier: gooidc.NewVerifier(issuer, keys, cfg), matcher: matcher}
}

// Verify checks rawToken and returns the caller's identity.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, ErrMissingToken
	}
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims := map[string]any{}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %w", ErrInvalidToken, err)
	}
	admin, err := v.matcher.Match(claims)
	if err != nil {
		return nil, err
	}
	email, _ := claims["email"].(string)
	return &Identity{Subject: tok.Subject, Email: email, Admin: admin, Claims: claims}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

