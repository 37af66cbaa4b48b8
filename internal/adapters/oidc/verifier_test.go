package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://issuer.example.com"

func signToken(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	signingInput := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
	digest := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func newTestVerifier(t *testing.T, expr string) (*Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	matcher, err := NewClaimMatcher(expr)
	require.NoError(t, err)
	keys := &gooidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return NewVerifierWithKeySet(testIssuer, keys, &gooidc.Config{ClientID: "mmk-admin"}, matcher), key
}

func baseClaims() map[string]any {
	now := time.Now()
	return map[string]any{
		"iss":    testIssuer,
		"aud":    "mmk-admin",
		"sub":    "user-1",
		"email":  "ops@example.com",
		"groups": []string{"mmk-admins", "staff"},
		"iat":    now.Add(-time.Minute).Unix(),
		"exp":    now.Add(time.Hour).Unix(),
	}
}

func TestVerifier_Admin(t *testing.T) {
	v, key := newTestVerifier(t, "contains(groups, 'mmk-admins')")

	id, err := v.Verify(context.Background(), signToken(t, key, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.Subject)
	assert.Equal(t, "ops@example.com", id.Email)
	assert.True(t, id.Admin)
}

func TestVerifier_NotAdmin(t *testing.T) {
	v, key := newTestVerifier(t, "contains(groups, 'mmk-admins')")
	claims := baseClaims()
	claims["groups"] = []string{"staff"}

	id, err := v.Verify(context.Background(), signToken(t, key, claims))
	require.NoError(t, err)
	assert.False(t, id.Admin)
}

func TestVerifier_RejectsBadTokens(t *testing.T) {
	v, key := newTestVerifier(t, "email")
	ctx := context.Background()

	_, err := v.Verify(ctx, "")
	require.ErrorIs(t, err, ErrMissingToken)

	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	_, err = v.Verify(ctx, signToken(t, key, expired))
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongAud := baseClaims()
	wrongAud["aud"] = "someone-else"
	_, err = v.Verify(ctx, signToken(t, key, wrongAud))
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.Verify(ctx, signToken(t, other, baseClaims()))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimMatcher(t *testing.T) {
	_, err := NewClaimMatcher("")
	require.Error(t, err)
	_, err = NewClaimMatcher("groups[")
	require.Error(t, err)

	tests := []struct {
		name   string
		expr   string
		claims map[string]any
		want   bool
	}{
		{"bool true", "admin", map[string]any{"admin": true}, true},
		{"bool false", "admin", map[string]any{"admin": false}, false},
		{"missing", "admin", map[string]any{}, false},
		{"empty string", "role", map[string]any{"role": ""}, false},
		{"string", "role", map[string]any{"role": "admin"}, true},
		{"empty list", "groups", map[string]any{"groups": []any{}}, false},
		{"comparison", "role == 'admin'", map[string]any{"role": "admin"}, true},
		{"number", "level", map[string]any{"level": 0.0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewClaimMatcher(tt.expr)
			require.NoError(t, err)
			got, err := m.Match(tt.claims)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}

func TestNewVerifier_Validation(t *testing.T) {
	_, err := NewVerifier(context.Background(), Config{ClientID: "c", AdminExpression: "a"})
	require.Error(t, err)
	_, err = NewVerifier(context.Background(), Config{Issuer: "https://x", AdminExpression: "a"})
	require.Error(t, err)
	_, err = NewVerifier(context.Background(), Config{Issuer: "https://x", ClientID: "c"})
	require.Error(t, err)
}
