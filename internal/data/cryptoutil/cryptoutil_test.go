package cryptoutil

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte, n int) []byte { return bytes.Repeat([]byte{b}, n) }

func TestAESGCMEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewAESGCMEncryptor(key(1, 32))
	require.NoError(t, err)
	aad := AggregatorTokenAAD("agg-1")

	ct, err := enc.Encrypt(aad, []byte("bearer-secret"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "v1:"))

	pt, err := enc.Decrypt(aad, ct)
	require.NoError(t, err)
	assert.Equal(t, "bearer-secret", string(pt))
}

func TestAESGCMEncryptor_AssociatedDataMismatch(t *testing.T) {
	enc, err := NewAESGCMEncryptor(key(1, 16))
	require.NoError(t, err)

	ct, err := enc.Encrypt(AggregatorTokenAAD("agg-1"), []byte("token"))
	require.NoError(t, err)

	_, err = enc.Decrypt(AggregatorTokenAAD("agg-2"), ct)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestAESGCMEncryptor_KeyRotation(t *testing.T) {
	oldKey, newKey := key(7, 16), key(9, 16)
	old, err := NewAESGCMEncryptor(oldKey)
	require.NoError(t, err)
	ct, err := old.Encrypt(nil, []byte("legacy"))
	require.NoError(t, err)

	rotated, err := NewAESGCMEncryptor(newKey, oldKey)
	require.NoError(t, err)
	pt, err := rotated.Decrypt(nil, ct)
	require.NoError(t, err)
	assert.Equal(t, "legacy", string(pt))

	withoutOld, err := NewAESGCMEncryptor(newKey)
	require.NoError(t, err)
	_, err = withoutOld.Decrypt(nil, ct)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestAESGCMEncryptor_Rejects(t *testing.T) {
	_, err := NewAESGCMEncryptor(key(1, 8))
	require.Error(t, err)

	enc, err := NewAESGCMEncryptor(key(1, 32))
	require.NoError(t, err)
	_, err = enc.Decrypt(nil, "v2:abc")
	assert.ErrorContains(t, err, "unknown ciphertext version")
	_, err = enc.Decrypt(nil, "v1:"+base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorContains(t, err, "too short")
}

func TestAESGCMEncryptor_ReadsNoopValues(t *testing.T) {
	enc, err := NewAESGCMEncryptor(key(3, 16))
	require.NoError(t, err)
	ct, err := NoopEncryptor{}.Encrypt(nil, []byte("plain"))
	require.NoError(t, err)

	pt, err := enc.Decrypt(nil, ct)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(pt))
}

func TestParseKeys(t *testing.T) {
	first, err := GenerateKey()
	require.NoError(t, err)
	second, err := GenerateKey()
	require.NoError(t, err)

	enc, err := ParseKeys(first + ", " + second)
	require.NoError(t, err)
	assert.Len(t, enc.past, 1)

	_, err = ParseKeys(" , ")
	require.ErrorIs(t, err, ErrNoKeys)
	_, err = ParseKeys("!!!")
	require.Error(t, err)
}

func TestNoopEncryptor(t *testing.T) {
	ct, err := NoopEncryptor{}.Encrypt(nil, []byte("x"))
	require.NoError(t, err)
	pt, err := NoopEncryptor{}.Decrypt(nil, ct)
	require.NoError(t, err)
	assert.Equal(t, "x", string(pt))

	_, err = NoopEncryptor{}.Decrypt(nil, "v1:zzz")
	require.Error(t, err)
}
