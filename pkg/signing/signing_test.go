package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignerFromSeed(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(seed)
	require.NoError(t, err)

	signer, err := NewSignerFromSeed(base64.StdEncoding.EncodeToString(seed), "key-1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", signer.KeyID())
}

func TestNewSignerFromSeedRejectsBadInput(t *testing.T) {
	_, err := NewSignerFromSeed("not-base64!!!", "key-1")
	assert.Error(t, err)

	_, err = NewSignerFromSeed(base64.StdEncoding.EncodeToString([]byte("short")), "key-1")
	assert.Error(t, err)
}

func TestDetachedSignatureRoundTrip(t *testing.T) {
	signer, err := GenerateSigner("key-1")
	require.NoError(t, err)

	payload := []byte(`{"event":"order_created"}`)
	signature, err := signer.SignDetached(payload)
	require.NoError(t, err)

	// detached JWS: header..signature with an empty payload segment
	parts := strings.Split(signature, ".")
	require.Len(t, parts, 3)
	assert.Empty(t, parts[1])

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	var header struct {
		Alg  string   `json:"alg"`
		Kid  string   `json:"kid"`
		B64  bool     `json:"b64"`
		Crit []string `json:"crit"`
	}
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	assert.Equal(t, "EdDSA", header.Alg)
	assert.Equal(t, "key-1", header.Kid)
	assert.False(t, header.B64)
	assert.Equal(t, []string{"b64"}, header.Crit)

	require.NoError(t, signer.VerifyDetached(signature, payload))
}

func TestVerifyDetachedRejectsTamperedPayload(t *testing.T) {
	signer, err := GenerateSigner("key-1")
	require.NoError(t, err)

	signature, err := signer.SignDetached([]byte(`{"total":100}`))
	require.NoError(t, err)

	assert.Error(t, signer.VerifyDetached(signature, []byte(`{"total":999}`)))
}

func TestVerifyDetachedRejectsForeignKey(t *testing.T) {
	signer, err := GenerateSigner("key-1")
	require.NoError(t, err)
	other, err := GenerateSigner("key-2")
	require.NoError(t, err)

	payload := []byte(`{"event":"order_updated"}`)
	signature, err := signer.SignDetached(payload)
	require.NoError(t, err)

	assert.Error(t, other.VerifyDetached(signature, payload))
}

func TestPublicJWKS(t *testing.T) {
	signer, err := GenerateSigner("webhook-1")
	require.NoError(t, err)

	jwks := signer.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	key := jwks.Keys[0]
	assert.Equal(t, "OKP", key.Kty)
	assert.Equal(t, "Ed25519", key.Crv)
	assert.Equal(t, "webhook-1", key.KID)
	assert.Equal(t, "sig", key.Use)
	assert.NotEmpty(t, key.X)
}

func TestHMACSignVerify(t *testing.T) {
	payload := []byte(`{"order":"sw_order_1"}`)
	signature := HMACSign("topsecret", payload)
	assert.True(t, HMACVerify("topsecret", payload, signature))
	assert.False(t, HMACVerify("topsecret", []byte("other"), signature))
	assert.False(t, HMACVerify("wrong", payload, signature))
}
