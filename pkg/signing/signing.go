package signing

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Signer produces the two outbound signature schemes: detached Ed25519 JWS
// for UCP deliveries and HMAC-SHA256 for legacy registrations.
type Signer struct {
	priv  ed25519.PrivateKey
	pub   ed25519.PublicKey
	keyID string
}

// NewSignerFromSeed builds a Signer from a base64-encoded 32-byte Ed25519
// seed. The same seed always yields the same keypair, so the published JWKS
// stays stable across restarts.
func NewSignerFromSeed(encodedSeed, keyID string) (*Signer, error) {
	if strings.TrimSpace(encodedSeed) == "" {
		return nil, errors.New("signing seed is required")
	}
	if keyID == "" {
		return nil, errors.New("signing key id is required")
	}
	seed, err := base64.StdEncoding.DecodeString(encodedSeed)
	if err != nil {
		return nil, fmt.Errorf("decode signing seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		priv:  priv,
		pub:   priv.Public().(ed25519.PublicKey),
		keyID: keyID,
	}, nil
}

// GenerateSigner creates a Signer with a fresh random keypair. Intended for
// local development and tests.
func GenerateSigner(keyID string) (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &Signer{priv: priv, pub: pub, keyID: keyID}, nil
}

// KeyID returns the identifier published alongside the public key.
func (s *Signer) KeyID() string {
	return s.keyID
}

type jwsHeader struct {
	Alg      string   `json:"alg"`
	KID      string   `json:"kid"`
	B64      bool     `json:"b64"`
	Critical []string `json:"crit"`
}

// SignDetached produces a detached JWS compact serialization over the raw
// payload bytes: header..signature with the payload segment omitted. The
// header sets b64=false so verifiers sign over the raw body, not a
// base64 transcription of it.
func (s *Signer) SignDetached(payload []byte) (string, error) {
	if s == nil || s.priv == nil {
		return "", errors.New("signer not initialized")
	}
	header, err := json.Marshal(jwsHeader{
		Alg:      jwt.SigningMethodEdDSA.Alg(),
		KID:      s.keyID,
		B64:      false,
		Critical: []string{"b64"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal jws header: %w", err)
	}
	encodedHeader := base64.RawURLEncoding.EncodeToString(header)
	signingInput := encodedHeader + "." + string(payload)
	sig, err := jwt.SigningMethodEdDSA.Sign(signingInput, s.priv)
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return encodedHeader + ".." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// VerifyDetached checks a detached JWS produced by SignDetached against the
// raw payload bytes.
func (s *Signer) VerifyDetached(signature string, payload []byte) error {
	if s == nil || s.pub == nil {
		return errors.New("signer not initialized")
	}
	parts := strings.Split(signature, ".")
	if len(parts) != 3 || parts[1] != "" {
		return errors.New("malformed detached jws")
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("decode jws signature: %w", err)
	}
	signingInput := parts[0] + "." + string(payload)
	if err := jwt.SigningMethodEdDSA.Verify(signingInput, sig, s.pub); err != nil {
		return fmt.Errorf("verify jws: %w", err)
	}
	return nil
}

// JWK is the public half of the signing key in JSON Web Key form.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	KID string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
}

// JWKS is the key set document served from the discovery endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicJWKS returns the key set verifiers fetch to check UCP deliveries.
func (s *Signer) PublicJWKS() JWKS {
	if s == nil || s.pub == nil {
		return JWKS{Keys: []JWK{}}
	}
	return JWKS{Keys: []JWK{{
		Kty: "OKP",
		Crv: "Ed25519",
		X:   base64.RawURLEncoding.EncodeToString(s.pub),
		KID: s.keyID,
		Use: "sig",
		Alg: jwt.SigningMethodEdDSA.Alg(),
	}}}
}

// HMACSign returns the hex HMAC-SHA256 of payload under the registration
// secret. Used for the legacy delivery signature header.
func HMACSign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// HMACVerify reports whether signature matches payload under secret, in
// constant time.
func HMACVerify(secret string, payload []byte, signature string) bool {
	expected := HMACSign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
