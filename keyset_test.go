package jwksauth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJWKS(t *testing.T) {
	t.Run("Valid Document", func(t *testing.T) {
		jwks, err := ParseJWKS([]byte(exampleJWKS))
		require.NoError(t, err)
		require.Len(t, jwks.Keys, 1)
		assert.Equal(t, "RSA", jwks.Keys[0].Kty)
		assert.Equal(t, "auth0_rs", jwks.Keys[0].Kid)
		assert.Equal(t, "RS256", jwks.Keys[0].Alg)
		assert.Equal(t, "sig", jwks.Keys[0].Use)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		_, err := ParseJWKS([]byte(`{"keys": [`))
		require.ErrorIs(t, err, ErrMalformedJWKS)
	})

	t.Run("Missing Keys Array", func(t *testing.T) {
		_, err := ParseJWKS([]byte(`{"alg": "RS256"}`))
		require.ErrorIs(t, err, ErrMalformedJWKS)
	})

	t.Run("Top Level Not An Object", func(t *testing.T) {
		_, err := ParseJWKS([]byte(`["keys"]`))
		require.ErrorIs(t, err, ErrMalformedJWKS)
	})
}

func TestNewKeyStore(t *testing.T) {
	privateKey := generateTestKey(t)
	publicKey := &privateKey.PublicKey

	t.Run("Single RSA Key", func(t *testing.T) {
		store, err := NewKeyStore([]byte(`{"keys":[` + rsaJWKEntry(publicKey, "key-1") + `]}`))
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())

		key, found := store.Lookup("key-1")
		require.True(t, found)

		rsaKey, ok := key.(*rsa.PublicKey)
		require.True(t, ok)
		assert.True(t, rsaKey.Equal(publicKey), "Decoded key should match the source key")
		assert.Equal(t, 65537, rsaKey.E)
	})

	t.Run("Empty Keys Array", func(t *testing.T) {
		store, err := NewKeyStore([]byte(`{"keys":[]}`))
		require.NoError(t, err)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("Lookup Miss", func(t *testing.T) {
		store, err := NewKeyStore([]byte(`{"keys":[]}`))
		require.NoError(t, err)

		key, found := store.Lookup("absent")
		assert.False(t, found)
		assert.Nil(t, key)
	})

	t.Run("Duplicate Kid Last Wins", func(t *testing.T) {
		otherKey := generateTestKey(t)

		store, err := NewKeyStore([]byte(`{"keys":[` +
			rsaJWKEntry(publicKey, "shared") + `,` +
			rsaJWKEntry(&otherKey.PublicKey, "shared") + `]}`))
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())

		key, found := store.Lookup("shared")
		require.True(t, found)
		assert.True(t, key.(*rsa.PublicKey).Equal(&otherKey.PublicKey), "Last-listed key should win")
	})

	t.Run("EC Key", func(t *testing.T) {
		sourceKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		store, err := NewKeyStore([]byte(`{"keys":[{
			"kty": "EC",
			"alg": "ES256",
			"use": "sig",
			"kid": "ec-key",
			"crv": "P-256",
			"x": "` + base64.RawURLEncoding.EncodeToString(sourceKey.PublicKey.X.Bytes()) + `",
			"y": "` + base64.RawURLEncoding.EncodeToString(sourceKey.PublicKey.Y.Bytes()) + `"
		}]}`))
		require.NoError(t, err)

		key, found := store.Lookup("ec-key")
		require.True(t, found)

		ecKey, ok := key.(*ecdsa.PublicKey)
		require.True(t, ok)
		assert.True(t, ecKey.Equal(&sourceKey.PublicKey), "Decoded key should match the source key")
	})

	t.Run("Unknown Kty Is Stored Without Material", func(t *testing.T) {
		store, err := NewKeyStore([]byte(`{"keys":[{
			"kty": "oct",
			"kid": "symmetric-key"
		}]}`))
		require.NoError(t, err)

		key, found := store.Lookup("symmetric-key")
		assert.True(t, found, "Entry should be indexed even without usable material")
		assert.Nil(t, key)
	})

	t.Run("Malformed Entries", func(t *testing.T) {
		tests := []struct {
			name string
			jwks string
		}{
			{"Missing Kid", `{"keys":[{"kty":"RSA","n":"AQAB","e":"AQAB"}]}`},
			{"Missing Kty", `{"keys":[{"kid":"key-1","n":"AQAB","e":"AQAB"}]}`},
			{"RSA Missing Modulus", `{"keys":[{"kty":"RSA","kid":"key-1","e":"AQAB"}]}`},
			{"RSA Missing Exponent", `{"keys":[{"kty":"RSA","kid":"key-1","n":"AQAB"}]}`},
			{"RSA Modulus Not Base64url", `{"keys":[{"kty":"RSA","kid":"key-1","n":"!!!","e":"AQAB"}]}`},
			{"RSA Exponent Not Base64url", `{"keys":[{"kty":"RSA","kid":"key-1","n":"AQAB","e":"!!!"}]}`},
			{"EC Missing Coordinates", `{"keys":[{"kty":"EC","kid":"key-1","crv":"P-256"}]}`},
			{"EC Unknown Curve", `{"keys":[{"kty":"EC","kid":"key-1","crv":"P-123","x":"AQAB","y":"AQAB"}]}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewKeyStore([]byte(tt.jwks))
				require.ErrorIs(t, err, ErrMalformedKey)
			})
		}
	})
}
