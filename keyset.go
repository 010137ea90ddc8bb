package jwksauth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

// JWKS represents a JSON Web Key Set (JWKS), which contains an array of keys that can be used
// for validating JWTs. Each key in the set is a JWK.
type JWKS struct {
	// Keys is a list of JSON Web Keys (JWKs) included in the set.
	Keys []JWK `json:"keys"`
}

// JWK represents a single JSON Web Key, which contains parameters describing the key.
// It can be an RSA or EC key, and includes information such as key type, algorithm,
// key usage, key ID, and other parameters depending on the key type.
type JWK struct {
	// Kty (Key Type) indicates the algorithm family of the key (e.g., "RSA", "EC").
	Kty string `json:"kty"`

	// Alg (Algorithm) indicates the algorithm used with the key (e.g., "RS256").
	Alg string `json:"alg,omitempty"`

	// Use (Key Use) indicates the intended use of the key (e.g., "sig" for signature).
	Use string `json:"use,omitempty"`

	// Kid (Key ID) is a unique identifier for the key.
	Kid string `json:"kid"`

	// N is the modulus for RSA keys. This field is only set for RSA keys.
	N string `json:"n,omitempty"`

	// E is the exponent for RSA keys. This field is only set for RSA keys.
	E string `json:"e,omitempty"`

	// X is the x-coordinate for EC keys. This field is only set for EC keys.
	X string `json:"x,omitempty"`

	// Y is the y-coordinate for EC keys. This field is only set for EC keys.
	Y string `json:"y,omitempty"`

	// Crv (Curve) indicates the elliptic curve used for EC keys. This field is only set for EC keys.
	Crv string `json:"crv,omitempty"`
}

// ParseJWKS parses a JSON Web Key Set (JWKS) from a JSON-encoded byte slice.
//
// The data parameter should be a valid JWKS JSON string. This function will parse the
// string into a JWKS struct, which contains a list of JWKs.
//
// Returns:
// - *JWKS: The parsed JWKS struct.
// - error: An error, if any occurred during parsing.
func ParseJWKS(data []byte) (*JWKS, error) {
	var jwks JWKS
	if err := json.Unmarshal(data, &jwks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJWKS, err)
	}

	if jwks.Keys == nil {
		return nil, fmt.Errorf("%w: missing keys array", ErrMalformedJWKS)
	}

	return &jwks, nil
}

// KeySource resolves a key ID (kid) to public key material. It is implemented
// by *KeyStore and by keyring.Ring, which adds rotation on top of a store.
type KeySource interface {
	// Lookup returns the public key indexed under the given key ID. The
	// returned key may be nil for entries whose key type carries no usable
	// material; the boolean reports whether the key ID is present at all.
	Lookup(kid string) (crypto.PublicKey, bool)
}

// KeyStore holds the decoded public keys of a JWKS document, indexed by key ID.
//
// A KeyStore is immutable once built and is safe for unlimited concurrent
// lookups. To pick up rotated keys, build a new store from the fresh JWKS
// document and swap it in (see the keyring package); never mutate a store
// in place.
type KeyStore struct {
	keys map[string]crypto.PublicKey
}

// NewKeyStore builds a KeyStore from a JSON-encoded JWKS document.
//
// RSA entries are decoded into *rsa.PublicKey and EC entries into
// *ecdsa.PublicKey. Entries of any other key type are indexed without usable
// key material; selecting such a key during validation fails with
// ErrUnsupportedAlgorithm. If two entries share a kid, the later one wins.
//
// Returns:
// - *KeyStore: The built store.
// - error: ErrMalformedJWKS or ErrMalformedKey, if the document or one of its entries is unusable.
func NewKeyStore(data []byte) (*KeyStore, error) {
	jwks, err := ParseJWKS(data)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]crypto.PublicKey, len(jwks.Keys))

	for i := range jwks.Keys {
		jwk := &jwks.Keys[i]

		if jwk.Kid == "" {
			return nil, fmt.Errorf("%w: key %d has no kid", ErrMalformedKey, i)
		}

		if jwk.Kty == "" {
			return nil, fmt.Errorf("%w: key %q has no kty", ErrMalformedKey, jwk.Kid)
		}

		var publicKey crypto.PublicKey

		switch jwk.Kty {
		case "RSA":
			publicKey, err = rsaPublicKey(jwk)
		case "EC":
			publicKey, err = ecPublicKey(jwk)
		default:
			// Indexed without material so that validation reports an
			// algorithm mismatch instead of an unknown kid.
		}

		if err != nil {
			return nil, err
		}

		keys[jwk.Kid] = publicKey
	}

	return &KeyStore{keys: keys}, nil
}

// Lookup returns the public key indexed under the given key ID and a boolean
// indicating whether the key ID is present in the store.
func (s *KeyStore) Lookup(kid string) (crypto.PublicKey, bool) {
	key, exists := s.keys[kid]

	return key, exists
}

// Len returns the number of keys in the store.
func (s *KeyStore) Len() int {
	return len(s.keys)
}

// rsaPublicKey decodes the modulus (n) and public exponent (e) of an RSA JWK
// into an *rsa.PublicKey. Both values are base64url-encoded unsigned
// big-endian integers.
func rsaPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	if jwk.N == "" || jwk.E == "" {
		return nil, fmt.Errorf("%w: RSA key %q is missing n or e", ErrMalformedKey, jwk.Kid)
	}

	n, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("%w: RSA key %q has an invalid modulus: %v", ErrMalformedKey, jwk.Kid, err)
	}

	e, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("%w: RSA key %q has an invalid exponent: %v", ErrMalformedKey, jwk.Kid, err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

// ecPublicKey decodes the curve and coordinates of an EC JWK into an
// *ecdsa.PublicKey.
func ecPublicKey(jwk *JWK) (*ecdsa.PublicKey, error) {
	if jwk.X == "" || jwk.Y == "" {
		return nil, fmt.Errorf("%w: EC key %q is missing x or y", ErrMalformedKey, jwk.Kid)
	}

	var curve elliptic.Curve

	switch jwk.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("%w: EC key %q has unknown curve %q", ErrMalformedKey, jwk.Kid, jwk.Crv)
	}

	x, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("%w: EC key %q has an invalid x coordinate: %v", ErrMalformedKey, jwk.Kid, err)
	}

	y, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("%w: EC key %q has an invalid y coordinate: %v", ErrMalformedKey, jwk.Kid, err)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}, nil
}
