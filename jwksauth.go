// Package jwksauth validates bearer access tokens against an identity
// provider's published JSON Web Key Set (JWKS). It resolves the token's key ID
// to a public key from the set, verifies the RS256 signature, checks the
// temporal claims, and returns the claim set.
//
// The package does not fetch JWKS documents itself: construction takes an
// already-fetched document, leaving transport, retries, and HTTP caching to
// the caller.
package jwksauth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenHeader carries the only two header fields the validator reads. The
// header is never trusted for anything beyond selecting the verification key.
type tokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// ValidatorOptions defines the available configuration options for the Validator.
type ValidatorOptions struct {
	// ExpectedIssuer, if set, enables the issuer check: the "iss" claim must
	// equal this value or validation fails with ErrInvalidIssuer.
	ExpectedIssuer string

	// ExpectedAudience, if set, enables the audience check: the "aud" claim
	// must contain this value or validation fails with ErrInvalidAudience.
	ExpectedAudience string

	// Now is a function that returns the current time, used for the expiry
	// and not-before checks. If not provided, time.Now is used.
	Now func() time.Time
}

// Validator verifies compact-serialized RS256 tokens against a key source and
// returns their claims. It holds no mutable state and is safe for concurrent
// use by any number of callers.
type Validator struct {
	keys   KeySource
	parser *jwt.Parser
	opts   ValidatorOptions
}

// New creates a new Validator that resolves verification keys from the given
// key source. The source is typically a *KeyStore built once at startup, or a
// *keyring.Ring when keys are rotated at runtime.
func New(keys KeySource, optFns ...func(o *ValidatorOptions)) *Validator {
	opts := ValidatorOptions{
		Now: time.Now,
	}

	// Apply custom options provided through optFns
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Validator{
		keys: keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			// Temporal and issuer/audience claims are checked by the
			// validator itself, against its own clock.
			jwt.WithoutClaimsValidation(),
		),
		opts: opts,
	}
}

// Validate verifies a compact-serialized token and returns its claims.
//
// The token's header is decoded only to select the verification key: the
// declared algorithm must be RS256 and the "kid" must resolve in the key
// source. The signature is then verified over the original base64url header
// and payload segments, the payload is decoded, and the "exp" and "nbf"
// claims (when present) are checked against the validator's clock. A token
// whose "exp" equals the current instant is not yet expired.
//
// On failure one of the package's sentinel errors is returned and no claims
// are ever handed out: there is no fallback to an unverified parse.
//
// Parameters:
//   - rawToken: The compact-serialized token string (header.payload.signature).
//
// Returns:
//   - The claim set as jwt.MapClaims if the token is authentic and valid.
//   - An error identifying the first check that failed.
func (v *Validator) Validate(rawToken string) (jwt.MapClaims, error) {
	header, err := decodeHeader(rawToken)
	if err != nil {
		return nil, err
	}

	if header.Kid == "" {
		return nil, ErrMissingKeyID
	}

	if header.Alg == "" {
		return nil, ErrMissingAlgorithm
	}

	// Never let the token pick a weaker or mismatched algorithm than the
	// store's keys support.
	if header.Alg != jwt.SigningMethodRS256.Alg() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, header.Alg)
	}

	key, exists := v.keys.Lookup(header.Kid)
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyID, header.Kid)
	}

	publicKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: key %q is not an RSA key", ErrUnsupportedAlgorithm, header.Kid)
	}

	token, err := v.parser.Parse(rawToken, func(_ *jwt.Token) (any, error) {
		return publicKey, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedToken)
	}

	if err := v.verifyClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// decodeHeader splits the compact serialization and decodes the header
// segment. It fails with ErrMalformedToken unless the token consists of
// exactly three non-empty base64url segments and the first decodes to JSON.
func decodeHeader(rawToken string) (*tokenHeader, error) {
	segments := strings.Split(rawToken, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(segments))
	}

	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: empty segment", ErrMalformedToken)
		}
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header is not base64url: %v", ErrMalformedToken, err)
	}

	var header tokenHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("%w: header is not valid JSON: %v", ErrMalformedToken, err)
	}

	return &header, nil
}

// verifyClaims checks the temporal claims and, when configured, the issuer
// and audience. Absent "exp" and "nbf" claims are permitted: no implicit
// expiry is invented.
func (v *Validator) verifyClaims(claims jwt.MapClaims) error {
	now := v.opts.Now()

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: exp is not a numeric timestamp", ErrMalformedToken)
	}

	if exp != nil && now.After(exp.Time) {
		return fmt.Errorf("%w: expired at %s", ErrExpired, exp.Time.UTC().Format(time.RFC3339))
	}

	nbf, err := claims.GetNotBefore()
	if err != nil {
		return fmt.Errorf("%w: nbf is not a numeric timestamp", ErrMalformedToken)
	}

	if nbf != nil && now.Before(nbf.Time) {
		return fmt.Errorf("%w: not valid before %s", ErrNotYetValid, nbf.Time.UTC().Format(time.RFC3339))
	}

	if v.opts.ExpectedIssuer != "" {
		issuer, err := claims.GetIssuer()
		if err != nil || issuer != v.opts.ExpectedIssuer {
			return fmt.Errorf("%w: %q", ErrInvalidIssuer, issuer)
		}
	}

	if v.opts.ExpectedAudience != "" {
		audience, err := claims.GetAudience()
		if err != nil {
			return fmt.Errorf("%w: aud claim is unreadable", ErrInvalidAudience)
		}

		if !containsAudience(audience, v.opts.ExpectedAudience) {
			return fmt.Errorf("%w: %v", ErrInvalidAudience, []string(audience))
		}
	}

	return nil
}

// containsAudience reports whether the audience claim contains the expected value.
func containsAudience(audience jwt.ClaimStrings, expected string) bool {
	for _, aud := range audience {
		if aud == expected {
			return true
		}
	}

	return false
}

// mapParseError translates golang-jwt parse failures into the package's
// sentinel errors. Signature and structural failures are the only classes
// that can surface here: claims validation is performed by verifyClaims.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
