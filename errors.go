package jwksauth

import "errors"

// Sentinel errors returned by key store construction and token validation.
// They are matched with errors.Is; wrapped variants carry additional context.
// Every failure is terminal: nothing is retried and no partial claim set is
// ever returned alongside an error.
var (
	// ErrMalformedJWKS indicates that the JWKS document is not valid JSON or
	// does not contain a "keys" array.
	ErrMalformedJWKS = errors.New("malformed jwks document")

	// ErrMalformedKey indicates that an individual JWK entry is missing
	// required fields or carries unparsable key material.
	ErrMalformedKey = errors.New("malformed jwk entry")

	// ErrMalformedToken indicates that the token is not three well-formed
	// base64url segments, or that its header or payload is not decodable JSON.
	ErrMalformedToken = errors.New("malformed token")

	// ErrMissingKeyID indicates that the token header has no "kid" field.
	ErrMissingKeyID = errors.New("token header is missing the key id (kid)")

	// ErrMissingAlgorithm indicates that the token header has no "alg" field.
	ErrMissingAlgorithm = errors.New("token header is missing the algorithm (alg)")

	// ErrUnsupportedAlgorithm indicates that the token header declares an
	// algorithm other than RS256, or that the selected key cannot be used
	// with RS256.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

	// ErrUnknownKeyID indicates that no key in the store matches the token's
	// "kid". Callers commonly treat this as a hint to re-fetch the JWKS, as
	// it can signal key rotation on the provider side.
	ErrUnknownKeyID = errors.New("no key in the store matches the token key id")

	// ErrInvalidSignature indicates that cryptographic verification failed.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired indicates that the "exp" claim lies in the past.
	ErrExpired = errors.New("token is expired")

	// ErrNotYetValid indicates that the "nbf" claim lies in the future.
	ErrNotYetValid = errors.New("token is not valid yet")

	// ErrInvalidIssuer indicates that the "iss" claim does not match the
	// issuer configured on the validator. Only returned when the issuer
	// check is enabled.
	ErrInvalidIssuer = errors.New("unexpected token issuer")

	// ErrInvalidAudience indicates that the "aud" claim does not contain the
	// audience configured on the validator. Only returned when the audience
	// check is enabled.
	ErrInvalidAudience = errors.New("unexpected token audience")
)
