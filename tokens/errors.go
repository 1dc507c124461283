package tokens

import "errors"

// Authentication rejections. Each failure mode gets its own sentinel so
// adapters and operators can tell them apart; all of them mean the request
// is unauthenticated.
var (
	ErrNoToken          = errors.New("agentauth: no bearer token")
	ErrMalformedToken   = errors.New("agentauth: malformed token")
	ErrSignature        = errors.New("agentauth: signature verification failed")
	ErrIssuer           = errors.New("agentauth: issuer not trusted")
	ErrAudience         = errors.New("agentauth: audience mismatch")
	ErrExpired          = errors.New("agentauth: token expired")
	ErrNotYetValid      = errors.New("agentauth: token not yet valid")
	ErrKeyIssuerBinding = errors.New("agentauth: token tenant does not match issuer")
)

// AuthCause maps an authentication error to a short label for logs and
// audit events. The raw token never appears in these.
func AuthCause(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no_token"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrSignature):
		return "bad_signature"
	case errors.Is(err, ErrIssuer):
		return "issuer_mismatch"
	case errors.Is(err, ErrAudience):
		return "audience_mismatch"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, ErrKeyIssuerBinding):
		return "key_issuer_binding"
	default:
		return "invalid"
	}
}
