package core

import "encoding/json"

// Principal is an authenticated caller. It is produced only after full
// cryptographic and claims validation; holding one is proof that the token
// it came from was verified.
type Principal struct {
	issuer string
	claims map[string]any
}

// NewPrincipal wraps verified claims. Callers outside the validator should
// have no reason to construct one.
func NewPrincipal(issuer string, claims map[string]any) *Principal {
	if claims == nil {
		claims = map[string]any{}
	}
	return &Principal{issuer: issuer, claims: claims}
}

// Issuer returns the verified issuer claim.
func (p *Principal) Issuer() string { return p.issuer }

// CallerID returns the identity of the calling application: the authorized
// party ("azp") claim, falling back to the legacy "appid" claim. Empty when
// neither is present.
func (p *Principal) CallerID() string {
	if v, ok := p.claims[AuthorizedPartyClaim].(string); ok && v != "" {
		return v
	}
	if v, ok := p.claims[AppIDClaim].(string); ok {
		return v
	}
	return ""
}

// TenantID returns the "tid" claim when present.
func (p *Principal) TenantID() string {
	v, _ := p.claims[TenantIDClaim].(string)
	return v
}

// Claim returns a single named claim.
func (p *Principal) Claim(name string) (any, bool) {
	v, ok := p.claims[name]
	return v, ok
}

// Claims unmarshals the full claim set into ref for downstream consumers
// that need more than the accessors above.
func (p *Principal) Claims(ref any) error {
	b, err := json.Marshal(p.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}
