package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/open-rails/agentauth/core"
	"github.com/open-rails/agentauth/metadata"
)

// Validate authenticates a raw bearer token against the signing keys served
// by mgr and the claim policies in cfg. The manager is the per-request
// selection made by SelectManager. Checks, in order: signature against the
// manager's current keys, issuer allow-list, audience allow-list, validity
// window with the standard clock skew, and the tenant/issuer binding for
// identity-provider tokens. On success the verified claims are returned as a
// Principal; every failure is wrapped in one of this package's sentinels.
func Validate(ctx context.Context, raw string, mgr *metadata.Manager, cfg *core.ValidationConfig) (*core.Principal, error) {
	if raw == "" {
		return nil, ErrNoToken
	}

	// Reject garbage before touching the key set so a malformed credential
	// is reported as such rather than as a signature failure.
	if _, err := jwt.ParseInsecure([]byte(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	keys, err := mgr.Keys(ctx)
	if err != nil {
		// No keys have ever been fetched for this endpoint: fail closed.
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	tok, err := jwt.ParseString(raw,
		jwt.WithContext(ctx),
		jwt.WithKeySet(keys, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	if err := jwt.Validate(tok, jwt.WithAcceptableSkew(core.ClockSkew)); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired()):
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		case errors.Is(err, jwt.ErrTokenNotYetValid()):
			return nil, fmt.Errorf("%w: %v", ErrNotYetValid, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	iss := tok.Issuer()
	if !contains(cfg.ValidIssuers, iss) {
		return nil, fmt.Errorf("%w: %q", ErrIssuer, iss)
	}

	if !intersects(tok.Audience(), cfg.Audiences) {
		return nil, ErrAudience
	}

	claims := make(map[string]any, len(tok.PrivateClaims())+3)
	for k, v := range tok.PrivateClaims() {
		claims[k] = v
	}
	claims[core.IssuerClaim] = iss
	if sub := tok.Subject(); sub != "" {
		claims["sub"] = sub
	}
	if aud := tok.Audience(); len(aud) > 0 {
		claims[core.AudienceClaim] = aud
	}

	// Identity-provider tokens must bind to the tenant embedded in their
	// issuer URL. Channel tokens carry no such association.
	if iss != core.BotFrameworkTokenIssuer {
		if err := checkTenantBinding(iss, claims); err != nil {
			return nil, err
		}
	}

	return core.NewPrincipal(iss, claims), nil
}

// checkTenantBinding rejects identity-provider tokens whose tid claim does
// not match the tenant named in an Entra-pattern issuer URL. Issuers outside
// those patterns, tenant-neutral issuers, and tokens without a tid claim are
// left to the issuer allow-list alone.
func checkTenantBinding(iss string, claims map[string]any) error {
	issuerTenant := tenantFromIssuer(iss)
	if issuerTenant == "" || issuerTenant == "common" || issuerTenant == "organizations" {
		return nil
	}
	tid, _ := claims[core.TenantIDClaim].(string)
	if tid == "" {
		return nil
	}
	if !strings.EqualFold(tid, issuerTenant) {
		return fmt.Errorf("%w: tid %q, issuer tenant %q", ErrKeyIssuerBinding, tid, issuerTenant)
	}
	return nil
}

var issuerTenantPatterns = []struct {
	prefix string
	suffix string
}{
	{"https://sts.windows.net/", "/"},
	{"https://login.microsoftonline.com/", "/v2.0"},
	{"https://login.microsoftonline.us/", "/v2.0"},
}

func tenantFromIssuer(iss string) string {
	for _, p := range issuerTenantPatterns {
		if strings.HasPrefix(iss, p.prefix) && strings.HasSuffix(iss, p.suffix) {
			t := strings.TrimSuffix(strings.TrimPrefix(iss, p.prefix), p.suffix)
			if t != "" && !strings.Contains(t, "/") {
				return t
			}
		}
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
