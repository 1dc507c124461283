package core

// Decision is the outcome of the caller allow-list check for one request.
// It is derived from per-token claims and must not be cached across requests.
type Decision struct {
	Allowed  bool
	CallerID string
}

// Err returns ErrCallerNotAllowed for a rejecting decision, nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return ErrCallerNotAllowed
}

// AuthorizeCaller applies the allow-list policy to an authenticated
// principal. Rules, in order:
//
//  1. An empty allow-list, or one whose FIRST entry is "*", allows every
//     authenticated caller. Only the first entry is consulted for the
//     wildcard; a "*" further down the list does not open the gate.
//  2. Tokens issued by the Bot Service channel issuer are allowed by issuer
//     alone: they do not reliably carry a comparable party claim.
//  3. Otherwise the caller id (azp, falling back to appid) must match one of
//     the allowed callers exactly. A missing caller id never matches.
//
// This runs strictly after authentication; it is pure and side-effect free.
func AuthorizeCaller(p *Principal, cfg *ValidationConfig) Decision {
	if p == nil {
		return Decision{}
	}
	caller := p.CallerID()
	if len(cfg.AllowedCallers) == 0 || cfg.AllowedCallers[0] == AllowedCallersWildcard {
		return Decision{Allowed: true, CallerID: caller}
	}
	if p.Issuer() == BotFrameworkTokenIssuer {
		return Decision{Allowed: true, CallerID: caller}
	}
	if caller == "" {
		return Decision{CallerID: caller}
	}
	for _, allowed := range cfg.AllowedCallers {
		if caller == allowed {
			return Decision{Allowed: true, CallerID: caller}
		}
	}
	return Decision{CallerID: caller}
}
