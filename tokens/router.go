// Package tokens authenticates inbound bearer tokens. It routes each request
// to the right signing-key metadata source based on the token's (unverified)
// issuer claim, then performs full cryptographic and claims validation.
package tokens

import (
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/open-rails/agentauth/core"
	"github.com/open-rails/agentauth/metadata"
)

// IssuerHint is an issuer claim read from an UNVERIFIED token. It exists
// only to pick a metadata source and must never be treated as an
// authentication result; verified claims live on core.Principal.
type IssuerHint string

// IsBotService reports whether the hinted issuer is the Bot Service channel
// issuer.
func (h IssuerHint) IsBotService() bool {
	return string(h) == core.BotFrameworkTokenIssuer
}

// BearerToken extracts the raw token from an Authorization header value.
// The header must be exactly two space-separated parts with a "Bearer"
// scheme.
func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ParseIssuerHint reads the issuer claim without verifying the signature.
func ParseIssuerHint(raw string) (IssuerHint, error) {
	tok, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return "", err
	}
	return IssuerHint(tok.Issuer()), nil
}

// SelectManager picks the metadata manager to verify this request's token
// against. A missing or malformed Authorization header selects the default
// (identity-provider) manager without error; validation fails later if a
// token was actually required. The selection is returned to the caller and
// passed down the validation call explicitly; nothing shared is mutated, so
// concurrent requests cannot leak selections into each other.
func SelectManager(cache *metadata.Cache, cfg *core.ValidationConfig, authorization string) (*metadata.Manager, IssuerHint) {
	def := cache.Resolve(cfg.OpenIdMetadataURL)
	raw, ok := BearerToken(authorization)
	if !ok {
		return def, ""
	}
	hint, err := ParseIssuerHint(raw)
	if err != nil {
		return def, ""
	}
	if cfg.AzureBotServiceTokenHandling && hint.IsBotService() {
		return cache.Resolve(cfg.AzureBotServiceOpenIdMetadataURL), hint
	}
	return def, hint
}
