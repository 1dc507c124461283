package core

import "time"

// Well-known endpoints and claim names for the two token sources this module
// accepts: the legacy Azure Bot Service channel issuer and Entra ID.
const (
	// BotFrameworkTokenIssuer is the issuer claim carried by tokens minted by
	// the Azure Bot Service channel infrastructure.
	BotFrameworkTokenIssuer = "https://api.botframework.com"

	// PublicAzureBotServiceOpenIdMetadataURL serves signing-key metadata for
	// Bot Service channel tokens in the public cloud.
	PublicAzureBotServiceOpenIdMetadataURL = "https://login.botframework.com/v1/.well-known/openidconfiguration"

	// GovAzureBotServiceOpenIdMetadataURL is the Azure Government equivalent.
	GovAzureBotServiceOpenIdMetadataURL = "https://login.botframework.us/v1/.well-known/openidconfiguration"

	// PublicOpenIdMetadataURL serves signing-key metadata for Entra ID tokens
	// in the public cloud.
	PublicOpenIdMetadataURL = "https://login.microsoftonline.com/common/v2.0/.well-known/openid-configuration"

	// GovOpenIdMetadataURL is the Azure Government equivalent.
	GovOpenIdMetadataURL = "https://login.microsoftonline.us/common/v2.0/.well-known/openid-configuration"
)

// Claim names used for routing and caller authorization.
const (
	IssuerClaim          = "iss"
	AudienceClaim        = "aud"
	AuthorizedPartyClaim = "azp"
	AppIDClaim           = "appid"
	TenantIDClaim        = "tid"
)

// AllowedCallersWildcard opens the caller allow-list to any authenticated
// principal when it is the FIRST entry of the list.
const AllowedCallersWildcard = "*"

// ClockSkew is the allowance applied on both ends of a token's validity
// window.
const ClockSkew = 5 * time.Minute

// Issuer URL templates appended to the default issuer list when a tenant id
// is configured without an explicit issuer list.
const (
	tenantIssuerV1Format = "https://sts.windows.net/%s/"
	tenantIssuerV2Format = "https://login.microsoftonline.com/%s/v2.0"
)

// defaultValidIssuers is the fixed list accepted when no issuers are
// configured: the Bot Service channel issuer plus the v1/v2 issuer URLs of
// the well-known agent platform tenants.
var defaultValidIssuers = []string{
	BotFrameworkTokenIssuer,
	"https://sts.windows.net/d6d49420-f39b-4df7-a1dc-d59a935871db/",
	"https://login.microsoftonline.com/d6d49420-f39b-4df7-a1dc-d59a935871db/v2.0",
	"https://sts.windows.net/f8cdef31-a31e-4b4a-93e4-5f571e91255a/",
	"https://login.microsoftonline.com/f8cdef31-a31e-4b4a-93e4-5f571e91255a/v2.0",
	"https://sts.windows.net/69e9b82d-4842-4902-8d1e-abc5b98a55e8/",
	"https://login.microsoftonline.com/69e9b82d-4842-4902-8d1e-abc5b98a55e8/v2.0",
}

// DefaultValidIssuers returns a copy of the built-in issuer allow-list.
func DefaultValidIssuers() []string {
	return append([]string(nil), defaultValidIssuers...)
}
