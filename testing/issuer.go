// Package testing provides a mock token issuer for testing services that
// validate inbound bearer tokens. It runs an HTTP server exposing an OpenID
// configuration document and its JWKS, and signs tokens that validate
// against those keys, so the full authentication pipeline can be exercised
// without a real identity provider.
//
// Example usage:
//
//	issuer := authtest.NewIssuer()
//	defer issuer.Close()
//
//	cfg.OpenIdMetadataURL = issuer.MetadataURL()
//	cfg.ValidIssuers = []string{issuer.Name()}
//
//	token := issuer.CreateToken("api://my-agent", "caller-app-id")
package testing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	jwtkit "github.com/open-rails/agentauth/jwt"
)

// Issuer is a mock identity source. It serves
// /.well-known/openid-configuration and a JWKS document, and mints RS256
// tokens signed by its in-memory key.
type Issuer struct {
	server *httptest.Server
	signer *jwtkit.RSASigner
	name   string
}

// NewIssuer creates a mock issuer whose issuer claim is its own base URL.
// Call Close() when done to shut down the test server.
func NewIssuer() *Issuer {
	return NewIssuerWithName("")
}

// NewIssuerWithName creates a mock issuer minting tokens with the given
// issuer claim. Use this to impersonate a fixed production issuer (for
// example the Bot Service channel issuer) while serving keys locally.
func NewIssuerWithName(name string) *Issuer {
	signer, err := jwtkit.NewRSASigner(2048, "test-key-1")
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}

	ti := &Issuer{signer: signer, name: name}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", ti.handleMetadata)
	mux.HandleFunc("/.well-known/jwks.json", ti.handleJWKS)

	ti.server = httptest.NewServer(mux)
	if ti.name == "" {
		ti.name = ti.server.URL
	}
	return ti
}

// MetadataURL returns the OpenID configuration endpoint. Point metadata
// resolvers at this.
func (ti *Issuer) MetadataURL() string {
	return ti.server.URL + "/.well-known/openid-configuration"
}

// JWKSURL returns the key-set endpoint named by the metadata document.
func (ti *Issuer) JWKSURL() string {
	return ti.server.URL + "/.well-known/jwks.json"
}

// Name returns the issuer claim minted into this issuer's tokens.
func (ti *Issuer) Name() string { return ti.name }

// Close shuts down the test server.
func (ti *Issuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

func (ti *Issuer) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]any{
		"issuer":   ti.name,
		"jwks_uri": ti.server.URL + "/.well-known/jwks.json",
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (ti *Issuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	k := jwtkit.RSAPublicToJWK(ti.signer.PublicKey(), ti.signer.KID(), ti.signer.Algorithm())
	jwtkit.ServeJWKS(w, r, jwtkit.JWKS{Keys: []jwtkit.JWK{k}})
}

// CreateToken mints a token for the given audience carrying the caller
// identity in the authorized-party claim.
func (ti *Issuer) CreateToken(audience, caller string) string {
	return ti.CreateTokenWithClaims(map[string]any{
		"aud": audience,
		"azp": caller,
	})
}

// CreateTokenWithClaims mints a token merging the given claims over the
// defaults (iss, jti, iat, exp one hour out). Overrides win, including iss
// and exp.
func (ti *Issuer) CreateTokenWithClaims(extra map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": ti.name,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	token, err := ti.signer.Sign(context.Background(), claims)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}

// CreateExpiredToken mints a token whose expiry lies expiredBy in the past.
// Useful for exercising the clock-skew window.
func (ti *Issuer) CreateExpiredToken(audience string, expiredBy time.Duration) string {
	now := time.Now()
	return ti.CreateTokenWithClaims(map[string]any{
		"aud": audience,
		"iat": now.Add(-expiredBy - time.Hour).Unix(),
		"exp": now.Add(-expiredBy).Unix(),
	})
}
