package core

import (
	"errors"
	"testing"
	"time"
)

func TestNewValidationConfig_RequiresAudiences(t *testing.T) {
	_, err := NewValidationConfig(&Settings{})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError for missing audiences, got %v", err)
	}
}

func TestNewValidationConfig_DefaultIssuers(t *testing.T) {
	cfg, err := NewValidationConfig(&Settings{Audiences: []string{"api://agent"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DefaultValidIssuers()
	if len(cfg.ValidIssuers) != len(want) {
		t.Fatalf("expected %d default issuers, got %d", len(want), len(cfg.ValidIssuers))
	}
	if cfg.ValidIssuers[0] != BotFrameworkTokenIssuer {
		t.Fatalf("expected bot issuer first, got %q", cfg.ValidIssuers[0])
	}
}

func TestNewValidationConfig_TenantAugmentation(t *testing.T) {
	cfg, err := NewValidationConfig(&Settings{
		Audiences: []string{"api://agent"},
		TenantID:  "11111111-2222-3333-4444-555555555555",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := len(DefaultValidIssuers())
	if len(cfg.ValidIssuers) != base+2 {
		t.Fatalf("expected exactly two tenant issuers appended, got %d extra", len(cfg.ValidIssuers)-base)
	}
	v1 := "https://sts.windows.net/11111111-2222-3333-4444-555555555555/"
	v2 := "https://login.microsoftonline.com/11111111-2222-3333-4444-555555555555/v2.0"
	if cfg.ValidIssuers[base] != v1 || cfg.ValidIssuers[base+1] != v2 {
		t.Fatalf("unexpected tenant issuers: %v", cfg.ValidIssuers[base:])
	}
}

func TestNewValidationConfig_ExplicitIssuersWin(t *testing.T) {
	cfg, err := NewValidationConfig(&Settings{
		Audiences:    []string{"api://agent"},
		TenantID:     "11111111-2222-3333-4444-555555555555",
		ValidIssuers: []string{"https://issuer.example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.ValidIssuers) != 1 || cfg.ValidIssuers[0] != "https://issuer.example.com" {
		t.Fatalf("explicit issuer list must not be augmented: %v", cfg.ValidIssuers)
	}
}

func TestNewValidationConfig_MetadataDefaults(t *testing.T) {
	pub, err := NewValidationConfig(&Settings{Audiences: []string{"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.AzureBotServiceOpenIdMetadataURL != PublicAzureBotServiceOpenIdMetadataURL {
		t.Fatalf("wrong public bot metadata url: %q", pub.AzureBotServiceOpenIdMetadataURL)
	}
	if pub.OpenIdMetadataURL != PublicOpenIdMetadataURL {
		t.Fatalf("wrong public identity metadata url: %q", pub.OpenIdMetadataURL)
	}

	gov, err := NewValidationConfig(&Settings{Audiences: []string{"a"}, IsGov: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gov.AzureBotServiceOpenIdMetadataURL != GovAzureBotServiceOpenIdMetadataURL {
		t.Fatalf("wrong gov bot metadata url: %q", gov.AzureBotServiceOpenIdMetadataURL)
	}
	if gov.OpenIdMetadataURL != GovOpenIdMetadataURL {
		t.Fatalf("wrong gov identity metadata url: %q", gov.OpenIdMetadataURL)
	}

	override, err := NewValidationConfig(&Settings{
		Audiences:         []string{"a"},
		IsGov:             true,
		OpenIdMetadataURL: "https://example.com/meta",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if override.OpenIdMetadataURL != "https://example.com/meta" {
		t.Fatalf("explicit metadata url must win: %q", override.OpenIdMetadataURL)
	}
}

func TestNewValidationConfig_TokenHandlingDefaultTrue(t *testing.T) {
	cfg, err := NewValidationConfig(&Settings{Audiences: []string{"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.AzureBotServiceTokenHandling {
		t.Fatal("AzureBotServiceTokenHandling should default to true")
	}

	off := false
	cfg, err = NewValidationConfig(&Settings{Audiences: []string{"a"}, AzureBotServiceTokenHandling: &off})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AzureBotServiceTokenHandling {
		t.Fatal("explicit false should stick")
	}
}

func TestLoadValidationConfig(t *testing.T) {
	doc := []byte(`
TokenValidation:
  Audiences:
    - api://agent
  TenantId: 11111111-2222-3333-4444-555555555555
  AllowedCallers:
    - app-123
  OpenIdMetadataRefresh: 30m
`)
	cfg, err := LoadValidationConfig(doc, "TokenValidation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audiences[0] != "api://agent" {
		t.Fatalf("audience not loaded: %v", cfg.Audiences)
	}
	if cfg.OpenIdMetadataRefresh != 30*time.Minute {
		t.Fatalf("refresh interval not parsed: %v", cfg.OpenIdMetadataRefresh)
	}
	if len(cfg.ValidIssuers) != len(DefaultValidIssuers())+2 {
		t.Fatalf("tenant augmentation missing: %d issuers", len(cfg.ValidIssuers))
	}
}

func TestLoadValidationConfig_MissingSection(t *testing.T) {
	_, err := LoadValidationConfig([]byte(`Other: {}`), "TokenValidation")
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if ce.Section != "TokenValidation" {
		t.Fatalf("expected section in error, got %q", ce.Section)
	}
}

func TestLoadValidationConfig_MissingAudiences(t *testing.T) {
	doc := []byte(`
TokenValidation:
  TenantId: t
`)
	_, err := LoadValidationConfig(doc, "TokenValidation")
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
