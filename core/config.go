package core

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the raw shape of a token-validation configuration section as
// provided by the host's configuration source. Key names follow the
// platform's established contract.
type Settings struct {
	Audiences                        []string `yaml:"Audiences"`
	TenantID                         string   `yaml:"TenantId"`
	ValidIssuers                     []string `yaml:"ValidIssuers"`
	AllowedCallers                   []string `yaml:"AllowedCallers"`
	IsGov                            bool     `yaml:"IsGov"`
	AzureBotServiceOpenIdMetadataURL string   `yaml:"AzureBotServiceOpenIdMetadataUrl"`
	OpenIdMetadataURL                string   `yaml:"OpenIdMetadataUrl"`
	AzureBotServiceTokenHandling     *bool    `yaml:"AzureBotServiceTokenHandling"`
	OpenIdMetadataRefresh            string   `yaml:"OpenIdMetadataRefresh"`
}

// ValidationConfig holds the effective token-validation settings. It is
// immutable after construction and shared read-only across requests; nothing
// in the request path may write to it.
type ValidationConfig struct {
	Audiences                        []string
	ValidIssuers                     []string
	AllowedCallers                   []string
	IsGov                            bool
	AzureBotServiceOpenIdMetadataURL string
	OpenIdMetadataURL                string
	AzureBotServiceTokenHandling     bool
	// OpenIdMetadataRefresh of zero defers to the metadata cache's own
	// default refresh schedule.
	OpenIdMetadataRefresh time.Duration
}

// NewValidationConfig computes effective settings from a raw section.
// Audiences are required. When no issuer list is given the built-in list is
// used, augmented with two tenant-scoped issuer URLs if a tenant id is set;
// an explicit issuer list always wins and is never augmented.
func NewValidationConfig(s *Settings) (*ValidationConfig, error) {
	if s == nil {
		return nil, &ConfigError{Reason: "settings are required"}
	}
	if len(s.Audiences) == 0 {
		return nil, &ConfigError{Reason: "at least one audience is required"}
	}

	cfg := &ValidationConfig{
		Audiences:                        append([]string(nil), s.Audiences...),
		AllowedCallers:                   append([]string(nil), s.AllowedCallers...),
		IsGov:                            s.IsGov,
		AzureBotServiceOpenIdMetadataURL: s.AzureBotServiceOpenIdMetadataURL,
		OpenIdMetadataURL:                s.OpenIdMetadataURL,
		AzureBotServiceTokenHandling:     true,
	}

	if len(s.ValidIssuers) > 0 {
		cfg.ValidIssuers = append([]string(nil), s.ValidIssuers...)
	} else {
		cfg.ValidIssuers = DefaultValidIssuers()
		if s.TenantID != "" {
			cfg.ValidIssuers = append(cfg.ValidIssuers,
				fmt.Sprintf(tenantIssuerV1Format, s.TenantID),
				fmt.Sprintf(tenantIssuerV2Format, s.TenantID),
			)
		}
	}

	if cfg.AzureBotServiceOpenIdMetadataURL == "" {
		if cfg.IsGov {
			cfg.AzureBotServiceOpenIdMetadataURL = GovAzureBotServiceOpenIdMetadataURL
		} else {
			cfg.AzureBotServiceOpenIdMetadataURL = PublicAzureBotServiceOpenIdMetadataURL
		}
	}
	if cfg.OpenIdMetadataURL == "" {
		if cfg.IsGov {
			cfg.OpenIdMetadataURL = GovOpenIdMetadataURL
		} else {
			cfg.OpenIdMetadataURL = PublicOpenIdMetadataURL
		}
	}

	if s.AzureBotServiceTokenHandling != nil {
		cfg.AzureBotServiceTokenHandling = *s.AzureBotServiceTokenHandling
	}

	if s.OpenIdMetadataRefresh != "" {
		d, err := time.ParseDuration(s.OpenIdMetadataRefresh)
		if err != nil {
			return nil, &ConfigError{Reason: "invalid OpenIdMetadataRefresh: " + err.Error()}
		}
		cfg.OpenIdMetadataRefresh = d
	}

	return cfg, nil
}

// LoadValidationConfig parses a YAML document whose top level maps section
// names to settings and resolves the named section. A missing section is a
// ConfigError.
func LoadValidationConfig(doc []byte, section string) (*ValidationConfig, error) {
	var sections map[string]*Settings
	if err := yaml.Unmarshal(doc, &sections); err != nil {
		return nil, &ConfigError{Section: section, Reason: "invalid document: " + err.Error()}
	}
	s, ok := sections[section]
	if !ok || s == nil {
		return nil, &ConfigError{Section: section, Reason: "section not found"}
	}
	cfg, err := NewValidationConfig(s)
	if err != nil {
		if ce, isCfg := err.(*ConfigError); isCfg {
			ce.Section = section
		}
		return nil, err
	}
	return cfg, nil
}
