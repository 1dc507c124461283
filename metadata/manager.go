// Package metadata resolves and caches signing-key metadata for token
// validation. Each Manager owns one OpenID metadata endpoint: it discovers
// the endpoint's jwks_uri once, then keeps the key set fresh in the
// background for the lifetime of the process.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Document is the subset of an OpenID configuration document needed to
// locate signing keys.
type Document struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// Manager serves current signing keys for a single metadata endpoint URL.
// Managers are created through a Cache and are never destroyed; background
// refresh is owned by the Cache's jwk store.
type Manager struct {
	url     string
	refresh time.Duration
	store   *jwk.Cache
	client  *http.Client

	mu         sync.Mutex
	registered bool
	jwksURI    string
}

func newManager(store *jwk.Cache, client *http.Client, url string, refresh time.Duration) *Manager {
	return &Manager{url: url, refresh: refresh, store: store, client: client}
}

// URL returns the metadata endpoint this manager serves keys for.
func (m *Manager) URL() string { return m.url }

// Keys returns the current signing keys for the endpoint. The first call
// fetches the metadata document and registers its jwks_uri with the shared
// key store; concurrent first-time callers share that work. Registration
// failures are returned and retried on the next call, so a manager with no
// keys yet fails closed. Once registered, refresh runs in the background and
// a failed refresh leaves the last-known-good keys in place.
func (m *Manager) Keys(ctx context.Context) (jwk.Set, error) {
	jwksURI, err := m.ensureRegistered(ctx)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", m.url, err)
	}
	set, err := m.store.Get(ctx, jwksURI)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: keys: %w", m.url, err)
	}
	return set, nil
}

func (m *Manager) ensureRegistered(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered {
		return m.jwksURI, nil
	}

	doc, err := m.fetchDocument(ctx)
	if err != nil {
		return "", err
	}

	opts := []jwk.RegisterOption{jwk.WithHTTPClient(m.client)}
	if m.refresh > 0 {
		opts = append(opts, jwk.WithRefreshInterval(m.refresh))
	}
	if err := m.store.Register(doc.JWKSURI, opts...); err != nil {
		return "", fmt.Errorf("register jwks: %w", err)
	}

	m.jwksURI = doc.JWKSURI
	m.registered = true
	return m.jwksURI, nil
}

func (m *Manager) fetchDocument(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("metadata fetch failed: %s", resp.Status)
	}
	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}
	if doc.JWKSURI == "" {
		return nil, errors.New("metadata document missing jwks_uri")
	}
	return &doc, nil
}
