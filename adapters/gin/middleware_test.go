package authgin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/agentauth/core"
	"github.com/open-rails/agentauth/metadata"
	memorylimiter "github.com/open-rails/agentauth/ratelimit/memory"
	memorystore "github.com/open-rails/agentauth/storage/memory"
	authtest "github.com/open-rails/agentauth/testing"
)

func testEngine(t *testing.T, issuer *authtest.Issuer, allowedCallers []string, opts ...Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := core.NewValidationConfig(&core.Settings{
		Audiences:                        []string{"api://agent"},
		ValidIssuers:                     []string{issuer.Name(), core.BotFrameworkTokenIssuer},
		OpenIdMetadataURL:                issuer.MetadataURL(),
		AzureBotServiceOpenIdMetadataURL: issuer.MetadataURL(),
		AllowedCallers:                   allowedCallers,
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cache := metadata.NewCache(ctx)

	g := gin.New()
	g.Use(RequireAuth(cache, cfg, opts...))
	g.GET("/messages", func(c *gin.Context) {
		caller := ""
		if p, ok := CurrentPrincipal(c); ok {
			caller = p.CallerID()
		}
		c.JSON(http.StatusOK, gin.H{"caller": caller})
	})
	return g
}

func do(g *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	g.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_ValidTokenAllowedCaller(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	g := testEngine(t, issuer, []string{"app-123"})

	w := do(g, issuer.CreateToken("api://agent", "app-123"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuth_MissingTokenRejected(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	g := testEngine(t, issuer, nil)

	w := do(g, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_AnonymousMode(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	g := testEngine(t, issuer, nil, WithAnonymous())

	// No token passes through unauthenticated.
	if w := do(g, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous request, got %d", w.Code)
	}

	// A presented token is still fully validated.
	if w := do(g, "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token even in anonymous mode, got %d", w.Code)
	}
}

func TestRequireAuth_InvalidTokenRejected(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	g := testEngine(t, issuer, nil)

	w := do(g, issuer.CreateExpiredToken("api://agent", time.Hour))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_CallerNotAllowed(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	g := testEngine(t, issuer, []string{"app-123"})

	w := do(g, issuer.CreateToken("api://agent", "app-999"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAuth_BotIssuerBypassesCallerList(t *testing.T) {
	issuer := authtest.NewIssuerWithName(core.BotFrameworkTokenIssuer)
	defer issuer.Close()
	g := testEngine(t, issuer, []string{"app-123"})

	w := do(g, issuer.CreateToken("api://agent", "not-on-the-list"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for channel-issued token, got %d", w.Code)
	}
}

func TestRequireAuth_AuditTrail(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	sink := memorystore.NewDecisionLog(16)
	g := testEngine(t, issuer, []string{"app-123"}, WithAudit(sink))

	do(g, issuer.CreateToken("api://agent", "app-123"))
	do(g, issuer.CreateToken("api://agent", "app-999"))
	do(g, "")

	events := sink.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	wantOutcomes := []string{core.OutcomeAuthorized, core.OutcomeCallerRejected, core.OutcomeAuthnRejected}
	for i, want := range wantOutcomes {
		if events[i].Outcome != want {
			t.Fatalf("event %d: outcome %q, want %q", i, events[i].Outcome, want)
		}
	}
	if events[0].CallerID != "app-123" {
		t.Fatalf("authorized event missing caller id: %+v", events[0])
	}
	if events[2].Cause != "no_token" {
		t.Fatalf("rejection event missing cause: %+v", events[2])
	}
}

func TestRequireAuth_FailureThrottling(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	limiter := memorylimiter.New(map[string]memorylimiter.Limit{
		"auth_failures": {Limit: 2, Window: time.Minute},
	})
	g := testEngine(t, issuer, nil, WithFailureLimiter(limiter))

	if w := do(g, "bad-token"); w.Code != http.StatusUnauthorized {
		t.Fatalf("first failure: expected 401, got %d", w.Code)
	}
	if w := do(g, "bad-token"); w.Code != http.StatusUnauthorized {
		t.Fatalf("second failure: expected 401, got %d", w.Code)
	}
	if w := do(g, "bad-token"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("third failure: expected 429, got %d", w.Code)
	}
}
