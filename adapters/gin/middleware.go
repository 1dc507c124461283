// Package authgin adapts the token authentication pipeline to gin. The
// middleware runs the full per-request flow: issuer routing, signature and
// claims validation, then the caller allow-list, and exposes the resulting
// principal to handlers.
package authgin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/agentauth/core"
	"github.com/open-rails/agentauth/metadata"
	"github.com/open-rails/agentauth/tokens"
)

const principalKey = "agentauth.principal"

// failureBucket names the rate-limit bucket for failed authentications.
const failureBucket = "auth_failures"

// RateLimiter throttles repeated authentication failures per source.
// AllowNamed records an attempt against bucket/key and reports whether it is
// still within limits.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

type options struct {
	allowAnonymous bool
	log            *logrus.Logger
	audit          core.DecisionLogger
	limiter        RateLimiter
}

// Option configures the middleware.
type Option func(*options)

// WithAnonymous lets requests without an Authorization header through
// unauthenticated. Requests that do present a token are still fully
// validated and rejected on failure.
func WithAnonymous() Option {
	return func(o *options) { o.allowAnonymous = true }
}

// WithLogger sets the logger for rejection causes. Raw tokens are never
// logged.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithAudit records terminal pipeline outcomes to the given sink,
// best-effort.
func WithAudit(sink core.DecisionLogger) Option {
	return func(o *options) { o.audit = sink }
}

// WithFailureLimiter throttles repeated authentication failures per client
// IP; once a source exceeds its bucket the middleware answers 429 instead of
// 401.
func WithFailureLimiter(rl RateLimiter) Option {
	return func(o *options) { o.limiter = rl }
}

// RequireAuth authenticates and authorizes every request passing through it.
// cfg is shared read-only across requests; the metadata manager selection is
// per-request state that never touches cfg.
func RequireAuth(cache *metadata.Cache, cfg *core.ValidationConfig, opts ...Option) gin.HandlerFunc {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, hasToken := tokens.BearerToken(header)

		if !hasToken {
			if o.allowAnonymous {
				o.record(c, core.DecisionEvent{Outcome: core.OutcomeAnonymousAllowed})
				c.Next()
				return
			}
			o.rejectAuthn(c, tokens.ErrNoToken, "")
			return
		}

		mgr, _ := tokens.SelectManager(cache, cfg, header)
		principal, err := tokens.Validate(c.Request.Context(), raw, mgr, cfg)
		if err != nil {
			o.rejectAuthn(c, err, mgr.URL())
			return
		}

		decision := core.AuthorizeCaller(principal, cfg)
		if !decision.Allowed {
			o.log.WithFields(logrus.Fields{
				"issuer": principal.Issuer(),
				"caller": decision.CallerID,
			}).Warn("agentauth: caller not allowed")
			o.record(c, core.DecisionEvent{
				Outcome:  core.OutcomeCallerRejected,
				Issuer:   principal.Issuer(),
				CallerID: decision.CallerID,
				Cause:    "caller_not_allowed",
			})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(principalKey, principal)
		o.record(c, core.DecisionEvent{
			Outcome:  core.OutcomeAuthorized,
			Issuer:   principal.Issuer(),
			CallerID: decision.CallerID,
		})
		c.Next()
	}
}

// CurrentPrincipal returns the authenticated principal set by RequireAuth,
// if any.
func CurrentPrincipal(c *gin.Context) (*core.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*core.Principal)
	return p, ok && p != nil
}

func (o *options) rejectAuthn(c *gin.Context, err error, metadataURL string) {
	cause := tokens.AuthCause(err)
	fields := logrus.Fields{"cause": cause, "ip": c.ClientIP()}
	if metadataURL != "" {
		fields["metadata"] = metadataURL
	}
	o.log.WithFields(fields).Warn("agentauth: authentication rejected")
	o.record(c, core.DecisionEvent{Outcome: core.OutcomeAuthnRejected, Cause: cause})

	if o.limiter != nil {
		allowed, lerr := o.limiter.AllowNamed(failureBucket, c.ClientIP())
		if lerr == nil && !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func (o *options) record(c *gin.Context, ev core.DecisionEvent) {
	if o.audit == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.Time = time.Now()
	ev.RemoteIP = c.ClientIP()
	ev.UserAgent = c.Request.UserAgent()
	// Best-effort; the request outcome never depends on the sink.
	_ = o.audit.LogDecision(c.Request.Context(), ev)
}
