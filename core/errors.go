package core

import "errors"

// ConfigError reports a fatal configuration problem. A process receiving one
// at startup must not serve traffic.
type ConfigError struct {
	Section string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Section != "" {
		return "agentauth: config section " + e.Section + ": " + e.Reason
	}
	return "agentauth: config: " + e.Reason
}

// ErrCallerNotAllowed is the authorization rejection: the caller
// authenticated successfully but is not on the allow-list. Kept distinct
// from authentication errors so adapters can answer 403 rather than 401.
var ErrCallerNotAllowed = errors.New("agentauth: caller not in allow-list")
