package memorystore

import (
	"context"
	"sync"

	"github.com/open-rails/agentauth/core"
)

// DecisionLog is an in-memory core.DecisionLogger holding the most recent
// events in a bounded buffer. It is intended for tests and single-node
// development setups.
type DecisionLog struct {
	mu     sync.Mutex
	max    int
	events []core.DecisionEvent
}

// NewDecisionLog creates a log retaining at most max events; older entries
// are discarded first. If max <= 0, a default of 1024 is used.
func NewDecisionLog(max int) *DecisionLog {
	if max <= 0 {
		max = 1024
	}
	return &DecisionLog{max: max}
}

func (l *DecisionLog) LogDecision(ctx context.Context, ev core.DecisionEvent) error {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	if len(l.events) > l.max {
		l.events = l.events[len(l.events)-l.max:]
	}
	return nil
}

// Events returns a snapshot of the retained events, oldest first.
func (l *DecisionLog) Events() []core.DecisionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.DecisionEvent(nil), l.events...)
}
