package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/agentauth/core"
)

// DecisionLog persists authentication decisions to Postgres for operator
// review. Writes are single-row inserts; the request path treats them as
// best-effort.
type DecisionLog struct {
	pg     *pgxpool.Pool
	schema string
}

// NewDecisionLog creates a Postgres-backed decision log writing to
// <schema>.auth_events. Schema defaults to "auth".
func NewDecisionLog(pg *pgxpool.Pool, schema string) *DecisionLog {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "auth"
	}
	return &DecisionLog{pg: pg, schema: s}
}

func (l *DecisionLog) table() string { return l.schema + ".auth_events" }

func (l *DecisionLog) LogDecision(ctx context.Context, ev core.DecisionEvent) error {
	if l.pg == nil {
		return nil
	}
	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := l.pg.Exec(ctx,
		`INSERT INTO `+l.table()+` (id, occurred_at, outcome, issuer, caller_id, cause, remote_ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, ts, ev.Outcome, ev.Issuer, ev.CallerID, ev.Cause, ev.RemoteIP, ev.UserAgent)
	return err
}

// PurgeOlderThan deletes events past the retention window and returns how
// many rows were removed.
func (l *DecisionLog) PurgeOlderThan(ctx context.Context, keep time.Duration) (int64, error) {
	if l.pg == nil {
		return 0, nil
	}
	tag, err := l.pg.Exec(ctx,
		`DELETE FROM `+l.table()+` WHERE occurred_at < $1`, time.Now().Add(-keep))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ScheduleRetention registers a nightly purge of events older than keep on
// the given cron runner. The caller owns starting and stopping the runner.
func (l *DecisionLog) ScheduleRetention(c *cron.Cron, keep time.Duration, log *logrus.Logger) (cron.EntryID, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := l.PurgeOlderThan(ctx, keep)
		if err != nil {
			log.WithError(err).Warn("agentauth: auth_events retention purge failed")
			return
		}
		log.WithField("rows", n).Debug(fmt.Sprintf("agentauth: purged %s", l.table()))
	})
}
