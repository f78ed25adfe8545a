package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SwitchBoard/internal/conf"
	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// Mirror key layout. The mirror is a read-only projection for dashboards
// and sibling processes; the in-process registry stays the sole authority.
const (
	mirrorKeySystem  = "switchboard:state"
	mirrorKeyCircuit = "switchboard:circuit:%s"
)

// circuitMirror is the compact per-circuit projection.
type circuitMirror struct {
	State       model.BreakerState `json:"state"`
	Health      model.HealthLevel  `json:"health"`
	ErrorCount  int                `json:"error_count"`
	TripCount   int                `json:"trip_count"`
	ErrorRate   float64            `json:"error_rate"`
	P95Ms       float64            `json:"p95_ms"`
	NextResetAt *time.Time         `json:"next_reset_at,omitempty"`
}

// StateMirror publishes breaker tree snapshots to redis with a TTL, so a
// stopped publisher leaves no stale state behind.
type StateMirror struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Helper
}

// NewStateMirror creates the redis state mirror. A nil client disables it.
func NewStateMirror(c *conf.Data, d *Data, logger log.Logger) *StateMirror {
	ttl := 60 * time.Second
	if c != nil && c.Redis != nil {
		if d := c.Redis.MirrorTTL.AsDuration(); d > 0 {
			ttl = d
		}
	}
	return &StateMirror{
		rdb:    d.RedisClient(),
		ttl:    ttl,
		logger: log.NewHelper(logger),
	}
}

// Enabled reports whether a redis backend is configured.
func (m *StateMirror) Enabled() bool {
	return m.rdb != nil
}

// Publish writes the full snapshot plus compact per-circuit projections in
// one pipeline. Failures are logged, never propagated to the caller's
// control flow: the mirror is best-effort.
func (m *StateMirror) Publish(ctx context.Context, snap *model.SystemSnapshot) error {
	if m.rdb == nil || snap == nil {
		return nil
	}

	full, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := m.rdb.Pipeline()
	pipe.Set(ctx, mirrorKeySystem, full, m.ttl)
	for _, p := range snap.Panels {
		for _, c := range p.Circuits {
			cm := circuitMirror{
				State:       c.State,
				Health:      c.Health,
				ErrorCount:  c.ErrorCount,
				TripCount:   c.TripCount,
				ErrorRate:   c.ErrorRate,
				P95Ms:       c.Latency.P95Ms,
				NextResetAt: c.NextResetAt,
			}
			raw, err := json.Marshal(cm)
			if err != nil {
				return fmt.Errorf("failed to marshal circuit %s: %w", c.ID, err)
			}
			pipe.Set(ctx, fmt.Sprintf(mirrorKeyCircuit, c.ID), raw, m.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		m.logger.Warnw("msg", "state mirror publish failed (degraded mode)", "error", err)
		return nil
	}

	m.logger.Debugw("msg", "state mirror published", "panels", len(snap.Panels))
	return nil
}

// FetchSystem reads back the last published snapshot. Used by read-only
// consumers; returns nil with no error when nothing is published.
func (m *StateMirror) FetchSystem(ctx context.Context) (*model.SystemSnapshot, error) {
	if m.rdb == nil {
		return nil, nil
	}

	raw, err := m.rdb.Get(ctx, mirrorKeySystem).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch state mirror: %w", err)
	}

	var snap model.SystemSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode state mirror: %w", err)
	}
	return &snap, nil
}
