// Package model holds the breaker tree domain types shared across layers.
package model

import "time"

// BreakerState is the raw switch position of a breaker node.
type BreakerState string

const (
	StateOn      BreakerState = "on"
	StateOff     BreakerState = "off"
	StateTripped BreakerState = "tripped"
)

// HealthLevel is the derived classification of a node, distinct from its
// raw breaker state.
type HealthLevel string

const (
	HealthHealthy  HealthLevel = "healthy"
	HealthDegraded HealthLevel = "degraded"
	HealthCritical HealthLevel = "critical"
	HealthOffline  HealthLevel = "offline"
)

// SystemStatus is the aggregate classification of the whole tree.
type SystemStatus string

const (
	StatusOptimal  SystemStatus = "optimal"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
	StatusOffline  SystemStatus = "offline"
)

// LatencyStats carries the rolling latency estimators for one circuit.
// P50 is an EMA; P95/P99 are decaying maxima. They bias toward fast
// tail-latency detection over statistical precision.
type LatencyStats struct {
	CurrentMs    float64 `json:"current_ms"`
	P50Ms        float64 `json:"p50_ms"`
	P95Ms        float64 `json:"p95_ms"`
	P99Ms        float64 `json:"p99_ms"`
	MaxAllowedMs float64 `json:"max_allowed_ms"`
}

// Circuit is a leaf breaker gating one managed subsystem.
type Circuit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`

	State  BreakerState `json:"state"`
	Health HealthLevel  `json:"health"`

	ErrorCount    int `json:"error_count"`
	TripCount     int `json:"trip_count"`
	TripThreshold int `json:"trip_threshold"`

	CooldownDuration time.Duration `json:"cooldown_duration"`
	LastTripped      *time.Time    `json:"last_tripped,omitempty"`
	LastReset        *time.Time    `json:"last_reset,omitempty"`
	// NextResetAt is non-nil only while State == StateTripped, and only
	// for ordinary trips: emergency and lockout trips schedule nothing.
	NextResetAt *time.Time `json:"next_reset_at,omitempty"`

	Latency      LatencyStats `json:"latency"`
	RequestCount int64        `json:"request_count"`
	errorTotal   int64
	ErrorRate    float64    `json:"error_rate"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// RecordOutcome folds one request outcome into the cumulative error rate.
func (c *Circuit) RecordOutcome(failed bool) {
	c.RequestCount++
	if failed {
		c.errorTotal++
	}
	if c.RequestCount > 0 {
		c.ErrorRate = float64(c.errorTotal) / float64(c.RequestCount)
	}
}

// Panel owns an ordered list of circuits. A circuit belongs to exactly one
// panel; lookups from circuit id back to panel live in the registry index,
// never as a pointer on the circuit.
type Panel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`

	State     BreakerState `json:"state"`
	LockedOut bool         `json:"locked_out"`
	Health    HealthLevel  `json:"health"`

	TripCount   int        `json:"trip_count"`
	LastTripped *time.Time `json:"last_tripped,omitempty"`

	Circuits []*Circuit `json:"circuits"`

	ActiveCircuits int `json:"active_circuits"`
	TotalCircuits  int `json:"total_circuits"`
}

// MasterSwitch is the root breaker. It holds only {On, Off}.
type MasterSwitch struct {
	State             BreakerState  `json:"state"`
	EmergencyShutdown bool          `json:"emergency_shutdown"`
	LastStateChange   time.Time     `json:"last_state_change"`
	StartTime         time.Time     `json:"start_time"`
	Uptime            time.Duration `json:"uptime"`
	PowerCycles       int           `json:"power_cycles"`
	SystemStatus      SystemStatus  `json:"system_status"`
}
