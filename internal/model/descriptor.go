package model

import "time"

// PanelDescriptor declares a panel at registration time. Position controls
// cascade order; panels are kept sorted by it.
type PanelDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// CircuitDescriptor declares a circuit at registration time. Zero-valued
// tuning fields fall back to the registry defaults.
type CircuitDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`

	// Endpoint is opaque to the registry; it is handed to the health
	// prober unmodified.
	Endpoint string `json:"endpoint,omitempty"`

	TripThreshold    int           `json:"trip_threshold,omitempty"`
	CooldownDuration time.Duration `json:"cooldown_duration,omitempty"`
	MaxLatencyMs     float64       `json:"max_latency_ms,omitempty"`
}

// ProbeResult is the outcome of one health probe against a circuit's
// managed subsystem.
type ProbeResult struct {
	Reachable bool    `json:"reachable"`
	LatencyMs float64 `json:"latency_ms"`
}
