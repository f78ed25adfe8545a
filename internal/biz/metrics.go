package biz

import (
	"context"
	"fmt"
	"time"

	"SwitchBoard/internal/model"
)

// ReportError folds one failure into a circuit's error accounting. Crossing
// the trip threshold trips the circuit exactly once; a latency above the
// allowed maximum additionally raises a non-fatal warning alert.
//
// latencyMs < 0 means the caller has no latency measurement.
func (uc *BreakerUsecase) ReportError(ctx context.Context, circuitID, cause string, latencyMs float64) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	c, p := uc.findCircuit(circuitID)
	if c == nil {
		uc.logger.Warnw("msg", "unknown circuit", "circuit", circuitID)
		return false
	}
	uc.reportError(ctx, c, p, cause, latencyMs)
	return true
}

// reportError is the lock-held error path shared with probe failures.
func (uc *BreakerUsecase) reportError(ctx context.Context, c *model.Circuit, p *model.Panel, cause string, latencyMs float64) {
	now := time.Now()
	c.ErrorCount++
	c.RecordOutcome(true)
	c.LastActivity = &now

	if latencyMs >= 0 && latencyMs > c.Latency.MaxAllowedMs {
		uc.raiseAlert(ctx, model.AlertWarning, c.ID,
			fmt.Sprintf("circuit %s latency %.1fms exceeds %.1fms", c.ID, latencyMs, c.Latency.MaxAllowedMs))
	}

	uc.logger.Debugw("msg", "circuit error reported",
		"circuit", c.ID,
		"cause", cause,
		"error_count", c.ErrorCount,
		"error_rate", c.ErrorRate)

	if c.ErrorCount >= c.TripThreshold && c.State != model.StateTripped {
		uc.trip(ctx, c, p, fmt.Sprintf("error threshold reached (%d): %s", c.ErrorCount, cause))
		return
	}

	c.Health = uc.classify(c)
	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
}

// RecordRequest folds one successful request and its latency into a
// circuit's rolling statistics.
func (uc *BreakerUsecase) RecordRequest(ctx context.Context, circuitID string, latencyMs float64) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	c, p := uc.findCircuit(circuitID)
	if c == nil {
		uc.logger.Warnw("msg", "unknown circuit", "circuit", circuitID)
		return false
	}

	now := time.Now()
	c.RecordOutcome(false)
	c.LastActivity = &now
	uc.observeLatency(c, latencyMs)

	c.Health = uc.classify(c)
	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
	return true
}

// observeLatency updates the O(1) rolling estimators. p50 is an EMA; p95
// and p99 are decaying maxima. These are deliberate approximations, not
// true percentiles: they rise immediately on any outlier and decay slowly,
// trading statistical precision for fast tail-latency detection.
func (uc *BreakerUsecase) observeLatency(c *model.Circuit, latencyMs float64) {
	if latencyMs < 0 {
		return
	}
	l := &c.Latency
	l.CurrentMs = latencyMs
	l.P50Ms = l.P50Ms*0.9 + latencyMs*0.1
	l.P95Ms = max(l.P95Ms*0.95, latencyMs)
	l.P99Ms = max(l.P99Ms*0.99, latencyMs)
}

// classify derives a circuit's health from its state and live metrics.
func (uc *BreakerUsecase) classify(c *model.Circuit) model.HealthLevel {
	switch {
	case c.State == model.StateTripped:
		return model.HealthCritical
	case c.State == model.StateOff:
		return model.HealthOffline
	case c.ErrorRate > 0.10 || c.Latency.P95Ms > 2*c.Latency.MaxAllowedMs:
		return model.HealthCritical
	case c.ErrorRate > 0.05 || c.Latency.P95Ms > c.Latency.MaxAllowedMs:
		return model.HealthDegraded
	default:
		return model.HealthHealthy
	}
}
