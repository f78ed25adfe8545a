package biz

import (
	"context"
	"fmt"
	"time"

	"SwitchBoard/internal/model"
)

// MasterOn energizes the root switch and cascades on to every panel in
// position order. Calling it while already On is a strict no-op: no audit
// entry, no power-cycle increment. Returns true when a transition happened.
func (uc *BreakerUsecase) MasterOn(ctx context.Context, actor string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.master.State == model.StateOn {
		return false
	}

	uc.master.State = model.StateOn
	uc.master.LastStateChange = time.Now()
	uc.master.PowerCycles++
	uc.master.EmergencyShutdown = false

	for _, p := range uc.panels {
		uc.setPanelState(ctx, p, true, actor)
	}

	uc.recomputeSystemStatus()
	uc.trail.Append(actor, model.AuditMasterOn, "master", string(model.StateOff), string(model.StateOn))
	uc.logger.Infow("msg", "master switch on", "actor", actor, "power_cycles", uc.master.PowerCycles)
	return true
}

// MasterOff de-energizes the root switch and cascades off to every panel.
// Locked-out panels are skipped; they stay Tripped until explicitly reset.
func (uc *BreakerUsecase) MasterOff(ctx context.Context, actor string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.master.State == model.StateOff {
		return false
	}

	uc.master.Uptime += time.Since(uc.master.LastStateChange)
	uc.master.State = model.StateOff
	uc.master.LastStateChange = time.Now()

	for _, p := range uc.panels {
		uc.setPanelState(ctx, p, false, actor)
	}

	uc.master.SystemStatus = model.StatusOffline
	uc.trail.Append(actor, model.AuditMasterOff, "master", string(model.StateOn), string(model.StateOff))
	uc.logger.Infow("msg", "master switch off", "actor", actor, "uptime", uc.master.Uptime)
	return true
}

// EmergencyShutdown forces every panel and circuit directly to Tripped in
// one synchronous pass, bypassing the normal trip path: no auto-reset is
// scheduled and every pending timer is cancelled. Recovery is strictly
// manual. This is unconditional; it succeeds from any state.
func (uc *BreakerUsecase) EmergencyShutdown(ctx context.Context, actor, reason string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	// Emergency paths must not depend on timers.
	uc.timers.CancelAll()

	prevMaster := uc.master.State
	now := time.Now()
	for _, p := range uc.panels {
		p.State = model.StateTripped
		p.TripCount++
		p.LastTripped = &now
		for _, c := range p.Circuits {
			c.State = model.StateTripped
			c.TripCount++
			c.LastTripped = &now
			c.NextResetAt = nil
			c.Health = model.HealthCritical
		}
		uc.recomputePanelHealth(p)
	}

	if uc.master.State == model.StateOn {
		uc.master.Uptime += time.Since(uc.master.LastStateChange)
	}
	uc.master.State = model.StateOff
	uc.master.LastStateChange = now
	uc.master.EmergencyShutdown = true
	uc.master.SystemStatus = model.StatusCritical

	uc.raiseAlert(ctx, model.AlertCritical, "master", fmt.Sprintf("emergency shutdown: %s", reason))
	uc.trail.Append(actor, model.AuditEmergencyShutdown, "master", string(prevMaster), string(model.StateTripped))
	uc.logger.Errorw("msg", "emergency shutdown", "actor", actor, "reason", reason)
}

// SetPanelState turns a panel on or off, cascading the same target to every
// owned circuit. It fails when the panel is unknown, locked out, or when
// energizing while the master switch is not On.
func (uc *BreakerUsecase) SetPanelState(ctx context.Context, panelID string, on bool, actor string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	p, ok := uc.panelIdx[panelID]
	if !ok {
		uc.logger.Warnw("msg", "unknown panel", "panel", panelID)
		return false
	}
	return uc.setPanelState(ctx, p, on, actor)
}

// setPanelState is the lock-held panel transition shared by the public
// operation and the master cascade.
func (uc *BreakerUsecase) setPanelState(ctx context.Context, p *model.Panel, on bool, actor string) bool {
	if p.LockedOut {
		uc.logger.Warnw("msg", "panel is locked out", "panel", p.ID)
		return false
	}
	if on && uc.master.State != model.StateOn {
		uc.logger.Warnw("msg", "cannot energize panel while master is off", "panel", p.ID)
		return false
	}

	prev := p.State
	action := model.AuditPanelOff
	if on {
		p.State = model.StateOn
		action = model.AuditPanelOn
	} else {
		p.State = model.StateOff
	}

	for _, c := range p.Circuits {
		uc.setCircuitState(ctx, c, p, on, actor)
	}

	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
	uc.trail.Append(actor, action, p.ID, string(prev), string(p.State))
	return true
}

// SetCircuitState turns one circuit on or off. Turning off is always
// permitted; turning on requires the full master→panel→circuit chain to be
// enabled and runs one health probe before declaring health.
func (uc *BreakerUsecase) SetCircuitState(ctx context.Context, circuitID string, on bool, actor string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	c, p := uc.findCircuit(circuitID)
	if c == nil {
		uc.logger.Warnw("msg", "unknown circuit", "circuit", circuitID)
		return false
	}
	ok := uc.setCircuitState(ctx, c, p, on, actor)
	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
	return ok
}

// setCircuitState is the lock-held circuit transition shared by the public
// operation, panel cascades and auto-reset re-energization.
func (uc *BreakerUsecase) setCircuitState(ctx context.Context, c *model.Circuit, p *model.Panel, on bool, actor string) bool {
	prev := c.State

	if !on {
		// De-energizing never needs the chain check.
		uc.timers.Cancel(c.ID)
		if prev == model.StateOff {
			return true
		}
		c.State = model.StateOff
		c.NextResetAt = nil
		c.Health = model.HealthOffline
		uc.trail.Append(actor, model.AuditCircuitOff, c.ID, string(prev), string(c.State))
		return true
	}

	if prev == model.StateOn {
		return true
	}

	if uc.master.State != model.StateOn {
		uc.logger.Warnw("msg", "cannot energize circuit while master is off", "circuit", c.ID)
		return false
	}
	if p.State != model.StateOn || p.LockedOut {
		uc.logger.Warnw("msg", "cannot energize circuit while panel is off or locked", "circuit", c.ID, "panel", p.ID)
		return false
	}

	// One health probe before declaring health. The probe runs under the
	// tree lock with a bounded timeout so a hung subsystem stalls only
	// this cascade, briefly.
	if uc.prober != nil {
		pctx, cancel := context.WithTimeout(ctx, uc.settings.ProbeTimeout)
		res, err := uc.prober.Probe(pctx, uc.descIdx[c.ID])
		cancel()
		if err != nil || !res.Reachable {
			cause := "health probe unreachable"
			if err != nil {
				cause = fmt.Sprintf("health probe failed: %v", err)
			}
			uc.reportError(ctx, c, p, cause, -1)
			return false
		}
		uc.observeLatency(c, res.LatencyMs)
	}

	uc.timers.Cancel(c.ID)
	now := time.Now()
	c.State = model.StateOn
	c.NextResetAt = nil
	c.LastActivity = &now
	c.Health = uc.classify(c)
	uc.trail.Append(actor, model.AuditCircuitOn, c.ID, string(prev), string(c.State))
	return true
}

// LockoutPanel force-trips one panel and all its circuits and sets the
// sticky lockout flag. No auto-reset is scheduled; only ResetPanelLockout
// clears the flag.
func (uc *BreakerUsecase) LockoutPanel(ctx context.Context, panelID, actor, reason string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	p, ok := uc.panelIdx[panelID]
	if !ok {
		uc.logger.Warnw("msg", "unknown panel", "panel", panelID)
		return false
	}

	now := time.Now()
	prev := p.State
	p.State = model.StateTripped
	p.LockedOut = true
	p.TripCount++
	p.LastTripped = &now
	for _, c := range p.Circuits {
		uc.timers.Cancel(c.ID)
		c.State = model.StateTripped
		c.TripCount++
		c.LastTripped = &now
		c.NextResetAt = nil
		c.Health = model.HealthCritical
	}

	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
	uc.raiseAlert(ctx, model.AlertAlert, p.ID, fmt.Sprintf("panel %s locked out: %s", p.ID, reason))
	uc.trail.Append(actor, model.AuditPanelLockout, p.ID, string(prev), string(model.StateTripped))
	uc.logger.Warnw("msg", "panel locked out", "panel", p.ID, "actor", actor, "reason", reason)
	return true
}

// ResetPanelLockout clears the lockout flag, resets every child circuit via
// the manual-reset path and leaves the panel Off: ready, not re-energized.
func (uc *BreakerUsecase) ResetPanelLockout(ctx context.Context, panelID, actor string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	p, ok := uc.panelIdx[panelID]
	if !ok {
		uc.logger.Warnw("msg", "unknown panel", "panel", panelID)
		return false
	}

	prev := p.State
	for _, c := range p.Circuits {
		uc.resetCircuit(c, actor, model.AuditCircuitReset)
	}
	p.LockedOut = false
	p.State = model.StateOff

	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
	uc.raiseAlert(ctx, model.AlertInfo, p.ID, fmt.Sprintf("panel %s lockout cleared", p.ID))
	uc.trail.Append(actor, model.AuditPanelLockoutReset, p.ID, string(prev), string(model.StateOff))
	uc.logger.Infow("msg", "panel lockout reset", "panel", p.ID, "actor", actor)
	return true
}

// TripCircuit trips one circuit and arms its auto-reset timer. Tripping an
// already-Tripped circuit is a no-op.
func (uc *BreakerUsecase) TripCircuit(ctx context.Context, circuitID, reason string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	c, p := uc.findCircuit(circuitID)
	if c == nil {
		uc.logger.Warnw("msg", "unknown circuit", "circuit", circuitID)
		return false
	}
	if c.State == model.StateTripped {
		return false
	}
	uc.trip(ctx, c, p, reason)
	return true
}

// trip is the ordinary (self-healing) trip path: Tripped state, armed
// auto-reset, alert and audit. Callers must hold uc.mu.
func (uc *BreakerUsecase) trip(ctx context.Context, c *model.Circuit, p *model.Panel, reason string) {
	now := time.Now()
	prev := c.State
	resetAt := now.Add(c.CooldownDuration)

	c.State = model.StateTripped
	c.TripCount++
	c.LastTripped = &now
	c.NextResetAt = &resetAt
	c.Health = model.HealthCritical

	id := c.ID
	uc.timers.Schedule(id, c.CooldownDuration, func() {
		uc.autoReset(id)
	})

	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
	uc.raiseAlert(ctx, model.AlertAlert, c.ID, fmt.Sprintf("circuit %s tripped: %s", c.ID, reason))
	uc.trail.Append("system", model.AuditCircuitTripped, c.ID, string(prev), string(model.StateTripped))
	uc.logger.Warnw("msg", "circuit tripped", "circuit", c.ID, "reason", reason, "trip_count", c.TripCount, "next_reset_at", resetAt)
}

// ResetCircuitBreaker manually resets a tripped circuit, cancelling any
// pending auto-reset first. The circuit is left Off; re-energizing is the
// operator's explicit next step.
func (uc *BreakerUsecase) ResetCircuitBreaker(ctx context.Context, circuitID, actor string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	c, p := uc.findCircuit(circuitID)
	if c == nil {
		uc.logger.Warnw("msg", "unknown circuit", "circuit", circuitID)
		return false
	}

	uc.resetCircuit(c, actor, model.AuditCircuitReset)
	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
	uc.logger.Infow("msg", "circuit manually reset", "circuit", c.ID, "actor", actor)
	return true
}

// resetCircuit performs the shared state reset of the manual and automatic
// paths: cancel pending timer, Off, error count cleared, reset stamped.
// Callers must hold uc.mu.
func (uc *BreakerUsecase) resetCircuit(c *model.Circuit, actor, action string) {
	uc.timers.Cancel(c.ID)

	now := time.Now()
	prev := c.State
	c.State = model.StateOff
	c.ErrorCount = 0
	c.LastReset = &now
	c.NextResetAt = nil
	c.Health = model.HealthOffline

	uc.trail.Append(actor, action, c.ID, string(prev), string(model.StateOff))
}

// autoReset is the timer callback armed by trip. It re-checks state under
// the lock: a circuit that is no longer Tripped (manually reset or turned
// off meanwhile) is left alone.
func (uc *BreakerUsecase) autoReset(circuitID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	c, p := uc.findCircuit(circuitID)
	if c == nil || c.State != model.StateTripped {
		return
	}

	ctx := context.Background()
	uc.resetCircuit(c, "system", model.AuditCircuitAutoReset)
	uc.raiseAlert(ctx, model.AlertInfo, c.ID, fmt.Sprintf("circuit %s auto-reset after cooldown", c.ID))
	uc.logger.Infow("msg", "circuit auto-reset", "circuit", c.ID)

	// Attempt re-energization when the chain above is live, including a
	// fresh health probe.
	if uc.master.State == model.StateOn && p.State == model.StateOn && !p.LockedOut {
		uc.setCircuitState(ctx, c, p, true, "system")
	}

	uc.recomputePanelHealth(p)
	uc.recomputeSystemStatus()
}

// recomputePanelHealth refreshes a panel's aggregated health and circuit
// counts from its children. Callers must hold uc.mu.
func (uc *BreakerUsecase) recomputePanelHealth(p *model.Panel) {
	active, healthy, critical := 0, 0, 0
	for _, c := range p.Circuits {
		if c.State == model.StateOn {
			active++
			if c.Health == model.HealthHealthy {
				healthy++
			}
		}
		if c.Health == model.HealthCritical {
			critical++
		}
	}
	p.ActiveCircuits = active
	p.TotalCircuits = len(p.Circuits)

	switch {
	case p.State != model.StateOn || p.LockedOut:
		p.Health = model.HealthOffline
	case critical > 0:
		p.Health = model.HealthCritical
	case healthy < active:
		p.Health = model.HealthDegraded
	default:
		p.Health = model.HealthHealthy
	}
}

// recomputeSystemStatus refreshes the aggregate status from the panels.
// Callers must hold uc.mu.
func (uc *BreakerUsecase) recomputeSystemStatus() {
	if uc.master.State != model.StateOn {
		uc.master.SystemStatus = model.StatusOffline
		return
	}
	if uc.master.EmergencyShutdown {
		uc.master.SystemStatus = model.StatusCritical
		return
	}

	on, healthy := 0, 0
	for _, p := range uc.panels {
		if p.Health == model.HealthCritical {
			uc.master.SystemStatus = model.StatusCritical
			return
		}
		if p.State == model.StateOn {
			on++
			if p.Health == model.HealthHealthy {
				healthy++
			}
		}
	}
	if healthy < on {
		uc.master.SystemStatus = model.StatusDegraded
		return
	}
	uc.master.SystemStatus = model.StatusOptimal
}
