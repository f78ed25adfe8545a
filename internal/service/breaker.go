// Package service exposes the breaker registry operations to the HTTP
// transport, translating the biz layer's attempt-and-check results into
// transport errors.
package service

import (
	"context"

	"SwitchBoard/internal/biz"
	"SwitchBoard/internal/model"
	"SwitchBoard/internal/server/middleware"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// BreakerService wraps the breaker usecase for the admin HTTP surface.
type BreakerService struct {
	uc     *biz.BreakerUsecase
	logger *log.Helper
}

// NewBreakerService creates a new BreakerService instance.
func NewBreakerService(uc *biz.BreakerUsecase, logger log.Logger) *BreakerService {
	return &BreakerService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// actor resolves the audit actor: the operator identity injected by the
// middleware, falling back to "system".
func actor(ctx context.Context) string {
	if op := middleware.OperatorFromContext(ctx); op != "" {
		return op
	}
	return "system"
}

// Ack is the generic mutation reply.
type Ack struct {
	Ok bool `json:"ok"`
}

// MasterRequest carries the optional reason of a master transition.
type MasterRequest struct {
	Reason string `json:"reason,omitempty"`
}

// MasterOn energizes the root switch. Repeating it is a no-op, not an error.
func (s *BreakerService) MasterOn(ctx context.Context, req *MasterRequest) (*Ack, error) {
	changed := s.uc.MasterOn(ctx, actor(ctx))
	s.logger.Infow("msg", "MasterOn called", "actor", actor(ctx), "changed", changed)
	return &Ack{Ok: true}, nil
}

// MasterOff de-energizes the root switch.
func (s *BreakerService) MasterOff(ctx context.Context, req *MasterRequest) (*Ack, error) {
	changed := s.uc.MasterOff(ctx, actor(ctx))
	s.logger.Infow("msg", "MasterOff called", "actor", actor(ctx), "changed", changed)
	return &Ack{Ok: true}, nil
}

// EmergencyShutdown force-trips the whole tree.
func (s *BreakerService) EmergencyShutdown(ctx context.Context, req *MasterRequest) (*Ack, error) {
	reason := req.Reason
	if reason == "" {
		reason = "unspecified"
	}
	s.uc.EmergencyShutdown(ctx, actor(ctx), reason)
	return &Ack{Ok: true}, nil
}

// AddPanelRequest registers a panel.
type AddPanelRequest struct {
	model.PanelDescriptor
}

// AddPanel registers a new panel.
func (s *BreakerService) AddPanel(ctx context.Context, req *AddPanelRequest) (*Ack, error) {
	if !s.uc.AddPanel(ctx, req.PanelDescriptor, actor(ctx)) {
		return nil, errors.BadRequest("PANEL_REJECTED", "panel id missing or already registered")
	}
	return &Ack{Ok: true}, nil
}

// AddCircuitRequest registers a circuit under a panel.
type AddCircuitRequest struct {
	PanelID string `json:"panel_id"`
	model.CircuitDescriptor
}

// AddCircuit registers a new circuit.
func (s *BreakerService) AddCircuit(ctx context.Context, req *AddCircuitRequest) (*Ack, error) {
	if !s.uc.AddCircuit(ctx, req.PanelID, req.CircuitDescriptor, actor(ctx)) {
		return nil, errors.BadRequest("CIRCUIT_REJECTED", "unknown panel, duplicate circuit id, or panel at capacity")
	}
	return &Ack{Ok: true}, nil
}

// SetStateRequest targets one node with "on" or "off".
type SetStateRequest struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

func (r *SetStateRequest) on() (bool, error) {
	switch r.State {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, errors.BadRequest("INVALID_STATE", "state must be \"on\" or \"off\"")
	}
}

// SetPanelState turns a panel on or off.
func (s *BreakerService) SetPanelState(ctx context.Context, req *SetStateRequest) (*Ack, error) {
	on, err := req.on()
	if err != nil {
		return nil, err
	}
	if !s.uc.SetPanelState(ctx, req.ID, on, actor(ctx)) {
		return nil, errors.BadRequest("PANEL_TRANSITION_REJECTED", "panel unknown, locked out, or master is off")
	}
	return &Ack{Ok: true}, nil
}

// SetCircuitState turns a circuit on or off.
func (s *BreakerService) SetCircuitState(ctx context.Context, req *SetStateRequest) (*Ack, error) {
	on, err := req.on()
	if err != nil {
		return nil, err
	}
	if !s.uc.SetCircuitState(ctx, req.ID, on, actor(ctx)) {
		return nil, errors.BadRequest("CIRCUIT_TRANSITION_REJECTED", "circuit unknown, chain not energized, or probe failed")
	}
	return &Ack{Ok: true}, nil
}

// LockoutRequest targets one panel with a reason.
type LockoutRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// LockoutPanel force-trips and locks one panel.
func (s *BreakerService) LockoutPanel(ctx context.Context, req *LockoutRequest) (*Ack, error) {
	reason := req.Reason
	if reason == "" {
		reason = "unspecified"
	}
	if !s.uc.LockoutPanel(ctx, req.ID, actor(ctx), reason) {
		return nil, errors.NotFound("PANEL_NOT_FOUND", "unknown panel")
	}
	return &Ack{Ok: true}, nil
}

// ResetPanelLockout clears a panel lockout.
func (s *BreakerService) ResetPanelLockout(ctx context.Context, req *LockoutRequest) (*Ack, error) {
	if !s.uc.ResetPanelLockout(ctx, req.ID, actor(ctx)) {
		return nil, errors.NotFound("PANEL_NOT_FOUND", "unknown panel")
	}
	return &Ack{Ok: true}, nil
}

// ReportErrorRequest reports one failure against a circuit.
type ReportErrorRequest struct {
	ID        string   `json:"id"`
	Cause     string   `json:"cause,omitempty"`
	LatencyMs *float64 `json:"latency_ms,omitempty"`
}

// ReportError folds a failure into a circuit's error accounting.
func (s *BreakerService) ReportError(ctx context.Context, req *ReportErrorRequest) (*Ack, error) {
	latency := -1.0
	if req.LatencyMs != nil {
		latency = *req.LatencyMs
	}
	cause := req.Cause
	if cause == "" {
		cause = "unspecified"
	}
	if !s.uc.ReportError(ctx, req.ID, cause, latency) {
		return nil, errors.NotFound("CIRCUIT_NOT_FOUND", "unknown circuit")
	}
	return &Ack{Ok: true}, nil
}

// RecordRequestRequest reports one successful request and its latency.
type RecordRequestRequest struct {
	ID        string  `json:"id"`
	LatencyMs float64 `json:"latency_ms"`
}

// RecordRequest folds a request sample into a circuit's statistics.
func (s *BreakerService) RecordRequest(ctx context.Context, req *RecordRequestRequest) (*Ack, error) {
	if !s.uc.RecordRequest(ctx, req.ID, req.LatencyMs) {
		return nil, errors.NotFound("CIRCUIT_NOT_FOUND", "unknown circuit")
	}
	return &Ack{Ok: true}, nil
}

// TripRequest trips one circuit manually.
type TripRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// TripCircuit trips a circuit and arms its auto-reset.
func (s *BreakerService) TripCircuit(ctx context.Context, req *TripRequest) (*Ack, error) {
	reason := req.Reason
	if reason == "" {
		reason = "manual trip"
	}
	if !s.uc.TripCircuit(ctx, req.ID, reason) {
		return nil, errors.BadRequest("TRIP_REJECTED", "circuit unknown or already tripped")
	}
	return &Ack{Ok: true}, nil
}

// ResetCircuit manually resets a circuit, leaving it Off.
func (s *BreakerService) ResetCircuit(ctx context.Context, req *TripRequest) (*Ack, error) {
	if !s.uc.ResetCircuitBreaker(ctx, req.ID, actor(ctx)) {
		return nil, errors.NotFound("CIRCUIT_NOT_FOUND", "unknown circuit")
	}
	return &Ack{Ok: true}, nil
}

// GetRequest addresses one node by path variable.
type GetRequest struct {
	ID string `json:"id"`
}

// GetState returns a deep snapshot of the whole tree.
func (s *BreakerService) GetState(ctx context.Context, _ *GetRequest) (*model.SystemSnapshot, error) {
	return s.uc.GetState(), nil
}

// GetPanel returns one panel.
func (s *BreakerService) GetPanel(ctx context.Context, req *GetRequest) (*model.Panel, error) {
	p := s.uc.GetPanel(req.ID)
	if p == nil {
		return nil, errors.NotFound("PANEL_NOT_FOUND", "unknown panel")
	}
	return p, nil
}

// GetCircuit returns one circuit.
func (s *BreakerService) GetCircuit(ctx context.Context, req *GetRequest) (*model.Circuit, error) {
	c := s.uc.GetCircuit(req.ID)
	if c == nil {
		return nil, errors.NotFound("CIRCUIT_NOT_FOUND", "unknown circuit")
	}
	return c, nil
}

// GetCircuitPanel returns the panel owning the circuit.
func (s *BreakerService) GetCircuitPanel(ctx context.Context, req *GetRequest) (*model.Panel, error) {
	p := s.uc.GetPanelForCircuit(req.ID)
	if p == nil {
		return nil, errors.NotFound("CIRCUIT_NOT_FOUND", "unknown circuit")
	}
	return p, nil
}

// ListRequest bounds a listing.
type ListRequest struct {
	Limit int `json:"limit"`
}

// AlertsReply carries alerts plus the live unacknowledged counters.
type AlertsReply struct {
	Alerts          []*model.SystemAlert `json:"alerts"`
	UnackedSevere   int                  `json:"unacked_severe"`
	UnackedWarnings int                  `json:"unacked_warnings"`
}

// GetAlerts lists recent alerts.
func (s *BreakerService) GetAlerts(ctx context.Context, req *ListRequest) (*AlertsReply, error) {
	severe, warnings := s.uc.UnackedAlertCounts()
	return &AlertsReply{
		Alerts:          s.uc.GetAlerts(req.Limit),
		UnackedSevere:   severe,
		UnackedWarnings: warnings,
	}, nil
}

// AuditReply carries recent audit entries.
type AuditReply struct {
	Entries []*model.AuditEntry `json:"entries"`
}

// GetAuditLog lists recent audit entries.
func (s *BreakerService) GetAuditLog(ctx context.Context, req *ListRequest) (*AuditReply, error) {
	return &AuditReply{Entries: s.uc.GetAuditLog(req.Limit)}, nil
}

// AckAlertRequest acknowledges one alert.
type AckAlertRequest struct {
	ID int64 `json:"id"`
}

// AcknowledgeAlert acknowledges an alert; repeats are no-ops.
func (s *BreakerService) AcknowledgeAlert(ctx context.Context, req *AckAlertRequest) (*Ack, error) {
	return &Ack{Ok: s.uc.AcknowledgeAlert(ctx, req.ID, actor(ctx))}, nil
}
