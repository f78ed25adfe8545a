package biz

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"SwitchBoard/internal/conf"
	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// HealthProber checks whether a circuit's managed subsystem is reachable.
// Implementations live in the data layer; a probe failure is routed through
// the error-reporting path and counts toward the trip threshold.
type HealthProber interface {
	Probe(ctx context.Context, desc model.CircuitDescriptor) (model.ProbeResult, error)
}

// Notifier forwards severe alerts to a human-facing channel.
type Notifier interface {
	Publish(ctx context.Context, alert *model.SystemAlert) error
}

// ArchiveSink persists audit entries and alerts in batches. The in-memory
// ring buffers remain the source of truth for reads; the sink is history.
type ArchiveSink interface {
	ArchiveAudit(ctx context.Context, entries []*model.AuditEntry) error
	ArchiveAlerts(ctx context.Context, alerts []*model.SystemAlert) error
}

// Settings holds the tuning knobs of the breaker tree.
type Settings struct {
	TripThreshold int
	Cooldown      time.Duration
	MaxLatencyMs  float64
	MaxCircuits   int
	ProbeTimeout  time.Duration
	AuditCapacity int
	AlertCapacity int
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		TripThreshold: 5,
		Cooldown:      30 * time.Second,
		MaxLatencyMs:  50,
		MaxCircuits:   50,
		ProbeTimeout:  time.Second,
		AuditCapacity: 10000,
		AlertCapacity: 1000,
	}
}

// NewSettings builds Settings from configuration, falling back to defaults
// for absent values.
func NewSettings(c *conf.Breaker) Settings {
	s := DefaultSettings()
	if c == nil {
		return s
	}
	if c.TripThreshold > 0 {
		s.TripThreshold = int(c.TripThreshold)
	}
	if d := c.Cooldown.AsDuration(); d > 0 {
		s.Cooldown = d
	}
	if c.MaxLatencyMs > 0 {
		s.MaxLatencyMs = c.MaxLatencyMs
	}
	if c.MaxCircuits > 0 {
		s.MaxCircuits = int(c.MaxCircuits)
	}
	if d := c.ProbeTimeout.AsDuration(); d > 0 {
		s.ProbeTimeout = d
	}
	if c.AuditCapacity > 0 {
		s.AuditCapacity = int(c.AuditCapacity)
	}
	if c.AlertCapacity > 0 {
		s.AlertCapacity = int(c.AlertCapacity)
	}
	return s
}

// BreakerUsecase is the single authority over the breaker tree: master
// switch, panels and circuits. Every mutation runs under one mutex so
// cascades are serialized and reads always observe a consistent tree.
//
// It is an explicitly constructed object: tests create isolated instances
// and there is no package-level shared state.
type BreakerUsecase struct {
	mu sync.Mutex

	master   model.MasterSwitch
	panels   []*model.Panel // sorted by declared position
	panelIdx map[string]*model.Panel
	// circuitIdx maps circuit id to owning panel id. Ownership stays with
	// the panel's circuit list; this is a non-owning lookup index.
	circuitIdx map[string]string
	descIdx    map[string]model.CircuitDescriptor

	settings Settings
	timers   *TimerRegistry
	trail    *AuditTrail
	alerts   *AlertSink

	prober   HealthProber
	notifier Notifier
	archive  ArchiveSink

	logger *log.Helper
}

// NewBreakerUsecase creates a breaker tree authority with the master switch
// Off and no panels registered. The returned cleanup cancels every pending
// auto-reset timer.
func NewBreakerUsecase(settings Settings, prober HealthProber, notifier Notifier, archive ArchiveSink, logger log.Logger) (*BreakerUsecase, func()) {
	now := time.Now()
	uc := &BreakerUsecase{
		master: model.MasterSwitch{
			State:           model.StateOff,
			LastStateChange: now,
			StartTime:       now,
			SystemStatus:    model.StatusOffline,
		},
		panelIdx:   make(map[string]*model.Panel),
		circuitIdx: make(map[string]string),
		descIdx:    make(map[string]model.CircuitDescriptor),
		settings:   settings,
		timers:     NewTimerRegistry(logger),
		trail:      NewAuditTrail(settings.AuditCapacity),
		alerts:     NewAlertSink(settings.AlertCapacity),
		prober:     prober,
		notifier:   notifier,
		archive:    archive,
		logger:     log.NewHelper(logger),
	}
	return uc, uc.Close
}

// Close cancels every pending auto-reset timer. The tree stays readable.
func (uc *BreakerUsecase) Close() {
	uc.timers.CancelAll()
}

// AddPanel registers a new panel in Off, unlocked state. The panel list is
// kept sorted by declared position. Duplicate ids are rejected.
func (uc *BreakerUsecase) AddPanel(ctx context.Context, desc model.PanelDescriptor, actor string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if desc.ID == "" {
		uc.logger.Warnw("msg", "rejecting panel with empty id")
		return false
	}
	if _, exists := uc.panelIdx[desc.ID]; exists {
		uc.logger.Warnw("msg", "panel already registered", "panel", desc.ID)
		return false
	}

	p := &model.Panel{
		ID:       desc.ID,
		Name:     desc.Name,
		Position: desc.Position,
		State:    model.StateOff,
		Health:   model.HealthOffline,
	}
	uc.panels = append(uc.panels, p)
	sort.SliceStable(uc.panels, func(i, j int) bool {
		return uc.panels[i].Position < uc.panels[j].Position
	})
	uc.panelIdx[p.ID] = p

	uc.trail.Append(actor, model.AuditPanelAdded, p.ID, "", string(model.StateOff))
	uc.logger.Infow("msg", "panel registered", "panel", p.ID, "position", p.Position)
	return true
}

// AddCircuit registers a new circuit under panelID. It fails when the panel
// is unknown, at capacity, or the circuit id is already taken.
func (uc *BreakerUsecase) AddCircuit(ctx context.Context, panelID string, desc model.CircuitDescriptor, actor string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	p, ok := uc.panelIdx[panelID]
	if !ok {
		uc.logger.Warnw("msg", "unknown panel", "panel", panelID)
		return false
	}
	if desc.ID == "" {
		uc.logger.Warnw("msg", "rejecting circuit with empty id", "panel", panelID)
		return false
	}
	if _, exists := uc.circuitIdx[desc.ID]; exists {
		uc.logger.Warnw("msg", "circuit already registered", "circuit", desc.ID)
		return false
	}
	if len(p.Circuits) >= uc.settings.MaxCircuits {
		uc.logger.Warnw("msg", "panel at capacity", "panel", panelID, "max_circuits", uc.settings.MaxCircuits)
		return false
	}

	threshold := desc.TripThreshold
	if threshold <= 0 {
		threshold = uc.settings.TripThreshold
	}
	cooldown := desc.CooldownDuration
	if cooldown <= 0 {
		cooldown = uc.settings.Cooldown
	}
	maxLatency := desc.MaxLatencyMs
	if maxLatency <= 0 {
		maxLatency = uc.settings.MaxLatencyMs
	}

	c := &model.Circuit{
		ID:               desc.ID,
		Name:             desc.Name,
		Category:         desc.Category,
		State:            model.StateOff,
		Health:           model.HealthOffline,
		TripThreshold:    threshold,
		CooldownDuration: cooldown,
		Latency:          model.LatencyStats{MaxAllowedMs: maxLatency},
	}
	p.Circuits = append(p.Circuits, c)
	p.TotalCircuits = len(p.Circuits)
	uc.circuitIdx[c.ID] = panelID
	uc.descIdx[c.ID] = desc

	uc.trail.Append(actor, model.AuditCircuitAdded, c.ID, "", string(model.StateOff))
	uc.logger.Infow("msg", "circuit registered", "circuit", c.ID, "panel", panelID)
	return true
}

// GetPanel returns a deep copy of the panel, or nil when unknown.
func (uc *BreakerUsecase) GetPanel(id string) *model.Panel {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	p, ok := uc.panelIdx[id]
	if !ok {
		return nil
	}
	return p.Clone()
}

// GetCircuit returns a deep copy of the circuit, or nil when unknown.
func (uc *BreakerUsecase) GetCircuit(id string) *model.Circuit {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	c, _ := uc.findCircuit(id)
	if c == nil {
		return nil
	}
	return c.Clone()
}

// GetPanelForCircuit returns a deep copy of the panel owning the circuit.
func (uc *BreakerUsecase) GetPanelForCircuit(circuitID string) *model.Panel {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	panelID, ok := uc.circuitIdx[circuitID]
	if !ok {
		return nil
	}
	return uc.panelIdx[panelID].Clone()
}

// GetState returns a deep, immutable snapshot of the whole tree. Mutating
// the snapshot never affects live state.
func (uc *BreakerUsecase) GetState() *model.SystemSnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	snap := &model.SystemSnapshot{
		TakenAt: time.Now(),
		Master:  uc.master,
		Panels:  make([]*model.Panel, len(uc.panels)),
	}
	// Report uptime including the running segment.
	if uc.master.State == model.StateOn {
		snap.Master.Uptime += time.Since(uc.master.LastStateChange)
	}
	for i, p := range uc.panels {
		snap.Panels[i] = p.Clone()
	}
	return snap
}

// GetAlerts returns up to limit of the newest alerts, oldest first.
func (uc *BreakerUsecase) GetAlerts(limit int) []*model.SystemAlert {
	return uc.alerts.Alerts(limit)
}

// UnackedAlertCounts returns the live (severe, warning) counters.
func (uc *BreakerUsecase) UnackedAlertCounts() (int, int) {
	return uc.alerts.UnackedCounts()
}

// GetAuditLog returns up to limit of the newest audit entries, oldest first.
func (uc *BreakerUsecase) GetAuditLog(limit int) []*model.AuditEntry {
	return uc.trail.Entries(limit)
}

// AcknowledgeAlert marks an alert acknowledged. Unknown or already
// acknowledged alerts are no-ops.
func (uc *BreakerUsecase) AcknowledgeAlert(ctx context.Context, id int64, actor string) bool {
	if !uc.alerts.Acknowledge(id, actor) {
		return false
	}
	uc.trail.Append(actor, model.AuditAlertAcknowledged, fmt.Sprintf("alert:%d", id), "unacknowledged", "acknowledged")
	return true
}

// FlushArchive pushes unflushed audit entries and alerts to the durable
// sink, if one is configured. Flush failures leave the high-water marks
// untouched so the next flush retries.
func (uc *BreakerUsecase) FlushArchive(ctx context.Context) error {
	if uc.archive == nil {
		return nil
	}

	entries := uc.trail.PendingArchive()
	if len(entries) > 0 {
		if err := uc.archive.ArchiveAudit(ctx, entries); err != nil {
			return fmt.Errorf("archive audit: %w", err)
		}
		uc.trail.MarkArchived(entries[len(entries)-1].ID)
	}

	alerts := uc.alerts.PendingArchive()
	if len(alerts) > 0 {
		if err := uc.archive.ArchiveAlerts(ctx, alerts); err != nil {
			return fmt.Errorf("archive alerts: %w", err)
		}
		uc.alerts.MarkArchived(alerts[len(alerts)-1].ID)
	}
	return nil
}

// findCircuit resolves a circuit and its owning panel. Callers must hold uc.mu.
func (uc *BreakerUsecase) findCircuit(id string) (*model.Circuit, *model.Panel) {
	panelID, ok := uc.circuitIdx[id]
	if !ok {
		return nil, nil
	}
	p := uc.panelIdx[panelID]
	for _, c := range p.Circuits {
		if c.ID == id {
			return c, p
		}
	}
	return nil, nil
}

// raiseAlert records an alert and forwards severe levels to the notifier.
func (uc *BreakerUsecase) raiseAlert(ctx context.Context, level model.AlertLevel, source, message string) {
	a := uc.alerts.Raise(level, source, message)
	if uc.notifier == nil {
		return
	}
	if level == model.AlertAlert || level == model.AlertCritical {
		if err := uc.notifier.Publish(ctx, a); err != nil {
			uc.logger.Warnw("msg", "alert notification failed", "alert_id", a.ID, "error", err)
		}
	}
}
