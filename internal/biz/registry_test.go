package biz

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPanel_SortedByPosition(t *testing.T) {
	uc, _ := newTestUsecase(DefaultSettings())
	defer uc.Close()
	ctx := context.Background()

	require.True(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p3", Position: 3}, "tester"))
	require.True(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p1", Position: 1}, "tester"))
	require.True(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p2", Position: 2}, "tester"))

	snap := uc.GetState()
	require.Len(t, snap.Panels, 3)
	assert.Equal(t, "p1", snap.Panels[0].ID)
	assert.Equal(t, "p2", snap.Panels[1].ID)
	assert.Equal(t, "p3", snap.Panels[2].ID)
}

func TestAddPanel_Rejections(t *testing.T) {
	uc, _ := newTestUsecase(DefaultSettings())
	defer uc.Close()
	ctx := context.Background()

	assert.False(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: ""}, "tester"))
	require.True(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p1"}, "tester"))
	assert.False(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p1"}, "tester"))
}

func TestAddCircuit_DefaultsFromSettings(t *testing.T) {
	uc, _ := newTestUsecase(DefaultSettings())
	defer uc.Close()
	ctx := context.Background()
	require.True(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p1"}, "tester"))

	require.True(t, uc.AddCircuit(ctx, "p1", model.CircuitDescriptor{ID: "c1"}, "tester"))

	c := uc.GetCircuit("c1")
	assert.Equal(t, 5, c.TripThreshold)
	assert.Equal(t, 30*time.Second, c.CooldownDuration)
	assert.Equal(t, 50.0, c.Latency.MaxAllowedMs)
	assert.Equal(t, model.StateOff, c.State)
	assert.Equal(t, model.HealthOffline, c.Health)
}

func TestAddCircuit_ExplicitTuning(t *testing.T) {
	uc, _ := newTestUsecase(DefaultSettings())
	defer uc.Close()
	ctx := context.Background()
	require.True(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p1"}, "tester"))

	desc := model.CircuitDescriptor{
		ID:               "c1",
		TripThreshold:    3,
		CooldownDuration: 10 * time.Second,
		MaxLatencyMs:     200,
	}
	require.True(t, uc.AddCircuit(ctx, "p1", desc, "tester"))

	c := uc.GetCircuit("c1")
	assert.Equal(t, 3, c.TripThreshold)
	assert.Equal(t, 10*time.Second, c.CooldownDuration)
	assert.Equal(t, 200.0, c.Latency.MaxAllowedMs)
}

func TestAddCircuit_Rejections(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxCircuits = 2
	uc, _ := newTestUsecase(settings)
	defer uc.Close()
	ctx := context.Background()
	require.True(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p1"}, "tester"))

	assert.False(t, uc.AddCircuit(ctx, "ghost", model.CircuitDescriptor{ID: "c1"}, "tester"))
	assert.False(t, uc.AddCircuit(ctx, "p1", model.CircuitDescriptor{ID: ""}, "tester"))

	require.True(t, uc.AddCircuit(ctx, "p1", model.CircuitDescriptor{ID: "c1"}, "tester"))
	assert.False(t, uc.AddCircuit(ctx, "p1", model.CircuitDescriptor{ID: "c1"}, "tester"))

	require.True(t, uc.AddCircuit(ctx, "p1", model.CircuitDescriptor{ID: "c2"}, "tester"))
	// Panel at capacity.
	assert.False(t, uc.AddCircuit(ctx, "p1", model.CircuitDescriptor{ID: "c3"}, "tester"))
}

func TestGetters_ReturnDeepCopies(t *testing.T) {
	uc, _ := newTestUsecase(DefaultSettings())
	defer uc.Close()
	buildTree(t, uc)

	assert.Nil(t, uc.GetPanel("ghost"))
	assert.Nil(t, uc.GetCircuit("ghost"))
	assert.Nil(t, uc.GetPanelForCircuit("ghost"))

	c := uc.GetCircuit("c1")
	c.ErrorCount = 99
	assert.Equal(t, 0, uc.GetCircuit("c1").ErrorCount)

	p := uc.GetPanelForCircuit("c1")
	require.NotNil(t, p)
	assert.Equal(t, "p1", p.ID)
	p.Circuits[0].State = model.StateTripped
	assert.Equal(t, model.StateOff, uc.GetCircuit("c1").State)
}

func TestAcknowledgeAlert_Audited(t *testing.T) {
	uc, _ := newTestUsecase(DefaultSettings())
	defer uc.Close()
	buildTree(t, uc)
	ctx := context.Background()
	require.True(t, uc.MasterOn(ctx, "tester"))
	require.True(t, uc.LockoutPanel(ctx, "p1", "tester", "maintenance"))

	alerts := uc.GetAlerts(0)
	require.NotEmpty(t, alerts)
	id := alerts[len(alerts)-1].ID

	before := len(uc.GetAuditLog(0))
	assert.True(t, uc.AcknowledgeAlert(ctx, id, "alice"))
	assert.Len(t, uc.GetAuditLog(0), before+1)

	// Repeats and unknown ids leave the audit log untouched.
	assert.False(t, uc.AcknowledgeAlert(ctx, id, "bob"))
	assert.False(t, uc.AcknowledgeAlert(ctx, 9999, "alice"))
	assert.Len(t, uc.GetAuditLog(0), before+1)
}

func TestFlushArchive_BatchesOnce(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	archive := &stubArchive{}
	uc, _ := NewBreakerUsecase(DefaultSettings(), &stubProber{}, &stubNotifier{}, archive, logger)
	defer uc.Close()
	buildTree(t, uc)
	ctx := context.Background()
	require.True(t, uc.MasterOn(ctx, "tester"))

	require.NoError(t, uc.FlushArchive(ctx))
	require.Len(t, archive.auditBatches, 1)
	first := len(archive.auditBatches[0])
	assert.Greater(t, first, 0)

	// Nothing new: the second flush sends nothing.
	require.NoError(t, uc.FlushArchive(ctx))
	assert.Len(t, archive.auditBatches, 1)

	require.True(t, uc.MasterOff(ctx, "tester"))
	require.NoError(t, uc.FlushArchive(ctx))
	require.Len(t, archive.auditBatches, 2)
}

func TestFlushArchive_RetriesAfterFailure(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	archive := &stubArchive{err: errors.New("db unavailable")}
	uc, _ := NewBreakerUsecase(DefaultSettings(), &stubProber{}, &stubNotifier{}, archive, logger)
	defer uc.Close()
	buildTree(t, uc)
	ctx := context.Background()

	require.Error(t, uc.FlushArchive(ctx))

	// The high-water mark did not advance; a later flush delivers everything.
	archive.err = nil
	require.NoError(t, uc.FlushArchive(ctx))
	require.Len(t, archive.auditBatches, 1)
	assert.Len(t, archive.auditBatches[0], len(uc.GetAuditLog(0)))
}

func TestNewBreakerUsecase_CleanupCancelsTimers(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	uc, cleanup := NewBreakerUsecase(DefaultSettings(), &stubProber{}, &stubNotifier{}, nil, logger)
	ctx := context.Background()
	require.True(t, uc.AddPanel(ctx, model.PanelDescriptor{ID: "p1", Position: 1}, "tester"))
	require.True(t, uc.AddCircuit(ctx, "p1", model.CircuitDescriptor{ID: "c1", CooldownDuration: 20 * time.Millisecond}, "tester"))
	require.True(t, uc.MasterOn(ctx, "tester"))
	require.True(t, uc.TripCircuit(ctx, "c1", "drill"))
	assert.Equal(t, 1, uc.timers.Active())

	cleanup()

	assert.Equal(t, 0, uc.timers.Active())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, model.StateTripped, uc.GetCircuit("c1").State)
}

func TestGetState_IncludesRunningUptime(t *testing.T) {
	uc, _ := newTestUsecase(DefaultSettings())
	defer uc.Close()
	buildTree(t, uc)
	ctx := context.Background()

	assert.Zero(t, uc.GetState().Master.Uptime)

	require.True(t, uc.MasterOn(ctx, "tester"))
	time.Sleep(20 * time.Millisecond)
	assert.GreaterOrEqual(t, uc.GetState().Master.Uptime, 20*time.Millisecond)
}
