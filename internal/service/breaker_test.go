package service

import (
	"context"
	"os"
	"testing"

	"SwitchBoard/internal/biz"
	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okProber struct{}

func (okProber) Probe(ctx context.Context, desc model.CircuitDescriptor) (model.ProbeResult, error) {
	return model.ProbeResult{Reachable: true, LatencyMs: 2}, nil
}

type nopNotifier struct{}

func (nopNotifier) Publish(ctx context.Context, alert *model.SystemAlert) error { return nil }

func newTestService(t *testing.T) *BreakerService {
	t.Helper()
	logger := log.NewStdLogger(os.Stdout)
	uc, _ := biz.NewBreakerUsecase(biz.DefaultSettings(), okProber{}, nopNotifier{}, nil, logger)
	t.Cleanup(uc.Close)
	return NewBreakerService(uc, logger)
}

func seedTree(t *testing.T, s *BreakerService) {
	t.Helper()
	ctx := context.Background()
	_, err := s.AddPanel(ctx, &AddPanelRequest{PanelDescriptor: model.PanelDescriptor{ID: "p1", Name: "Core", Position: 1}})
	require.NoError(t, err)
	_, err = s.AddCircuit(ctx, &AddCircuitRequest{PanelID: "p1", CircuitDescriptor: model.CircuitDescriptor{ID: "c1", Name: "API"}})
	require.NoError(t, err)
}

func TestMasterLifecycle(t *testing.T) {
	s := newTestService(t)
	seedTree(t, s)
	ctx := context.Background()

	_, err := s.MasterOn(ctx, &MasterRequest{})
	require.NoError(t, err)

	snap, err := s.GetState(ctx, &GetRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.StateOn, snap.Master.State)
	assert.Equal(t, model.StatusOptimal, snap.Master.SystemStatus)

	_, err = s.MasterOff(ctx, &MasterRequest{})
	require.NoError(t, err)
	snap, err = s.GetState(ctx, &GetRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.StateOff, snap.Master.State)
}

func TestAddPanel_DuplicateIsBadRequest(t *testing.T) {
	s := newTestService(t)
	seedTree(t, s)

	_, err := s.AddPanel(context.Background(), &AddPanelRequest{PanelDescriptor: model.PanelDescriptor{ID: "p1"}})
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))
}

func TestGetCircuit_UnknownIsNotFound(t *testing.T) {
	s := newTestService(t)
	seedTree(t, s)
	ctx := context.Background()

	c, err := s.GetCircuit(ctx, &GetRequest{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)

	_, err = s.GetCircuit(ctx, &GetRequest{ID: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = s.GetPanel(ctx, &GetRequest{ID: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSetState_ValidatesStateToken(t *testing.T) {
	s := newTestService(t)
	seedTree(t, s)
	ctx := context.Background()

	_, err := s.SetPanelState(ctx, &SetStateRequest{ID: "p1", State: "sideways"})
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))

	// Energizing a panel with the master off is rejected by the chain rule.
	_, err = s.SetPanelState(ctx, &SetStateRequest{ID: "p1", State: "on"})
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))

	_, err = s.MasterOn(ctx, &MasterRequest{})
	require.NoError(t, err)
	_, err = s.SetPanelState(ctx, &SetStateRequest{ID: "p1", State: "on"})
	assert.NoError(t, err)
	_, err = s.SetCircuitState(ctx, &SetStateRequest{ID: "c1", State: "off"})
	assert.NoError(t, err)
}

func TestReportError_TripsThroughService(t *testing.T) {
	s := newTestService(t)
	seedTree(t, s)
	ctx := context.Background()
	_, err := s.MasterOn(ctx, &MasterRequest{})
	require.NoError(t, err)

	latency := 80.0
	for i := 0; i < 5; i++ {
		_, err = s.ReportError(ctx, &ReportErrorRequest{ID: "c1", Cause: "timeout", LatencyMs: &latency})
		require.NoError(t, err)
	}

	c, err := s.GetCircuit(ctx, &GetRequest{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, model.StateTripped, c.State)

	_, err = s.ReportError(ctx, &ReportErrorRequest{ID: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestEmergencyShutdown_AndAlerts(t *testing.T) {
	s := newTestService(t)
	seedTree(t, s)
	ctx := context.Background()
	_, err := s.MasterOn(ctx, &MasterRequest{})
	require.NoError(t, err)

	_, err = s.EmergencyShutdown(ctx, &MasterRequest{Reason: "drill"})
	require.NoError(t, err)

	alerts, err := s.GetAlerts(ctx, &ListRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, alerts.Alerts)
	assert.Equal(t, 1, alerts.UnackedSevere)
	last := alerts.Alerts[len(alerts.Alerts)-1]
	assert.Equal(t, model.AlertCritical, last.Level)

	ack, err := s.AcknowledgeAlert(ctx, &AckAlertRequest{ID: last.ID})
	require.NoError(t, err)
	assert.True(t, ack.Ok)
	ack, err = s.AcknowledgeAlert(ctx, &AckAlertRequest{ID: last.ID})
	require.NoError(t, err)
	assert.False(t, ack.Ok)
}

func TestAuditLog_RecordsActorFromContext(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.AddPanel(ctx, &AddPanelRequest{PanelDescriptor: model.PanelDescriptor{ID: "p1"}})
	require.NoError(t, err)

	audit, err := s.GetAuditLog(ctx, &ListRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, audit.Entries)
	// Without an operator header the actor defaults to "system".
	assert.Equal(t, "system", audit.Entries[0].Actor)
	assert.Equal(t, model.AuditPanelAdded, audit.Entries[0].Action)
}

func TestRecordRequest_UnknownIsNotFound(t *testing.T) {
	s := newTestService(t)
	_, err := s.RecordRequest(context.Background(), &RecordRequestRequest{ID: "ghost", LatencyMs: 10})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
