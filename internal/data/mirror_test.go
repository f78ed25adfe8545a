package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"SwitchBoard/internal/conf"
	"SwitchBoard/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func newMirrorFixture(t *testing.T) (*StateMirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c := &conf.Data{
		Redis: &conf.Data_Redis{
			Addr:         mr.Addr(),
			ReadTimeout:  durationpb.New(200 * time.Millisecond),
			WriteTimeout: durationpb.New(200 * time.Millisecond),
			MirrorTTL:    durationpb.New(30 * time.Second),
		},
	}

	client, cleanup, err := NewRedisClient(c, log.DefaultLogger)
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(cleanup)

	d, dcleanup, err := NewData(log.DefaultLogger, client)
	require.NoError(t, err)
	t.Cleanup(dcleanup)

	return NewStateMirror(c, d, log.DefaultLogger), mr
}

func sampleSnapshot() *model.SystemSnapshot {
	now := time.Now()
	return &model.SystemSnapshot{
		TakenAt: now,
		Master: model.MasterSwitch{
			State:        model.StateOn,
			SystemStatus: model.StatusOptimal,
		},
		Panels: []*model.Panel{
			{
				ID:    "p1",
				State: model.StateOn,
				Circuits: []*model.Circuit{
					{
						ID:        "c1",
						State:     model.StateOn,
						Health:    model.HealthHealthy,
						TripCount: 2,
						Latency:   model.LatencyStats{P95Ms: 12.5, MaxAllowedMs: 50},
					},
				},
			},
		},
	}
}

func TestStateMirror_PublishAndFetch(t *testing.T) {
	mirror, mr := newMirrorFixture(t)
	require.True(t, mirror.Enabled())
	ctx := context.Background()

	require.NoError(t, mirror.Publish(ctx, sampleSnapshot()))

	got, err := mirror.FetchSystem(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StateOn, got.Master.State)
	require.Len(t, got.Panels, 1)
	assert.Equal(t, "c1", got.Panels[0].Circuits[0].ID)

	// The per-circuit projection is written alongside the full snapshot.
	raw, err := mr.Get("switchboard:circuit:c1")
	require.NoError(t, err)
	var cm map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &cm))
	assert.Equal(t, "on", cm["state"])
	assert.InDelta(t, 12.5, cm["p95_ms"].(float64), 1e-9)

	// Keys carry the configured TTL.
	assert.Greater(t, mr.TTL("switchboard:state"), time.Duration(0))
	assert.LessOrEqual(t, mr.TTL("switchboard:state"), 30*time.Second)
}

func TestStateMirror_FetchEmpty(t *testing.T) {
	mirror, _ := newMirrorFixture(t)

	got, err := mirror.FetchSystem(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStateMirror_DisabledIsNoop(t *testing.T) {
	d, cleanup, err := NewData(log.DefaultLogger, nil)
	require.NoError(t, err)
	defer cleanup()

	mirror := NewStateMirror(nil, d, log.DefaultLogger)
	assert.False(t, mirror.Enabled())

	assert.NoError(t, mirror.Publish(context.Background(), sampleSnapshot()))
	got, err := mirror.FetchSystem(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStateMirror_PublishSurvivesRedisOutage(t *testing.T) {
	mirror, mr := newMirrorFixture(t)
	mr.Close()

	// Best-effort: a dead backend is logged, not surfaced.
	assert.NoError(t, mirror.Publish(context.Background(), sampleSnapshot()))
}
