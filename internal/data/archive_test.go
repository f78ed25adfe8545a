package data

import (
	"context"
	"testing"
	"time"

	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArchive_WithoutDatabase(t *testing.T) {
	a, err := NewArchive(nil, log.DefaultLogger)
	require.NoError(t, err)
	assert.False(t, a.Enabled())

	// Without a database every write is a silent no-op.
	ctx := context.Background()
	assert.NoError(t, a.ArchiveAudit(ctx, []*model.AuditEntry{
		{ID: 1, Timestamp: time.Now(), Actor: "tester", Action: "PANEL_ON", Target: "p1"},
	}))
	assert.NoError(t, a.ArchiveAlerts(ctx, []*model.SystemAlert{
		{ID: 1, Level: model.AlertInfo, Timestamp: time.Now(), Source: "c1", Message: "ok"},
	}))
}

func TestArchiveRecord_TableNames(t *testing.T) {
	assert.Equal(t, "breaker_audit_log", AuditRecord{}.TableName())
	assert.Equal(t, "breaker_alerts", AlertRecord{}.TableName())
}
