package data

import (
	"context"
	"fmt"
	"time"

	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// AuditRecord is the GORM model for archived audit entries.
type AuditRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement;column:id"`
	EntryID       int64     `gorm:"column:entry_id;uniqueIndex;not null"`
	Timestamp     time.Time `gorm:"column:ts;index;not null"`
	Actor         string    `gorm:"column:actor;type:varchar(100);not null"`
	Action        string    `gorm:"column:action;type:varchar(50);not null;index"`
	Target        string    `gorm:"column:target;type:varchar(100);not null;index"`
	PreviousValue string    `gorm:"column:previous_value;type:varchar(50)"`
	NewValue      string    `gorm:"column:new_value;type:varchar(50)"`
}

// TableName specifies the table name for GORM.
func (AuditRecord) TableName() string {
	return "breaker_audit_log"
}

// AlertRecord is the GORM model for archived alerts.
type AlertRecord struct {
	ID             int64      `gorm:"primaryKey;autoIncrement;column:id"`
	AlertID        int64      `gorm:"column:alert_id;uniqueIndex;not null"`
	Level          string     `gorm:"column:level;type:varchar(20);not null;index"`
	Timestamp      time.Time  `gorm:"column:ts;index;not null"`
	Source         string     `gorm:"column:source;type:varchar(100);not null"`
	Message        string     `gorm:"column:message;type:varchar(500);not null"`
	Acknowledged   bool       `gorm:"column:acknowledged;not null"`
	AcknowledgedBy string     `gorm:"column:acknowledged_by;type:varchar(100)"`
	AcknowledgedAt *time.Time `gorm:"column:acknowledged_at"`
}

// TableName specifies the table name for GORM.
func (AlertRecord) TableName() string {
	return "breaker_alerts"
}

// Archive persists audit entries and alerts in batches. With no database
// configured it degrades to a no-op and history stays in-memory only.
type Archive struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewArchive creates the durable archive sink, migrating its tables when a
// database is available.
func NewArchive(db *gorm.DB, logger log.Logger) (*Archive, error) {
	a := &Archive{
		db:     db,
		logger: log.NewHelper(logger),
	}
	if db != nil {
		if err := db.AutoMigrate(&AuditRecord{}, &AlertRecord{}); err != nil {
			return nil, fmt.Errorf("failed to migrate archive tables: %w", err)
		}
	}
	return a, nil
}

// Enabled reports whether a durable backend is configured.
func (a *Archive) Enabled() bool {
	return a.db != nil
}

// ArchiveAudit writes a batch of audit entries.
func (a *Archive) ArchiveAudit(ctx context.Context, entries []*model.AuditEntry) error {
	if a.db == nil || len(entries) == 0 {
		return nil
	}

	records := make([]AuditRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, AuditRecord{
			EntryID:       e.ID,
			Timestamp:     e.Timestamp,
			Actor:         e.Actor,
			Action:        e.Action,
			Target:        e.Target,
			PreviousValue: e.PreviousValue,
			NewValue:      e.NewValue,
		})
	}

	if err := a.db.WithContext(ctx).CreateInBatches(records, 200).Error; err != nil {
		return fmt.Errorf("failed to archive audit entries: %w", err)
	}
	a.logger.Debugw("msg", "audit entries archived", "count", len(records))
	return nil
}

// ArchiveAlerts writes a batch of alerts.
func (a *Archive) ArchiveAlerts(ctx context.Context, alerts []*model.SystemAlert) error {
	if a.db == nil || len(alerts) == 0 {
		return nil
	}

	records := make([]AlertRecord, 0, len(alerts))
	for _, al := range alerts {
		records = append(records, AlertRecord{
			AlertID:        al.ID,
			Level:          string(al.Level),
			Timestamp:      al.Timestamp,
			Source:         al.Source,
			Message:        al.Message,
			Acknowledged:   al.Acknowledged,
			AcknowledgedBy: al.AcknowledgedBy,
			AcknowledgedAt: al.AcknowledgedAt,
		})
	}

	if err := a.db.WithContext(ctx).CreateInBatches(records, 200).Error; err != nil {
		return fmt.Errorf("failed to archive alerts: %w", err)
	}
	a.logger.Debugw("msg", "alerts archived", "count", len(records))
	return nil
}
