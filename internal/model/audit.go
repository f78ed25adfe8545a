package model

import "time"

// Audit action constants. One audit entry is appended per mutating call.
const (
	AuditMasterOn          = "MASTER_ON"
	AuditMasterOff         = "MASTER_OFF"
	AuditEmergencyShutdown = "EMERGENCY_SHUTDOWN"
	AuditPanelOn           = "PANEL_ON"
	AuditPanelOff          = "PANEL_OFF"
	AuditPanelAdded        = "PANEL_ADDED"
	AuditPanelLockout      = "PANEL_LOCKOUT"
	AuditPanelLockoutReset = "PANEL_LOCKOUT_RESET"
	AuditCircuitAdded      = "CIRCUIT_ADDED"
	AuditCircuitOn         = "CIRCUIT_ON"
	AuditCircuitOff        = "CIRCUIT_OFF"
	AuditCircuitTripped    = "CIRCUIT_TRIPPED"
	AuditCircuitReset      = "CIRCUIT_RESET"
	AuditCircuitAutoReset  = "CIRCUIT_AUTO_RESET"
	AuditAlertAcknowledged = "ALERT_ACKNOWLEDGED"
)

// AuditEntry is an immutable record of one mutating operation.
type AuditEntry struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Actor         string    `json:"actor"`
	Action        string    `json:"action"`
	Target        string    `json:"target"`
	PreviousValue string    `json:"previous_value,omitempty"`
	NewValue      string    `json:"new_value,omitempty"`
}

// AlertLevel is the severity of a system alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertAlert    AlertLevel = "alert"
	AlertCritical AlertLevel = "critical"
)

// SystemAlert is a live operator-facing notification.
type SystemAlert struct {
	ID             int64      `json:"id"`
	Level          AlertLevel `json:"level"`
	Timestamp      time.Time  `json:"timestamp"`
	Source         string     `json:"source"`
	Message        string     `json:"message"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}
