package data

import (
	"context"

	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// LogNotifier is a notification channel that only logs. Deployments with a
// chat or pager integration replace it behind the biz Notifier interface.
type LogNotifier struct {
	logger *log.Helper
}

// NewLogNotifier creates the log-only notifier.
func NewLogNotifier(logger log.Logger) *LogNotifier {
	return &LogNotifier{logger: log.NewHelper(logger)}
}

// Publish logs the alert at a level matching its severity.
func (n *LogNotifier) Publish(ctx context.Context, alert *model.SystemAlert) error {
	kvs := []interface{}{
		"msg", "alert notification",
		"alert_id", alert.ID,
		"level", alert.Level,
		"source", alert.Source,
		"message", alert.Message,
	}
	if alert.Level == model.AlertCritical {
		n.logger.Errorw(kvs...)
	} else {
		n.logger.Warnw(kvs...)
	}
	return nil
}
