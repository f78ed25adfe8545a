package main

import (
	"context"
	"time"

	"SwitchBoard/internal/biz"
	"SwitchBoard/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// newMaintenanceCron starts the background maintenance jobs: flushing the
// audit/alert buffers to the archive database once a minute, and mirroring
// the breaker tree snapshot to redis every 15 seconds. Both jobs are no-ops
// when their backing store is not configured.
func newMaintenanceCron(uc *biz.BreakerUsecase, mirror *data.StateMirror, logger log.Logger) (*cron.Cron, func(), error) {
	helper := log.NewHelper(logger)

	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("0 * * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := uc.FlushArchive(ctx); err != nil {
			helper.Errorw("msg", "archive flush failed", "error", err)
		}
	})
	if err != nil {
		return nil, nil, err
	}

	_, err = c.AddFunc("*/15 * * * * *", func() {
		if !mirror.Enabled() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := mirror.Publish(ctx, uc.GetState()); err != nil {
			helper.Errorw("msg", "state mirror publish failed", "error", err)
		}
	})
	if err != nil {
		return nil, nil, err
	}

	c.Start()
	helper.Info("maintenance cron started: archive flush every minute, state mirror every 15s")

	cleanup := func() {
		<-c.Stop().Done()
	}

	return c, cleanup, nil
}
