// Package data provides infrastructure adapters around the breaker core:
// the durable audit/alert archive, the redis state mirror, health probers
// and the notification channel.
package data

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewMySQLClient,
	NewStateMirror,
	NewStaticProber,
)

// Data bundles shared infrastructure handles. Both handles are optional:
// a nil redis client disables the mirror and a nil gorm DB disables the
// archive, without affecting the breaker core.
type Data struct {
	redisClient *redis.Client
}

// NewData creates a new Data instance.
func NewData(logger log.Logger, rdb *redis.Client) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if rdb == nil {
		helper.Warn("redis client is nil, state mirror will be unavailable")
	}

	d := &Data{redisClient: rdb}

	cleanup := func() {
		helper.Info("closing the data resources")
	}

	return d, cleanup, nil
}

// RedisClient returns the shared redis client, possibly nil.
func (d *Data) RedisClient() *redis.Client {
	return d.redisClient
}
