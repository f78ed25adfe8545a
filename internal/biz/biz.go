// Package biz contains the breaker tree business logic: the registry
// authority, the cascade state machine, trip detection and the bounded
// audit/alert buffers.
package biz

import (
	"SwitchBoard/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewSettings,
	NewBreakerUsecase,
	// Data layer implementations of the biz interfaces
	data.NewCachedProber,
	data.NewLogNotifier,
	data.NewArchive,
	wire.Bind(new(HealthProber), new(*data.CachedProber)),
	wire.Bind(new(Notifier), new(*data.LogNotifier)),
	wire.Bind(new(ArchiveSink), new(*data.Archive)),
)
