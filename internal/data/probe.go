package data

import (
	"context"
	"time"

	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// prober is the probe contract implemented here and consumed by the biz
// layer's HealthProber interface.
type prober interface {
	Probe(ctx context.Context, desc model.CircuitDescriptor) (model.ProbeResult, error)
}

// StaticProber reports every subsystem reachable with zero latency. It is
// the stand-in wiring until a deployment registers real probes; real
// implementations live with the monitored services, not here.
type StaticProber struct {
	logger *log.Helper
}

// NewStaticProber creates the stand-in prober.
func NewStaticProber(logger log.Logger) *StaticProber {
	return &StaticProber{logger: log.NewHelper(logger)}
}

// Probe implements the probe contract.
func (p *StaticProber) Probe(ctx context.Context, desc model.CircuitDescriptor) (model.ProbeResult, error) {
	select {
	case <-ctx.Done():
		return model.ProbeResult{}, ctx.Err()
	default:
	}
	p.logger.Debugw("msg", "static probe", "circuit", desc.ID, "endpoint", desc.Endpoint)
	return model.ProbeResult{Reachable: true, LatencyMs: 0}, nil
}

// CachedProber decorates a prober with a short-TTL cache of successful
// results, so a cascade that re-energizes many circuits against the same
// subsystem does not hammer it. Failures are never cached.
type CachedProber struct {
	inner  prober
	cache  *expirable.LRU[string, model.ProbeResult]
	logger *log.Helper
}

// NewCachedProber wraps the static prober with a 5 second result cache.
func NewCachedProber(inner *StaticProber, logger log.Logger) *CachedProber {
	return &CachedProber{
		inner:  inner,
		cache:  expirable.NewLRU[string, model.ProbeResult](256, nil, 5*time.Second),
		logger: log.NewHelper(logger),
	}
}

// Probe returns a cached successful result when fresh, delegating otherwise.
func (p *CachedProber) Probe(ctx context.Context, desc model.CircuitDescriptor) (model.ProbeResult, error) {
	if res, ok := p.cache.Get(desc.ID); ok {
		p.logger.Debugw("msg", "probe cache hit", "circuit", desc.ID)
		return res, nil
	}

	res, err := p.inner.Probe(ctx, desc)
	if err != nil {
		return model.ProbeResult{}, err
	}
	if res.Reachable {
		p.cache.Add(desc.ID, res)
	}
	return res, nil
}
