package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"SwitchBoard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCachedProber wraps an arbitrary prober with a short-TTL cache.
func newTestCachedProber(inner prober) *CachedProber {
	return &CachedProber{
		inner:  inner,
		cache:  expirable.NewLRU[string, model.ProbeResult](16, nil, time.Second),
		logger: log.NewHelper(log.DefaultLogger),
	}
}

func TestStaticProber_AlwaysReachable(t *testing.T) {
	p := NewStaticProber(log.DefaultLogger)

	res, err := p.Probe(context.Background(), model.CircuitDescriptor{ID: "c1", Endpoint: "db:3306"})
	require.NoError(t, err)
	assert.True(t, res.Reachable)
}

func TestStaticProber_HonorsCancelledContext(t *testing.T) {
	p := NewStaticProber(log.DefaultLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Probe(ctx, model.CircuitDescriptor{ID: "c1"})
	assert.ErrorIs(t, err, context.Canceled)
}

// countingProber counts delegated probes and returns a scripted result.
type countingProber struct {
	calls int
	res   model.ProbeResult
	err   error
}

func (p *countingProber) Probe(ctx context.Context, desc model.CircuitDescriptor) (model.ProbeResult, error) {
	p.calls++
	return p.res, p.err
}

func TestCachedProber_CachesSuccess(t *testing.T) {
	inner := &countingProber{res: model.ProbeResult{Reachable: true, LatencyMs: 3}}
	p := newTestCachedProber(inner)
	ctx := context.Background()
	desc := model.CircuitDescriptor{ID: "c1"}

	res, err := p.Probe(ctx, desc)
	require.NoError(t, err)
	assert.True(t, res.Reachable)
	assert.Equal(t, 1, inner.calls)

	// Second probe within the TTL hits the cache.
	_, err = p.Probe(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	// A different circuit misses.
	_, err = p.Probe(ctx, model.CircuitDescriptor{ID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProber_NeverCachesFailure(t *testing.T) {
	inner := &countingProber{err: errors.New("unreachable")}
	p := newTestCachedProber(inner)
	ctx := context.Background()
	desc := model.CircuitDescriptor{ID: "c1"}

	_, err := p.Probe(ctx, desc)
	require.Error(t, err)
	_, err = p.Probe(ctx, desc)
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)

	// Unreachable-but-no-error results are not cached either.
	inner.err = nil
	inner.res = model.ProbeResult{Reachable: false}
	_, _ = p.Probe(ctx, desc)
	_, _ = p.Probe(ctx, desc)
	assert.Equal(t, 4, inner.calls)
}
