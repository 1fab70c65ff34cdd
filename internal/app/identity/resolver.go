package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dayscape/dayscape-backend/internal/domain"
	"github.com/dayscape/dayscape-backend/internal/ports/out/clock"
	"github.com/dayscape/dayscape-backend/internal/ports/out/identityprovider"
	"github.com/dayscape/dayscape-backend/internal/ports/out/userinfocache"
)

// DefaultTTL bounds how long a cached identity-provider response is served.
// Provider tokens expire after ten hours, so anything older is useless.
const DefaultTTL = 10 * time.Hour

// MetricsCollector receives cache outcome counts. Implementations must be
// safe for concurrent use.
type MetricsCollector interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordEntriesPurged(n int)
	RecordUpstreamFailure(statusCode int)
}

type nopMetrics struct{}

func (nopMetrics) RecordCacheHit()           {}
func (nopMetrics) RecordCacheMiss()          {}
func (nopMetrics) RecordEntriesPurged(int)   {}
func (nopMetrics) RecordUpstreamFailure(int) {}

// Resolver answers "who is this token?" while keeping the strictly
// rate-limited identity provider off the per-request path.
//
// The fill path is deliberately check-then-call-then-store without a lock:
// concurrent resolves for the same unseen token may each call upstream and
// each store a row. Losing that race occasionally is cheaper than holding a
// lock across a network call, so no serialization is added here.
type Resolver struct {
	cache    userinfocache.Store
	provider identityprovider.Provider
	clock    clock.Clock
	ttl      time.Duration
	metrics  MetricsCollector
}

func NewResolver(cache userinfocache.Store, provider identityprovider.Provider, clk clock.Clock) *Resolver {
	return &Resolver{
		cache:    cache,
		provider: provider,
		clock:    clk,
		ttl:      DefaultTTL,
		metrics:  nopMetrics{},
	}
}

// SetTTL overrides the cache entry lifetime. Zero or negative values are ignored.
func (r *Resolver) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		r.ttl = ttl
	}
}

// SetMetrics attaches a metrics collector. nil resets to a no-op.
func (r *Resolver) SetMetrics(m MetricsCollector) {
	if m == nil {
		r.metrics = nopMetrics{}
		return
	}
	r.metrics = m
}

// Resolve returns the identity payload for a bearer token.
//
// Each call first sweeps entries older than the TTL, then serves from cache,
// then falls back to the provider and stores the result. The sweep and the
// lookup are not atomic; a just-expired entry slipping through one concurrent
// call is acceptable.
func (r *Resolver) Resolve(ctx context.Context, token string) (json.RawMessage, error) {
	now := r.clock.Now()

	n, err := r.cache.PurgeOlderThan(ctx, now.Add(-r.ttl))
	if err != nil {
		return nil, fmt.Errorf("purge expired userinfo: %w", err)
	}
	if n > 0 {
		r.metrics.RecordEntriesPurged(n)
	}

	e, ok, err := r.cache.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("check userinfo cache: %w", err)
	}
	if ok {
		r.metrics.RecordCacheHit()
		return e.Data, nil
	}
	r.metrics.RecordCacheMiss()

	data, err := r.provider.FetchUserInfo(ctx, token)
	if err != nil {
		var ue *identityprovider.UpstreamError
		if errors.As(err, &ue) {
			r.metrics.RecordUpstreamFailure(ue.StatusCode)
		}
		return nil, err
	}

	if err := r.cache.Put(ctx, userinfocache.Entry{
		Token:     token,
		Data:      data,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("store userinfo: %w", err)
	}
	return data, nil
}

// ResolveSubject resolves the token and extracts the email used as the
// subject identity by every downstream store.
func (r *Resolver) ResolveSubject(ctx context.Context, token string) (domain.SubjectID, json.RawMessage, error) {
	data, err := r.Resolve(ctx, token)
	if err != nil {
		return "", nil, err
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", nil, fmt.Errorf("decode userinfo payload: %w", err)
	}
	if payload.Email == "" {
		return "", nil, ErrMissingEmail
	}
	return domain.SubjectID(payload.Email), data, nil
}
