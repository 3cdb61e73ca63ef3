package geocode

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/yourorg/doctor-finder/internal/redisx"
)

// ErrNotFound is the definitive "no address for these coordinates" result. It
// is cached permanently, unlike transient lookup failures.
var ErrNotFound = errors.New("address not found")

// Redis value marking a cached not-found; coordinates are immutable identity,
// so the marker never expires either.
const notFoundMarker = "\x00notfound"

// Key is the cache key for a coordinate pair: the exact textual join of the
// two values, not rounded.
func Key(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

type entry struct {
	addr     string
	notFound bool
}

// Options tunes the resolver. RPS caps outstanding lookups against the
// upstream quota; Redis, when set, makes the cache survive restarts.
type Options struct {
	RPS   float64
	Burst int
	Redis *redisx.Client
}

// Resolver is a cache-first, de-duplicating reverse geocoder. The first caller
// for a key performs the lookup; concurrent callers for the same key share the
// in-flight result. Successes and definitive not-founds are cached for the
// process lifetime and never evicted.
type Resolver struct {
	geo     Geocoder
	limiter *rate.Limiter
	group   singleflight.Group
	redis   *redisx.Client

	mu  sync.RWMutex
	mem map[string]entry
}

func NewResolver(geo Geocoder, opts Options) *Resolver {
	rps := opts.RPS
	if rps <= 0 {
		rps = 10
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 2
	}
	return &Resolver{
		geo:     geo,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		redis:   opts.Redis,
		mem:     make(map[string]entry),
	}
}

// Resolve returns the address for (lat, lng), or ErrNotFound. Transient
// lookup errors are returned uncached so a later call may retry.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) (string, error) {
	key := Key(lat, lng)

	if e, ok := r.fromMemory(key); ok {
		return e.result()
	}
	if e, ok := r.fromRedis(ctx, key); ok {
		r.remember(key, e)
		return e.result()
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		// Recheck: a concurrent caller may have finished between the cache
		// miss and joining the group.
		if e, ok := r.fromMemory(key); ok {
			return e, nil
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return entry{}, err
		}
		addr, err := r.geo.ReverseGeocode(ctx, lat, lng)
		switch {
		case err == nil:
			e := entry{addr: addr}
			r.remember(key, e)
			r.toRedis(ctx, key, addr)
			return e, nil
		case errors.Is(err, ErrNotFound):
			e := entry{notFound: true}
			r.remember(key, e)
			r.toRedis(ctx, key, notFoundMarker)
			return e, nil
		default:
			return entry{}, err
		}
	})
	if err != nil {
		return "", err
	}
	return v.(entry).result()
}

func (e entry) result() (string, error) {
	if e.notFound {
		return "", ErrNotFound
	}
	return e.addr, nil
}

func (r *Resolver) fromMemory(key string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.mem[key]
	return e, ok
}

func (r *Resolver) remember(key string, e entry) {
	r.mu.Lock()
	r.mem[key] = e
	r.mu.Unlock()
}

func (r *Resolver) fromRedis(ctx context.Context, key string) (entry, bool) {
	if r.redis == nil {
		return entry{}, false
	}
	val, err := r.redis.Get(ctx, "geo:addr:"+key)
	if err != nil || val == "" {
		return entry{}, false
	}
	if val == notFoundMarker {
		return entry{notFound: true}, true
	}
	return entry{addr: val}, true
}

func (r *Resolver) toRedis(ctx context.Context, key, val string) {
	if r.redis == nil {
		return
	}
	// No TTL: the mapping from coordinates to address is permanent.
	_ = r.redis.Set(ctx, "geo:addr:"+key, val, 0)
}
