package httpadapter

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitPrefix = "siteaudit:ratelimit"

// NewMemoryStore keeps counters in process memory.
func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
}

// NewRedisStore shares counters across instances through Redis.
func NewRedisStore(redisURL string) (limiter.Store, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix, MaxRetry: 3})
	if err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "create redis limiter store")
	}
	return store, client, nil
}

// RateLimit limits requests per client IP. rate uses the "<limit>-<period>"
// format, e.g. "20-M" for twenty requests per minute.
func RateLimit(rate string, store limiter.Store) (func(http.Handler) http.Handler, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, errors.Wrapf(err, "parse rate %q", rate)
	}
	mw := mstdlib.NewMiddleware(limiter.New(store, r, limiter.WithTrustForwardHeader(true)))
	return mw.Handler, nil
}
