package wire

import (
	"net/http"
	"time"

	"mentor-booking/pkg/utils"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

const defaultRateLimit = 10

// rateLimit caps booking writes per client IP. RealIP runs first so the key
// is the forwarded address behind a proxy.
func rateLimit(config *utils.Config, log *zap.Logger) func(http.Handler) http.Handler {
	limit := config.App.RateLimitPerMinute
	if limit < 1 {
		limit = defaultRateLimit
	}

	return httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("Rate limit exceeded",
				zap.String("path", r.URL.Path),
				zap.String("ip", r.RemoteAddr))
			utils.ResponseTooManyRequests(w, "Too many requests, please slow down")
		}),
	)
}
