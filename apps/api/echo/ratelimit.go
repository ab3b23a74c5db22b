package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/infort/rh/core"
)

const msgTooManyRequests = "too many requests, try again later"

// rateLimitMiddleware limits requests per client IP. rate uses the limiter format ("10-M").
// An invalid rate disables the limit.
func rateLimitMiddleware(rate string, logger core.Logger) echo.MiddlewareFunc {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		logger.Error("invalid rate limit, requests will not be limited", err, map[string]interface{}{"rate": rate})
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	instance := limiter.New(memory.NewStore(), r)
	mw := stdlib.NewMiddleware(
		instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(echo.Map{"error": msgTooManyRequests})
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			logger.Error("rate limiter failure", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}),
	)
	return echo.WrapMiddleware(mw.Handler)
}
