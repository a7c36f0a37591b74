// Package restapi exposes the tracker over HTTP.
package restapi

import (
	"net/http"
	"time"

	"slugstop.org/tracker/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter func(http.Handler) http.Handler
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.AdminKeys...),
	}
}
