package restapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"slugstop.org/tracker/internal/logging"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

func validateAdminKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAdminKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// handle registers h and records its latency under the route pattern, which
// keeps the metric label set bounded.
func (api *RestAPI) handle(router *httprouter.Router, method, pattern string, h http.Handler) {
	router.Handler(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		h.ServeHTTP(wrapped, r)
		api.Metrics.ObserveRequest(method, pattern, wrapped.statusCode, time.Since(start))
	}))
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	api.handle(router, http.MethodPost, "/api/positions", validateAPIKey(api, api.positionsHandler))

	api.handle(router, http.MethodGet, "/api/routes", validateAPIKey(api, api.routesHandler))
	api.handle(router, http.MethodGet, "/api/routes/:routeID", validateAPIKey(api, api.routeHandler))
	api.handle(router, http.MethodGet, "/api/routes/:routeID/etas", validateAPIKey(api, api.routeETAsHandler))
	api.handle(router, http.MethodGet, "/api/routes/:routeID/stops/:stopID/eta", validateAPIKey(api, api.stopETAHandler))
	api.handle(router, http.MethodGet, "/api/routes/:routeID/vehicles", validateAPIKey(api, api.routeVehiclesHandler))
	api.handle(router, http.MethodGet, "/api/stops", validateAPIKey(api, api.stopsHandler))

	api.handle(router, http.MethodGet, "/api/rider/closest-stop", validateAPIKey(api, api.closestStopHandler))
	api.handle(router, http.MethodGet, "/api/rider/nearby-vehicles", validateAPIKey(api, api.nearbyVehiclesHandler))

	api.handle(router, http.MethodPut, "/api/admin/stops/:stopID", validateAdminKey(api, api.upsertStopHandler))
	api.handle(router, http.MethodDelete, "/api/admin/stops/:stopID", validateAdminKey(api, api.deleteStopHandler))
	api.handle(router, http.MethodPut, "/api/admin/routes/:routeID", validateAdminKey(api, api.upsertRouteHandler))

	api.handle(router, http.MethodGet, "/api/current-time.json", validateAPIKey(api, api.currentTimeHandler))

	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	if api.Metrics != nil {
		router.Handler(http.MethodGet, "/metrics", api.Metrics.Handler())
	}

	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(api.methodNotAllowedResponse)
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		logging.FromContext(r.Context()).Error("handler panic", "panic", v, "path", r.URL.Path)
		api.serverErrorResponse(w, r, nil)
	}
}

// Handler returns the router wrapped in the middleware stack, outermost first:
// request logging, security headers and CORS, compression, rate limiting.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	// preflight is answered by the CORS middleware
	router.HandleOPTIONS = false
	api.SetRoutes(router)

	var handler http.Handler = router
	handler = api.rateLimiter(handler)
	handler = CompressionMiddleware(handler)
	handler = api.WithSecurityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return handler
}
