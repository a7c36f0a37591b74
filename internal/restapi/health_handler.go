package restapi

import (
	"context"
	"net/http"
	"time"

	"slugstop.org/tracker/internal/models"
)

const healthCheckTimeout = 2 * time.Second

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthHandler probes every registered backing store. It needs no API key so
// load balancers can call it.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := healthStatus{Status: "ok", Checks: make(map[string]string, len(api.Health))}
	code := http.StatusOK
	for _, hc := range api.Health {
		if err := hc.Check(ctx); err != nil {
			status.Checks[hc.Name] = err.Error()
			status.Status = "unavailable"
			code = http.StatusServiceUnavailable
			api.Logger.Warn("health check failed", "check", hc.Name, "error", err)
			continue
		}
		status.Checks[hc.Name] = "ok"
	}

	api.sendResponseStatus(w, r, code, models.NewResponse(code, status, http.StatusText(code)))
}
