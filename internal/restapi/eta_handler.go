package restapi

import (
	"net/http"

	"slugstop.org/tracker/internal/eta"
	"slugstop.org/tracker/internal/models"
)

func (api *RestAPI) stopETAHandler(w http.ResponseWriter, r *http.Request) {
	routeID, ok := api.pathID(w, r, "routeID")
	if !ok {
		return
	}
	stopID, ok := api.pathID(w, r, "stopID")
	if !ok {
		return
	}

	est, err := api.ETA.BestETA(r.Context(), routeID, stopID)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}
	api.recordETA(est)

	api.sendResponse(w, r, models.NewEntryResponse(models.StopETA{
		RouteID:  routeID,
		StopID:   stopID,
		Estimate: est,
	}))
}

func (api *RestAPI) routeETAsHandler(w http.ResponseWriter, r *http.Request) {
	routeID, ok := api.pathID(w, r, "routeID")
	if !ok {
		return
	}

	etas, err := api.ETA.RouteETAs(r.Context(), routeID)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}
	for _, s := range etas.Stops {
		api.recordETA(s.ETA)
	}

	api.sendResponse(w, r, models.NewEntryResponse(etas))
}

func (api *RestAPI) recordETA(est eta.Estimate) {
	source := ""
	if est.Source != nil {
		source = string(*est.Source)
	}
	api.Metrics.ETAServed(source)
}
