package restapi

import (
	"errors"
	"net/http"

	"slugstop.org/tracker/internal/eta"
	"slugstop.org/tracker/internal/models"
	"slugstop.org/tracker/internal/transit"
	"slugstop.org/tracker/internal/utils"
)

const maxNearbyLimit = 50

func (api *RestAPI) closestStopHandler(w http.ResponseWriter, r *http.Request) {
	lat, lon, fieldErrors := utils.ParseLocationParams(r.URL.Query())
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	stop, distance, err := api.ETA.ClosestStop(r.Context(), lat, lon)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewClosestStop(stop, distance)))
}

func (api *RestAPI) nearbyVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	lat, lon, fieldErrors := utils.ParseLocationParams(params)
	limit, fieldErrors := utils.ParseLimitParam(params, eta.DefaultNearbyLimit, maxNearbyLimit, fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	ctx := r.Context()
	vehicles, err := api.ETA.NearbyVehicles(ctx, lat, lon, limit)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}

	result := models.NearbyVehicles{Vehicles: vehicles}
	stop, distance, err := api.ETA.ClosestStop(ctx, lat, lon)
	switch {
	case err == nil:
		closest := models.NewClosestStop(stop, distance)
		result.NearestStop = &closest
	case errors.Is(err, transit.ErrNoStopsAvailable):
		// leave nearestStop null
	default:
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(result))
}
