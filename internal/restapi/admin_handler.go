package restapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/models"
	"slugstop.org/tracker/internal/transit"
	"slugstop.org/tracker/internal/utils"
)

// newStopID in the path asks the server to assign an id.
const newStopID = "new"

type stopPayload struct {
	Name        string   `json:"name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Description string   `json:"description"`
	Active      *bool    `json:"active"`
}

type routePayload struct {
	Name           string                 `json:"name"`
	Stops          []transit.RouteStop    `json:"stops"`
	Headway        int                    `json:"headway"`
	PeakHeadway    int                    `json:"peakHeadway"`
	OffPeakHeadway int                    `json:"offPeakHeadway"`
	OperatingHours transit.OperatingHours `json:"operatingHours"`
	Active         *bool                  `json:"active"`
}

func (api *RestAPI) upsertStopHandler(w http.ResponseWriter, r *http.Request) {
	stopID := utils.ExtractIDFromParams(r, "stopID")
	if stopID == newStopID {
		stopID = uuid.NewString()
	} else if err := utils.ValidateID(stopID); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"stopID": {err.Error()}})
		return
	}

	var payload stopPayload
	if err := readJSON(w, r, &payload); err != nil {
		api.errorResponse(w, r, err)
		return
	}

	verr := transit.NewValidationError()
	if payload.Latitude == nil {
		verr.Add("latitude", "latitude is required")
	}
	if payload.Longitude == nil {
		verr.Add("longitude", "longitude is required")
	}
	if verr.HasErrors() {
		api.errorResponse(w, r, verr)
		return
	}

	stop := transit.Stop{
		ID:          stopID,
		Name:        utils.SanitizeInput(payload.Name),
		Location:    geo.Point{Lat: *payload.Latitude, Lon: *payload.Longitude},
		Description: utils.SanitizeInput(payload.Description),
		Active:      payload.Active == nil || *payload.Active,
	}
	if err := api.Network.UpsertStop(r.Context(), stop); err != nil {
		api.errorResponse(w, r, err)
		return
	}

	api.Logger.Info("stop saved", "stop_id", stop.ID, "active", stop.Active)
	api.sendResponse(w, r, models.NewEntryResponse(models.NewStop(stop)))
}

func (api *RestAPI) deleteStopHandler(w http.ResponseWriter, r *http.Request) {
	stopID, ok := api.pathID(w, r, "stopID")
	if !ok {
		return
	}

	ctx := r.Context()
	if err := api.Network.DeactivateStop(ctx, stopID); err != nil {
		api.errorResponse(w, r, err)
		return
	}
	stop, err := api.Network.GetStop(ctx, stopID)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}

	api.Logger.Info("stop deactivated", "stop_id", stopID)
	api.sendResponse(w, r, models.NewEntryResponse(models.NewStop(*stop)))
}

func (api *RestAPI) upsertRouteHandler(w http.ResponseWriter, r *http.Request) {
	routeID, ok := api.pathID(w, r, "routeID")
	if !ok {
		return
	}

	var payload routePayload
	if err := readJSON(w, r, &payload); err != nil {
		api.errorResponse(w, r, err)
		return
	}

	route := transit.Route{
		ID:             routeID,
		Name:           strings.TrimSpace(payload.Name),
		Stops:          payload.Stops,
		Headway:        payload.Headway,
		PeakHeadway:    payload.PeakHeadway,
		OffPeakHeadway: payload.OffPeakHeadway,
		OperatingHours: payload.OperatingHours,
		Active:         payload.Active == nil || *payload.Active,
	}
	if err := api.Network.UpsertRoute(r.Context(), route); err != nil {
		if errors.Is(err, transit.ErrStopNotFound) {
			api.validationErrorResponse(w, r, map[string][]string{"stops": {err.Error()}})
			return
		}
		api.errorResponse(w, r, err)
		return
	}

	api.Logger.Info("route saved", "route_id", route.ID, "stops", len(route.Stops))
	api.sendResponse(w, r, models.NewEntryResponse(route))
}
