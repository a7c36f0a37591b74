package restapi

import (
	"net/http"
	"sort"

	"github.com/twpayne/go-polyline"

	"slugstop.org/tracker/internal/models"
	"slugstop.org/tracker/internal/transit"
	"slugstop.org/tracker/internal/utils"
)

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	routes, err := api.Network.ListActiveRoutes(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	list := make([]models.RouteSummary, 0, len(routes))
	for _, route := range routes {
		list = append(list, api.routeSummary(route))
	}
	api.sendResponse(w, r, models.NewListResponse(list))
}

func (api *RestAPI) routeHandler(w http.ResponseWriter, r *http.Request) {
	routeID, ok := api.pathID(w, r, "routeID")
	if !ok {
		return
	}

	ctx := r.Context()
	route, err := api.Network.GetRoute(ctx, routeID)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}

	ordered := append([]transit.RouteStop(nil), route.Stops...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	detail := models.RouteDetail{
		RouteSummary:   api.routeSummary(*route),
		Headway:        route.Headway,
		PeakHeadway:    route.PeakHeadway,
		OffPeakHeadway: route.OffPeakHeadway,
		OperatingHours: route.OperatingHours,
		Stops:          make([]models.RouteStop, 0, len(ordered)),
	}

	coords := make([][]float64, 0, len(ordered))
	cumulative := 0
	for _, rs := range ordered {
		stop, err := api.Network.GetStop(ctx, rs.StopID)
		if err != nil {
			api.serverErrorResponse(w, r, err)
			return
		}
		cumulative += rs.TravelTimeFromPrevious
		detail.Stops = append(detail.Stops, models.RouteStop{
			Stop:                   models.NewStop(*stop),
			Sequence:               rs.Sequence,
			TravelTimeFromPrevious: rs.TravelTimeFromPrevious,
			MinutesFromStart:       cumulative,
		})
		coords = append(coords, []float64{stop.Location.Lat, stop.Location.Lon})
	}
	detail.Polyline = string(polyline.EncodeCoords(coords))

	api.sendResponse(w, r, models.NewEntryResponse(detail))
}

func (api *RestAPI) routeSummary(route transit.Route) models.RouteSummary {
	return models.RouteSummary{
		ID:             route.ID,
		Name:           route.Name,
		StopCount:      len(route.Stops),
		CurrentHeadway: api.ETA.CurrentHeadway(route),
		InService:      route.InService(api.ETA.Now()),
	}
}

// pathID extracts and validates a path parameter, answering 400 itself when
// the value is unusable.
func (api *RestAPI) pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := utils.ExtractIDFromParams(r, name)
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{name: {err.Error()}})
		return "", false
	}
	return id, true
}
