package restapi

import (
	"net/http"

	"slugstop.org/tracker/internal/models"
)

func (api *RestAPI) routeVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	routeID, ok := api.pathID(w, r, "routeID")
	if !ok {
		return
	}

	reports, err := api.ETA.ActiveVehicles(r.Context(), routeID)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}

	now := api.ETA.Now()
	list := make([]models.Vehicle, 0, len(reports))
	for _, report := range reports {
		list = append(list, models.NewVehicle(report, now))
	}
	api.sendResponse(w, r, models.NewListResponse(list))
}
