package restapi

import (
	"net/http"

	"slugstop.org/tracker/internal/models"
)

func (api *RestAPI) stopsHandler(w http.ResponseWriter, r *http.Request) {
	stops, err := api.Network.ListActiveStops(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	list := make([]models.Stop, 0, len(stops))
	for _, s := range stops {
		list = append(list, models.NewStop(s))
	}
	api.sendResponse(w, r, models.NewListResponse(list))
}
