package restapi

import (
	"net/http"

	"slugstop.org/tracker/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(models.NewCurrentTimeModel(api.ETA.Now())))
}
