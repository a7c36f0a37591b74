package restapi

import (
	"net/http"

	"slugstop.org/tracker/internal/models"
	"slugstop.org/tracker/internal/tracking"
)

func (api *RestAPI) positionsHandler(w http.ResponseWriter, r *http.Request) {
	var payload tracking.Payload
	if err := readJSON(w, r, &payload); err != nil {
		api.errorResponse(w, r, err)
		return
	}

	result, err := api.Ingestor.Ingest(r.Context(), payload)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(result))
}
