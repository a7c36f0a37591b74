package restapi

import (
	"encoding/json"
	"net/http"

	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	api.sendResponseStatus(w, r, http.StatusOK, response)
}

func (api *RestAPI) sendResponseStatus(w http.ResponseWriter, r *http.Request, status int, response models.ResponseModel) {
	setJSONResponseType(&w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.FromContext(r.Context()).Error("failed to encode response", "error", err, "path", r.URL.Path)
	}
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendResponseStatus(w, r, http.StatusNotFound, models.NewResponse(http.StatusNotFound, nil, "resource not found"))
}

func (api *RestAPI) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	api.sendResponseStatus(w, r, http.StatusMethodNotAllowed, models.NewResponse(http.StatusMethodNotAllowed, nil, "method not allowed"))
}

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}
