package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/models"
	"slugstop.org/tracker/internal/transit"
)

// errorBody is the data block of a failed request.
type errorBody struct {
	ErrorCode   string              `json:"errorCode"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
}

// invalidAPIKeyResponse sends a 401 Unauthorized response for a missing or unknown key.
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Code        int    `json:"code"`
		CurrentTime int64  `json:"currentTime"`
		Text        string `json:"text"`
		Version     int    `json:"version"`
	}{
		Code:        http.StatusUnauthorized,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        "permission denied",
		Version:     2,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.FromContext(r.Context()).Error("failed to encode invalid API key response", "error", err)
	}
}

// serverErrorResponse logs err and sends a 500 without leaking its text.
func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "request failed", err)
	}
	api.sendResponseStatus(w, r, http.StatusInternalServerError,
		models.NewResponse(http.StatusInternalServerError, errorBody{ErrorCode: "INTERNAL"}, "internal server error"))
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.badRequestResponse(w, r, transit.ErrorCode(transit.ErrValidationFailed), fieldErrors)
}

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, code string, fieldErrors map[string][]string) {
	api.sendResponseStatus(w, r, http.StatusBadRequest,
		models.NewResponse(http.StatusBadRequest, errorBody{ErrorCode: code, FieldErrors: fieldErrors}, "validation failed"))
}

func (api *RestAPI) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.sendResponseStatus(w, r, http.StatusNotFound,
		models.NewResponse(http.StatusNotFound, errorBody{ErrorCode: transit.ErrorCode(err)}, err.Error()))
}

// errorResponse maps a domain error onto its HTTP status.
func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var verr *transit.ValidationError
	switch {
	case errors.As(err, &verr):
		api.validationErrorResponse(w, r, verr.FieldErrors)
	case errors.Is(err, transit.ErrInvalidCoordinate):
		api.badRequestResponse(w, r, transit.ErrorCode(err), map[string][]string{
			"location": {err.Error()},
		})
	case errors.Is(err, transit.ErrValidationFailed):
		api.validationErrorResponse(w, r, nil)
	case errors.Is(err, transit.ErrRouteNotFound),
		errors.Is(err, transit.ErrStopNotOnRoute),
		errors.Is(err, transit.ErrStopNotFound),
		errors.Is(err, transit.ErrNoStopsAvailable):
		api.notFoundResponse(w, r, err)
	default:
		api.serverErrorResponse(w, r, err)
	}
}
