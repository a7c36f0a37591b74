package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"slugstop.org/tracker/internal/transit"
)

const maxBodyBytes = 64 << 10

// readJSON decodes a single JSON object from the body into dst. Malformed
// bodies come back as a *transit.ValidationError on field "body".
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		verr := transit.NewValidationError()
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			verr.Add("body", "body must not be empty")
		case errors.As(err, &maxErr):
			verr.Add("body", fmt.Sprintf("body must not be larger than %d bytes", maxErr.Limit))
		default:
			verr.Add("body", "body contains malformed JSON: "+err.Error())
		}
		return verr
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		verr := transit.NewValidationError()
		verr.Add("body", "body must contain a single JSON object")
		return verr
	}
	return nil
}
