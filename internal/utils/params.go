package utils

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// ExtractIDFromParams retrieves a path parameter from the request context and removes a trailing ".json".
func ExtractIDFromParams(r *http.Request, paramName string) string {
	params := httprouter.ParamsFromContext(r.Context())
	return strings.TrimSuffix(params.ByName(paramName), ".json")
}

// ParseFloatParam retrieves a float64 value from the provided URL query parameters.
// If the key is not present it returns 0 and no error; an unparsable value is
// recorded in fieldErrors.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return 0, fieldErrors
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return f, fieldErrors
}

// ParseLocationParams reads the required lat and lon query parameters. Range
// checks are left to the geo package.
func ParseLocationParams(params url.Values) (lat, lon float64, fieldErrors map[string][]string) {
	fieldErrors = make(map[string][]string)
	for _, key := range []string{"lat", "lon"} {
		if params.Get(key) == "" {
			fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Missing required field %q.", key))
		}
	}
	lat, fieldErrors = ParseFloatParam(params, "lat", fieldErrors)
	lon, fieldErrors = ParseFloatParam(params, "lon", fieldErrors)
	return lat, lon, fieldErrors
}

// ParseLimitParam reads an optional positive integer "limit", clamped to max.
// Absent means def.
func ParseLimitParam(params url.Values, def, max int, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	val := params.Get("limit")
	if val == "" {
		return def, fieldErrors
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		fieldErrors["limit"] = append(fieldErrors["limit"], "limit must be a positive integer")
		return def, fieldErrors
	}
	if n > max {
		n = max
	}
	return n, fieldErrors
}
