package utils

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestExtractIDFromParams(t *testing.T) {
	testCases := []struct {
		name string
		id   string
		want string
	}{
		{name: "Basic ID", id: "123", want: "123"},
		{name: "ID with JSON extension", id: "456.json", want: "456"},
		{name: "ID with multiple dots", id: "789.data.json", want: "789.data"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := httprouter.New()

			var result string
			router.HandlerFunc(http.MethodGet, "/api/test/:id", func(w http.ResponseWriter, r *http.Request) {
				result = ExtractIDFromParams(r, "id")
				w.WriteHeader(http.StatusOK)
			})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/test/"+tc.id, nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.want, result)
		})
	}
}

func TestParseFloatParam(t *testing.T) {
	params := url.Values{"lat": {"36.99"}, "bad": {"north"}}

	v, errs := ParseFloatParam(params, "lat", nil)
	assert.InDelta(t, 36.99, v, 1e-9)
	assert.Empty(t, errs)

	v, errs = ParseFloatParam(params, "missing", errs)
	assert.Zero(t, v)
	assert.Empty(t, errs)

	_, errs = ParseFloatParam(params, "bad", errs)
	assert.Contains(t, errs, "bad")
}

func TestParseLocationParams(t *testing.T) {
	lat, lon, errs := ParseLocationParams(url.Values{"lat": {"36.99"}, "lon": {"-122.06"}})
	assert.Empty(t, errs)
	assert.InDelta(t, 36.99, lat, 1e-9)
	assert.InDelta(t, -122.06, lon, 1e-9)

	_, _, errs = ParseLocationParams(url.Values{"lat": {"abc"}})
	assert.Contains(t, errs, "lat")
	assert.Contains(t, errs, "lon")

	// out of range parses fine here; the geo package rejects it
	_, _, errs = ParseLocationParams(url.Values{"lat": {"200"}, "lon": {"0"}})
	assert.Empty(t, errs)
}

func TestParseLimitParam(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		invalid bool
	}{
		{name: "absent", value: "", want: 10},
		{name: "explicit", value: "3", want: 3},
		{name: "clamped", value: "500", want: 50},
		{name: "zero", value: "0", want: 10, invalid: true},
		{name: "text", value: "many", want: 10, invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := url.Values{}
			if tt.value != "" {
				params.Set("limit", tt.value)
			}
			got, errs := ParseLimitParam(params, 10, 50, nil)
			assert.Equal(t, tt.want, got)
			if tt.invalid {
				assert.Contains(t, errs, "limit")
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}
