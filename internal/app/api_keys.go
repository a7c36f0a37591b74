package app

import (
	"crypto/subtle"
	"net/http"
)

func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return app.IsInvalidAPIKey(r.URL.Query().Get("key"))
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	return !keyIn(key, app.Config.ApiKeys)
}

// RequestHasInvalidAdminKey checks ?key= against the admin keys.
func (app *Application) RequestHasInvalidAdminKey(r *http.Request) bool {
	return !keyIn(r.URL.Query().Get("key"), app.Config.AdminKeys)
}

func keyIn(key string, valid []string) bool {
	if key == "" {
		return false
	}
	for _, k := range valid {
		if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
			return true
		}
	}
	return false
}
