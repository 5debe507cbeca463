package main

import (
	"encoding/json"
	"net/http"
)

type healthStatus struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// healthy reports that the server is up along with the number of open kiosk sessions.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(healthStatus{Status: "ok", Sessions: app.kiosks.Len()}); err != nil {
		app.serverError(w, r, err)
	}
}
