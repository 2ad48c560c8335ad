package handlers

import (
	"net/http"
)

type refreshResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TriggerRefresh wakes the auto refresher without waiting for it.
func TriggerRefresh(trigger chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case trigger <- struct{}{}:
			writeJSON(w, http.StatusAccepted, refreshResponse{
				Status:  "accepted",
				Message: "Catalog refresh triggered",
			})
		default:
			writeJSON(w, http.StatusTooManyRequests, refreshResponse{
				Status:  "busy",
				Message: "Refresh already in progress",
			})
		}
	}
}
