package handlers

import "net/http"

// Health reports liveness and how many jobs the tracker currently holds.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   a.Jobs.Len(),
	})
}
