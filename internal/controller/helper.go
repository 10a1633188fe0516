package controller

import (
	"encoding/json"
	"net/http"
)

type envelope map[string]any

func (c controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}
