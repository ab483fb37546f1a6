// Package handlers provides HTTP handlers for the quotation API.
package handlers

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
