// Package respond writes the JSON responses shared by the HTTP servers.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes payload as a JSON response with the given status.
func JSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Error writes a JSON error response of the form {"error": message}.
func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, map[string]string{"error": message})
}
