package webserver

import (
	"encoding/json"
	"net/http"
)

// Envelope wraps every API payload.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are out; an encoding failure can only be dropped.
	_ = json.NewEncoder(w).Encode(env)
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeEnvelope(w, http.StatusOK, Envelope{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{Status: "error", Message: message})
}
