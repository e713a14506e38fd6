package api

import (
	"encoding/json"
	"net/http"
)

// Response bodies.
const (
	msgInvalidInput  = "Invalid input"
	msgInvalidID     = "Invalid ID"
	msgNotFound      = "Todo not found"
	msgDeleted       = "Todo deleted successfully"
	msgInternalError = "Internal server error"
	msgTooManyGaps   = "Too many missing priorities to list"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
