package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error payload shape for the query API. Internal
// error text never goes into Msg; handlers pass caller-safe messages.
type ErrorResponse struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

// WriteJSON writes a JSON response with the given status code and payload
func WriteJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a JSON response with the given status code and error message
func WriteError(w http.ResponseWriter, statusCode int, errorMessage string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: http.StatusText(statusCode),
		Msg:   errorMessage,
	})
}
