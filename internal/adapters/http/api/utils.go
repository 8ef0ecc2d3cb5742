package api

import (
	"encoding/json"
	"net/http"
)

// Response messages shared with the web client.
const (
	msgScoreNotFound   = "Score not found"
	msgMatchNotFound   = "Match not found"
	msgMethodNotAllow  = "Method not allowed"
	msgNotFound        = "Not found"
	msgInternal        = "Internal server error"
	msgInvalidJSON     = "Invalid JSON body"
	msgRequiredFields  = "MatchId, playerId, playerName, and team are required"
	msgUserIDRequired  = "userId is required"
	msgNotificationNot = "Notification not found"
)

type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, failure{Message: message})
}

func writeInternal(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, failure{Message: msgInternal, Error: err.Error()})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Success: true, Message: message})
}
