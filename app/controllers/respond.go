package controllers

import (
	"encoding/json"
	"net/http"
)

// Helper functions for consistent response handling

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, map[string]string{"error": message})
}

func sendMessage(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, map[string]string{"message": message})
}
