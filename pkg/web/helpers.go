package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// ParseQueryID extracts and validates the ID from the query string.
// missingMessage is sent with 400 when the parameter is absent. Returns the ID and a boolean indicating success.
func ParseQueryID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key, missingMessage string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		RespondError(w, logger, http.StatusBadRequest, missingMessage)
		return uuid.Nil, false
	}
	return parseUUID(w, logger, raw)
}

// ParseBodyID validates an ID taken from a request body.
func ParseBodyID(w http.ResponseWriter, logger *slog.Logger, raw, missingMessage string) (uuid.UUID, bool) {
	if raw == "" {
		RespondError(w, logger, http.StatusBadRequest, missingMessage)
		return uuid.Nil, false
	}
	return parseUUID(w, logger, raw)
}

func parseUUID(w http.ResponseWriter, logger *slog.Logger, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", raw))
		return uuid.Nil, false
	}
	return id, true
}
