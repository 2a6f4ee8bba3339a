package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"depositlink/kit/db"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("layer=handler component=respond err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg})
}

// writeDomainError maps the kit error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case db.IsInvalid(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case db.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	case db.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
