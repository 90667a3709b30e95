package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/CardDAO/truco-sub000/internal/database"
)

// HandleRoutes registers the REST results endpoints.
func HandleRoutes(db *database.Service) {
	http.HandleFunc("/api/results", func(w http.ResponseWriter, r *http.Request) {
		GetResultsHandler(db, w, r)
	})
	http.HandleFunc("/api/results/match/{id}", func(w http.ResponseWriter, r *http.Request) {
		GetResultByIDHandler(db, w, r)
	})
	http.HandleFunc("/api/results/player/{identity}", func(w http.ResponseWriter, r *http.Request) {
		GetResultsByPlayerHandler(db, w, r)
	})
	logrus.Info("registered routes: /api/results, /api/results/match/{id}, /api/results/player/{identity}")
}

// GetResultsHandler returns every stored match.
func GetResultsHandler(db *database.Service, w http.ResponseWriter, r *http.Request) {
	results, err := db.GetAll()
	if err != nil {
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// GetResultByIDHandler returns one match by id.
func GetResultByIDHandler(db *database.Service, w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Match id is required", http.StatusBadRequest)
		return
	}
	result, err := db.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Match not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch result", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetResultsByPlayerHandler returns every match an identity played.
func GetResultsByPlayerHandler(db *database.Service, w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	if identity == "" {
		http.Error(w, "Player identity is required", http.StatusBadRequest)
		return
	}
	results, err := db.GetByPlayer(identity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "No results found for player", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
