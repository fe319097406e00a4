// Package handlers implements the HTTP API: auth, applicants, applications,
// document checklists and review, cohorts, employers, and the dashboard.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PaginationMeta describes a paginated list response.
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PaginatedResponse wraps list data with pagination info.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// JSONError writes a JSON error response.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// logActivity records an audit-trail entry. Fire-and-forget: audit failures
// are logged but never fail the request that triggered them.
func logActivity(pool *pgxpool.Pool, userID, action, entityType, entityID string, details map[string]interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var detailsJSON []byte
		if details != nil {
			detailsJSON, _ = json.Marshal(details)
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO activity_log (user_id, action, entity_type, entity_id, details)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, action, entityType, entityID, detailsJSON)
		if err != nil {
			log.Printf("Failed to log activity %s %s/%s: %v", action, entityType, entityID, err)
		}
	}()
}
