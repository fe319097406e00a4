package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"casefile-backend/internal/database"
)

// ActivityEntry is one audit-trail row with the acting user's name joined in.
type ActivityEntry struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"userId,omitempty"`
	UserName   *string         `json:"userName,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	db database.Service
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(db database.Service) *ActivityHandler {
	return &ActivityHandler{db: db}
}

// List handles GET /api/activity — recent audit entries, newest first.
// Optional filters: entity_type, entity_id, limit (max 200).
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if et := q.Get("entity_type"); et != "" {
		where += " AND al.entity_type = $" + strconv.Itoa(argIdx)
		args = append(args, et)
		argIdx++
	}
	if eid := q.Get("entity_id"); eid != "" {
		where += " AND al.entity_id = $" + strconv.Itoa(argIdx)
		args = append(args, eid)
		argIdx++
	}

	args = append(args, limit)
	rows, err := pool.Query(ctx, `
		SELECT al.id, al.user_id::text, u.name, al.action, al.entity_type,
			al.entity_id, al.details, al.created_at::text
		FROM activity_log al
		LEFT JOIN users u ON u.id = al.user_id
		`+where+`
		ORDER BY al.created_at DESC
		LIMIT $`+strconv.Itoa(argIdx), args...)
	if err != nil {
		log.Printf("Error querying activity log: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}
	defer rows.Close()

	entries := []ActivityEntry{}
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Action, &e.EntityType,
			&e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			log.Printf("Error scanning activity entry: %v", err)
			continue
		}
		entries = append(entries, e)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": entries,
	})
}
