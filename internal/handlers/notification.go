package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"casefile-backend/internal/ctxkeys"
	"casefile-backend/internal/database"
)

// Notification is an in-app alert for a user, created by the nightly
// checklist sweep (see internal/cron).
type Notification struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	Type       string  `json:"type"` // document_rejected | checklist_blocked
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	EntityType *string `json:"entityType,omitempty"`
	EntityID   *string `json:"entityId,omitempty"`
	IsRead     bool    `json:"isRead"`
	CreatedAt  string  `json:"createdAt"`
}

// NotificationHandler serves a user's in-app notifications.
type NotificationHandler struct {
	db database.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db database.Service) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List handles GET /api/notifications — the caller's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT id, user_id, type, title, message, entity_type, entity_id, is_read, created_at::text
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`, userID)
	if err != nil {
		log.Printf("Error querying notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.EntityType, &n.EntityID, &n.IsRead, &n.CreatedAt); err != nil {
			log.Printf("Error scanning notification: %v", err)
			continue
		}
		notifications = append(notifications, n)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": notifications,
	})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var count int
	err := h.db.GetPool().QueryRow(ctx,
		"SELECT COUNT(*)::int FROM notifications WHERE user_id = $1 AND is_read = FALSE",
		userID).Scan(&count)
	if err != nil {
		log.Printf("Error counting unread notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}

	JSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkRead handles PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.db.GetPool().Exec(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2",
		id, userID)
	if err != nil {
		log.Printf("Error marking notification %s read: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Notification not found")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllRead handles POST /api/notifications/mark-all-read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := h.db.GetPool().Exec(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE",
		userID)
	if err != nil {
		log.Printf("Error marking all notifications read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
