package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"casefile-backend/internal/ctxkeys"
	"casefile-backend/internal/database"
	"casefile-backend/internal/models"
)

// UserHandler covers admin user management: listing accounts and
// changing roles.
type UserHandler struct {
	db database.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db database.Service) *UserHandler {
	return &UserHandler{db: db}
}

// List handles GET /api/users — all accounts with their organization names.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	type UserWithOrg struct {
		models.User
		OrganizationName *string `json:"organizationName,omitempty"`
	}

	rows, err := pool.Query(ctx, `
		SELECT u.id, u.org_id::text, u.email, u.name, u.role,
			u.created_at::text, u.updated_at::text, o.name
		FROM users u
		LEFT JOIN organizations o ON o.id = u.org_id
		ORDER BY u.created_at DESC
	`)
	if err != nil {
		log.Printf("Error querying users: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	defer rows.Close()

	users := []UserWithOrg{}
	for rows.Next() {
		var u UserWithOrg
		if err := rows.Scan(&u.ID, &u.OrgID, &u.Email, &u.Name, &u.Role,
			&u.CreatedAt, &u.UpdatedAt, &u.OrganizationName); err != nil {
			log.Printf("Error scanning user: %v", err)
			continue
		}
		users = append(users, u)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": users,
	})
}

// UpdateRole handles PATCH /api/users/{id}/role
// Admins cannot lower their own role: that path locks everyone out.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	callerID, _ := r.Context().Value(ctxkeys.UserID).(string)
	if callerID == id {
		JSONError(w, http.StatusForbidden, "You cannot change your own role")
		return
	}

	var req models.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var user models.User
	err := pool.QueryRow(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, org_id::text, email, name, role, created_at::text, updated_at::text
	`, req.Role, id,
	).Scan(
		&user.ID, &user.OrgID, &user.Email, &user.Name,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		log.Printf("Error updating role for user %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	logActivity(pool, callerID, "role_changed", "user", user.ID, map[string]interface{}{
		"role": user.Role,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    user,
		"message": "User role updated successfully",
	})
}
