package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"casefile-backend/internal/ctxkeys"
	"casefile-backend/internal/database"
	"casefile-backend/internal/models"
)

// EmployerHandler manages the Canadian employers behind work-permit cases.
type EmployerHandler struct {
	db database.Service
}

// NewEmployerHandler creates a new EmployerHandler.
func NewEmployerHandler(db database.Service) *EmployerHandler {
	return &EmployerHandler{db: db}
}

const employerRetCols = `id, org_id, name, business_number, contact_email, province,
	created_at::text, updated_at::text`

func scanEmployer(scanner interface {
	Scan(dest ...interface{}) error
}, e *models.Employer) error {
	return scanner.Scan(
		&e.ID, &e.OrgID, &e.Name, &e.BusinessNumber, &e.ContactEmail, &e.Province,
		&e.CreatedAt, &e.UpdatedAt,
	)
}

// Create handles POST /api/employers
func (h *EmployerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEmployerRequest
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

	orgID, err := userOrgID(ctx, pool)
	if err != nil || orgID == nil {
		JSONError(w, http.StatusForbidden, "Your account is not attached to an organization")
		return
	}

	var employer models.Employer
	err = scanEmployer(pool.QueryRow(ctx, `
		INSERT INTO employers (org_id, name, business_number, contact_email, province)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+employerRetCols,
		*orgID, req.Name, req.BusinessNumber, req.ContactEmail, req.Province,
	), &employer)
	if err != nil {
		log.Printf("Error creating employer: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create employer")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "employer", employer.ID, map[string]interface{}{
		"name": employer.Name,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    employer,
		"message": "Employer created successfully",
	})
}

// List handles GET /api/employers
func (h *EmployerHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	where, args, argIdx = appendOrgScope(ctx, where, args, argIdx, "e.org_id")

	if search := r.URL.Query().Get("search"); search != "" {
		where += fmt.Sprintf(" AND e.name ILIKE $%d", argIdx)
		args = append(args, "%"+search+"%")
	}

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT e.id, e.org_id, e.name, e.business_number, e.contact_email, e.province,
			e.created_at::text, e.updated_at::text
		FROM employers e
		%s
		ORDER BY e.name ASC
	`, where), args...)
	if err != nil {
		log.Printf("Error querying employers: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employers")
		return
	}
	defer rows.Close()

	employers := []models.Employer{}
	for rows.Next() {
		var e models.Employer
		if err := scanEmployer(rows, &e); err != nil {
			log.Printf("Error scanning employer: %v", err)
			continue
		}
		employers = append(employers, e)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": employers,
	})
}

// GetByID handles GET /api/employers/{id}
func (h *EmployerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Employer ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var employer models.Employer
	if err := scanEmployer(pool.QueryRow(ctx,
		"SELECT "+employerRetCols+" FROM employers WHERE id = $1", id), &employer); err != nil {
		JSONError(w, http.StatusNotFound, "Employer not found")
		return
	}

	if !checkOrgAccess(r.Context(), employer.OrgID) {
		JSONError(w, http.StatusForbidden, "Access denied to this employer")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": employer,
	})
}

// Update handles PUT /api/employers/{id}
func (h *EmployerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Employer ID is required")
		return
	}

	if !checkEmployerAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this employer")
		return
	}

	var req models.UpdateEmployerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.Name != nil {
		addField("name", *req.Name)
	}
	if req.BusinessNumber != nil {
		addField("business_number", *req.BusinessNumber)
	}
	if req.ContactEmail != nil {
		addField("contact_email", *req.ContactEmail)
	}
	if req.Province != nil {
		addField("province", *req.Province)
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE employers SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, employerRetCols)
	args = append(args, id)

	var employer models.Employer
	if err := scanEmployer(pool.QueryRow(ctx, query, args...), &employer); err != nil {
		log.Printf("Error updating employer %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Employer not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "employer", employer.ID, map[string]interface{}{
		"name": employer.Name,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    employer,
		"message": "Employer updated successfully",
	})
}

// Delete handles DELETE /api/employers/{id}
func (h *EmployerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Employer ID is required")
		return
	}

	if !checkEmployerAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this employer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM employers WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting employer %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete employer")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Employer not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "employer", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Employer deleted successfully",
	})
}
