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

// CohortHandler manages intake batches of applicants.
type CohortHandler struct {
	db database.Service
}

// NewCohortHandler creates a new CohortHandler.
func NewCohortHandler(db database.Service) *CohortHandler {
	return &CohortHandler{db: db}
}

const cohortRetCols = `id, org_id, name, program, intake_date::text, notes,
	created_at::text, updated_at::text`

func scanCohort(scanner interface {
	Scan(dest ...interface{}) error
}, c *models.Cohort) error {
	return scanner.Scan(
		&c.ID, &c.OrgID, &c.Name, &c.Program, &c.IntakeDate, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
}

// Create handles POST /api/cohorts
func (h *CohortHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCohortRequest
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

	var cohort models.Cohort
	err = scanCohort(pool.QueryRow(ctx, `
		INSERT INTO cohorts (org_id, name, program, intake_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+cohortRetCols,
		*orgID, req.Name, req.Program, req.IntakeDate, req.Notes,
	), &cohort)
	if err != nil {
		log.Printf("Error creating cohort: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create cohort")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "cohort", cohort.ID, map[string]interface{}{
		"name": cohort.Name,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    cohort,
		"message": "Cohort created successfully",
	})
}

// List handles GET /api/cohorts — all cohorts in scope with applicant counts.
func (h *CohortHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	where, args, _ = appendOrgScope(ctx, where, args, argIdx, "c.org_id")

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT c.id, c.name, c.program,
			(SELECT COUNT(*) FROM applicants a WHERE a.cohort_id = c.id)::int AS applicant_count
		FROM cohorts c
		%s
		ORDER BY c.created_at DESC
	`, where), args...)
	if err != nil {
		log.Printf("Error querying cohorts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch cohorts")
		return
	}
	defer rows.Close()

	cohorts := []models.CohortSummary{}
	for rows.Next() {
		var c models.CohortSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Program, &c.ApplicantCount); err != nil {
			log.Printf("Error scanning cohort: %v", err)
			continue
		}
		cohorts = append(cohorts, c)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": cohorts,
	})
}

// GetByID handles GET /api/cohorts/{id}
func (h *CohortHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Cohort ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var cohort models.Cohort
	if err := scanCohort(pool.QueryRow(ctx,
		"SELECT "+cohortRetCols+" FROM cohorts WHERE id = $1", id), &cohort); err != nil {
		JSONError(w, http.StatusNotFound, "Cohort not found")
		return
	}

	if !checkOrgAccess(r.Context(), cohort.OrgID) {
		JSONError(w, http.StatusForbidden, "Access denied to this cohort")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": cohort,
	})
}

// Update handles PUT /api/cohorts/{id}
func (h *CohortHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Cohort ID is required")
		return
	}

	if !checkCohortAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this cohort")
		return
	}

	var req models.UpdateCohortRequest
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
	if req.Program != nil {
		addField("program", *req.Program)
	}
	if req.IntakeDate != nil {
		addField("intake_date", *req.IntakeDate)
	}
	if req.Notes != nil {
		addField("notes", *req.Notes)
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE cohorts SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, cohortRetCols)
	args = append(args, id)

	var cohort models.Cohort
	if err := scanCohort(pool.QueryRow(ctx, query, args...), &cohort); err != nil {
		log.Printf("Error updating cohort %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Cohort not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "cohort", cohort.ID, map[string]interface{}{
		"name": cohort.Name,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    cohort,
		"message": "Cohort updated successfully",
	})
}

// Delete handles DELETE /api/cohorts/{id}
// Applicants in the cohort are detached, not deleted.
func (h *CohortHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Cohort ID is required")
		return
	}

	if !checkCohortAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this cohort")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM cohorts WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting cohort %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete cohort")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Cohort not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "cohort", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Cohort deleted successfully",
	})
}
