package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"casefile-backend/internal/ctxkeys"
	"casefile-backend/internal/database"
	"casefile-backend/internal/models"
)

// ApplicantHandler handles client intake and profile updates.
type ApplicantHandler struct {
	db database.Service
}

// NewApplicantHandler creates a new ApplicantHandler.
func NewApplicantHandler(db database.Service) *ApplicantHandler {
	return &ApplicantHandler{db: db}
}

// ── Columns ────────────────────────────────────────────────────
// Central column lists keep Create/GetByID/List/Update in sync.
// Aliased version (for SELECT with FROM clause):
const applicantCols = `a.id, a.org_id, a.given_name, a.family_name,
	a.email, a.phone, a.date_of_birth::text, a.nationality,
	a.currently_in_canada, a.current_status, a.spouse_relation_type,
	a.spouse_given_name, a.spouse_family_name,
	a.children, a.personal_history, a.cohort_id,
	a.created_at, a.updated_at`

// Unaliased version (for INSERT/UPDATE RETURNING):
const applicantRetCols = `id, org_id, given_name, family_name,
	email, phone, date_of_birth::text, nationality,
	currently_in_canada, current_status, spouse_relation_type,
	spouse_given_name, spouse_family_name,
	children, personal_history, cohort_id,
	created_at, updated_at`

// ── Scan Helper ────────────────────────────────────────────────

func scanApplicant(scanner interface {
	Scan(dest ...interface{}) error
}, a *models.Applicant) error {
	return scanner.Scan(
		&a.ID, &a.OrgID, &a.GivenName, &a.FamilyName,
		&a.Email, &a.Phone, &a.DateOfBirth, &a.Nationality,
		&a.CurrentlyInCanada, &a.CurrentStatus, &a.SpouseRelationType,
		&a.SpouseGivenName, &a.SpouseFamilyName,
		&a.Children, &a.PersonalHistory, &a.CohortID,
		&a.CreatedAt, &a.UpdatedAt,
	)
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/applicants
// Every intake fact that drives document requirements (in-Canada status,
// spouse relation, residence history) is captured here; the checklist
// endpoint derives slots from them, nothing is precreated.
func (h *ApplicantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateApplicantRequest
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

	if req.SpouseRelationType == "" {
		req.SpouseRelationType = "none"
	}
	if req.Children == nil {
		req.Children = json.RawMessage("[]")
	}
	if req.PersonalHistory == nil {
		req.PersonalHistory = json.RawMessage("[]")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	orgID, err := userOrgID(ctx, pool)
	if err != nil || orgID == nil {
		JSONError(w, http.StatusForbidden, "Your account is not attached to an organization")
		return
	}

	if req.CohortID != nil && !checkCohortAccess(ctx, pool, *req.CohortID) {
		JSONError(w, http.StatusForbidden, "Access denied to this cohort")
		return
	}

	var applicant models.Applicant
	err = pool.QueryRow(ctx, `
		INSERT INTO applicants (
			org_id, given_name, family_name, email, phone,
			date_of_birth, nationality, currently_in_canada, current_status,
			spouse_relation_type, spouse_given_name, spouse_family_name,
			children, personal_history, cohort_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING `+applicantRetCols,
		*orgID, req.GivenName, req.FamilyName, req.Email, req.Phone,
		req.DateOfBirth, req.Nationality, req.CurrentlyInCanada, req.CurrentStatus,
		req.SpouseRelationType, req.SpouseGivenName, req.SpouseFamilyName,
		req.Children, req.PersonalHistory, req.CohortID,
	).Scan(
		&applicant.ID, &applicant.OrgID, &applicant.GivenName, &applicant.FamilyName,
		&applicant.Email, &applicant.Phone, &applicant.DateOfBirth, &applicant.Nationality,
		&applicant.CurrentlyInCanada, &applicant.CurrentStatus, &applicant.SpouseRelationType,
		&applicant.SpouseGivenName, &applicant.SpouseFamilyName,
		&applicant.Children, &applicant.PersonalHistory, &applicant.CohortID,
		&applicant.CreatedAt, &applicant.UpdatedAt,
	)
	if err != nil {
		log.Printf("Error creating applicant: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create applicant")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "applicant", applicant.ID, map[string]interface{}{
		"name": applicant.GivenName + " " + applicant.FamilyName,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    applicant,
		"message": "Applicant created successfully",
	})
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/applicants
func (h *ApplicantHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	search := q.Get("search")
	cohortID := q.Get("cohort_id")
	nationality := q.Get("nationality")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Build dynamic WHERE clause
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	where, args, argIdx = appendOrgScope(ctx, where, args, argIdx, "a.org_id")

	if search != "" {
		where += fmt.Sprintf(" AND (a.given_name || ' ' || a.family_name) ILIKE $%d", argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}
	if cohortID != "" {
		where += fmt.Sprintf(" AND a.cohort_id = $%d", argIdx)
		args = append(args, cohortID)
		argIdx++
	}
	if nationality != "" {
		where += fmt.Sprintf(" AND a.nationality ILIKE $%d", argIdx)
		args = append(args, "%"+nationality+"%")
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM applicants a " + where
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Printf("Error counting applicants: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch applicants")
		return
	}

	query := fmt.Sprintf(`
		SELECT %s FROM applicants a
		%s
		ORDER BY a.family_name ASC, a.given_name ASC
		LIMIT $%d OFFSET $%d
	`, applicantCols, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying applicants: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch applicants")
		return
	}
	defer rows.Close()

	applicants := []models.Applicant{}
	for rows.Next() {
		var a models.Applicant
		if err := scanApplicant(rows, &a); err != nil {
			log.Printf("Error scanning applicant: %v", err)
			continue
		}
		applicants = append(applicants, a)
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data: applicants,
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/applicants/{id}
// Returns the applicant profile plus their applications.
func (h *ApplicantHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Applicant ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var applicant models.Applicant
	if err := scanApplicant(pool.QueryRow(ctx,
		"SELECT "+applicantCols+" FROM applicants a WHERE a.id = $1", id), &applicant); err != nil {
		JSONError(w, http.StatusNotFound, "Applicant not found")
		return
	}

	if !checkOrgAccess(r.Context(), applicant.OrgID) {
		JSONError(w, http.StatusForbidden, "Access denied to this applicant")
		return
	}

	// Applications for this client, newest first
	rows, err2 := pool.Query(ctx, `
		SELECT id, org_id, applicant_id, application_type, stage,
			employer_id, assigned_to, lmia_required, pal_required, gic_required,
			notes, created_at, updated_at
		FROM applications WHERE applicant_id = $1
		ORDER BY created_at DESC
	`, id)
	applications := []models.Application{}
	if err2 == nil {
		defer rows.Close()
		for rows.Next() {
			var app models.Application
			if scanApplication(rows, &app) == nil {
				applications = append(applications, app)
			}
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":         applicant,
		"applications": applications,
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/applicants/{id}
// Partial update: only provided fields change. Intake-fact changes here
// reshape checklists on the next evaluation, nothing else to sync.
func (h *ApplicantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Applicant ID is required")
		return
	}

	if !checkApplicantAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this applicant")
		return
	}

	var req models.UpdateApplicantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if req.SpouseRelationType != nil {
		switch *req.SpouseRelationType {
		case "none", "spouse", "common_law":
		default:
			JSONError(w, http.StatusUnprocessableEntity, "Relation must be 'none', 'spouse', or 'common_law'")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Build dynamic SET clause — only update provided fields
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.GivenName != nil {
		addField("given_name", *req.GivenName)
	}
	if req.FamilyName != nil {
		addField("family_name", *req.FamilyName)
	}
	if req.Email != nil {
		addField("email", *req.Email)
	}
	if req.Phone != nil {
		addField("phone", *req.Phone)
	}
	if req.DateOfBirth != nil {
		addField("date_of_birth", *req.DateOfBirth)
	}
	if req.Nationality != nil {
		addField("nationality", *req.Nationality)
	}
	if req.CurrentlyInCanada != nil {
		addField("currently_in_canada", *req.CurrentlyInCanada)
	}
	if req.CurrentStatus != nil {
		addField("current_status", *req.CurrentStatus)
	}
	if req.SpouseRelationType != nil {
		addField("spouse_relation_type", *req.SpouseRelationType)
	}
	if req.SpouseGivenName != nil {
		addField("spouse_given_name", *req.SpouseGivenName)
	}
	if req.SpouseFamilyName != nil {
		addField("spouse_family_name", *req.SpouseFamilyName)
	}
	if req.Children != nil {
		addField("children", req.Children)
	}
	if req.PersonalHistory != nil {
		addField("personal_history", req.PersonalHistory)
	}
	if req.CohortID != nil {
		addField("cohort_id", *req.CohortID)
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE applicants SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, applicantRetCols)
	args = append(args, id)

	var applicant models.Applicant
	if err := scanApplicant(pool.QueryRow(ctx, query, args...), &applicant); err != nil {
		log.Printf("Error updating applicant %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Applicant not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "applicant", applicant.ID, map[string]interface{}{
		"name": applicant.GivenName + " " + applicant.FamilyName,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    applicant,
		"message": "Applicant updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/applicants/{id}
// Applications and document rows cascade in the schema.
func (h *ApplicantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Applicant ID is required")
		return
	}

	if !checkApplicantAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this applicant")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM applicants WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting applicant %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete applicant")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Applicant not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "applicant", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Applicant deleted successfully",
	})
}
