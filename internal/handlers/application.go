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
	"github.com/jackc/pgx/v5/pgxpool"

	"casefile-backend/internal/casefacts"
	"casefile-backend/internal/ctxkeys"
	"casefile-backend/internal/database"
	"casefile-backend/internal/models"
	"casefile-backend/internal/rules"
)

// ApplicationHandler manages immigration cases and their document checklists.
type ApplicationHandler struct {
	db database.Service
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(db database.Service) *ApplicationHandler {
	return &ApplicationHandler{db: db}
}

// ── Columns ────────────────────────────────────────────────────
const applicationCols = `ap.id, ap.org_id, ap.applicant_id, ap.application_type, ap.stage,
	ap.employer_id, ap.assigned_to, ap.lmia_required, ap.pal_required, ap.gic_required,
	ap.notes, ap.created_at, ap.updated_at`

const applicationRetCols = `id, org_id, applicant_id, application_type, stage,
	employer_id, assigned_to, lmia_required, pal_required, gic_required,
	notes, created_at, updated_at`

// ── Scan Helpers ───────────────────────────────────────────────

func scanApplication(scanner interface {
	Scan(dest ...interface{}) error
}, app *models.Application) error {
	return scanner.Scan(
		&app.ID, &app.OrgID, &app.ApplicantID, &app.ApplicationType, &app.Stage,
		&app.EmployerID, &app.AssignedTo, &app.LmiaRequired, &app.PalRequired, &app.GicRequired,
		&app.Notes, &app.CreatedAt, &app.UpdatedAt,
	)
}

func scanApplicationWithApplicant(scanner interface {
	Scan(dest ...interface{}) error
}, app *models.ApplicationWithApplicant) error {
	return scanner.Scan(
		&app.ID, &app.OrgID, &app.ApplicantID, &app.ApplicationType, &app.Stage,
		&app.EmployerID, &app.AssignedTo, &app.LmiaRequired, &app.PalRequired, &app.GicRequired,
		&app.Notes, &app.CreatedAt, &app.UpdatedAt,
		&app.ApplicantName, &app.EmployerName,
	)
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/applications
// The application type must have a registered rule configuration; the
// stored type is normalized so the checklist lookup cannot drift from it.
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateApplicationRequest
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

	appType := casefacts.ResolveApplicationType(req.ApplicationType)
	if _, err := rules.Lookup(appType); err != nil {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Unknown application type",
			"details": map[string]interface{}{"applicationType": appType, "known": rules.RegisteredTypes()},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	if !checkApplicantAccess(ctx, pool, req.ApplicantID) {
		JSONError(w, http.StatusForbidden, "Access denied to this applicant")
		return
	}
	if req.EmployerID != nil && !checkEmployerAccess(ctx, pool, *req.EmployerID) {
		JSONError(w, http.StatusForbidden, "Access denied to this employer")
		return
	}

	// The case inherits the applicant's organization
	var orgID string
	if err := pool.QueryRow(ctx,
		"SELECT org_id::text FROM applicants WHERE id = $1", req.ApplicantID).Scan(&orgID); err != nil {
		JSONError(w, http.StatusNotFound, "Applicant not found")
		return
	}

	var app models.Application
	err := scanApplication(pool.QueryRow(ctx, `
		INSERT INTO applications (
			org_id, applicant_id, application_type, stage,
			employer_id, assigned_to, lmia_required, pal_required, gic_required, notes
		)
		VALUES ($1,$2,$3,'intake',$4,$5,$6,$7,$8,$9)
		RETURNING `+applicationRetCols,
		orgID, req.ApplicantID, appType,
		req.EmployerID, req.AssignedTo, req.LmiaRequired, req.PalRequired, req.GicRequired, req.Notes,
	), &app)
	if err != nil {
		log.Printf("Error creating application: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create application")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "application", app.ID, map[string]interface{}{
		"applicationType": app.ApplicationType,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    app,
		"message": "Application created successfully",
	})
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/applications
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
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

	stage := q.Get("stage")
	appType := q.Get("application_type")
	applicantID := q.Get("applicant_id")
	employerID := q.Get("employer_id")
	assignedTo := q.Get("assigned_to")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	where, args, argIdx = appendOrgScope(ctx, where, args, argIdx, "ap.org_id")

	if stage != "" {
		where += fmt.Sprintf(" AND ap.stage = $%d", argIdx)
		args = append(args, stage)
		argIdx++
	}
	if appType != "" {
		where += fmt.Sprintf(" AND ap.application_type = $%d", argIdx)
		args = append(args, casefacts.ResolveApplicationType(appType))
		argIdx++
	}
	if applicantID != "" {
		where += fmt.Sprintf(" AND ap.applicant_id = $%d", argIdx)
		args = append(args, applicantID)
		argIdx++
	}
	if employerID != "" {
		where += fmt.Sprintf(" AND ap.employer_id = $%d", argIdx)
		args = append(args, employerID)
		argIdx++
	}
	if assignedTo != "" {
		where += fmt.Sprintf(" AND ap.assigned_to = $%d", argIdx)
		args = append(args, assignedTo)
		argIdx++
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM applications ap "+where, args...).Scan(&total); err != nil {
		log.Printf("Error counting applications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch applications")
		return
	}

	query := fmt.Sprintf(`
		SELECT %s,
			(a.given_name || ' ' || a.family_name) AS applicant_name,
			e.name AS employer_name
		FROM applications ap
		JOIN applicants a ON a.id = ap.applicant_id
		LEFT JOIN employers e ON e.id = ap.employer_id
		%s
		ORDER BY ap.created_at DESC
		LIMIT $%d OFFSET $%d
	`, applicationCols, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying applications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch applications")
		return
	}
	defer rows.Close()

	applications := []models.ApplicationWithApplicant{}
	for rows.Next() {
		var app models.ApplicationWithApplicant
		if err := scanApplicationWithApplicant(rows, &app); err != nil {
			log.Printf("Error scanning application: %v", err)
			continue
		}
		applications = append(applications, app)
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data: applications,
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/applications/{id}
func (h *ApplicationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var app models.ApplicationWithApplicant
	err := scanApplicationWithApplicant(pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s,
			(a.given_name || ' ' || a.family_name) AS applicant_name,
			e.name AS employer_name
		FROM applications ap
		JOIN applicants a ON a.id = ap.applicant_id
		LEFT JOIN employers e ON e.id = ap.employer_id
		WHERE ap.id = $1
	`, applicationCols), id), &app)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Application not found")
		return
	}

	if !checkOrgAccess(r.Context(), app.OrgID) {
		JSONError(w, http.StatusForbidden, "Access denied to this application")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": app,
	})
}

// ── Checklist ──────────────────────────────────────────────────

// GetChecklist handles GET /api/applications/{id}/checklist
// Loads the case, builds the fact bag, and runs the rules engine. The
// checklist is derived fresh on every call; slot statuses are never stored.
func (h *ApplicationHandler) GetChecklist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	cc, err := loadCaseContext(ctx, pool, id)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Application not found")
		return
	}

	if !checkOrgAccess(r.Context(), cc.application.OrgID) {
		JSONError(w, http.StatusForbidden, "Access denied to this application")
		return
	}

	cfg, err := rules.Lookup(cc.application.ApplicationType)
	if err != nil {
		log.Printf("Application %s has unregistered type %q", id, cc.application.ApplicationType)
		JSONError(w, http.StatusInternalServerError, "No rule configuration for this application type")
		return
	}

	facts := casefacts.BuildFactBag(cc.applicant, cc.application, cc.files)
	groups := rules.EvaluateDocuments(facts, cfg)
	readiness := rules.ComputeReadiness(groups)

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"applicationId":   cc.application.ID,
			"applicationType": cc.application.ApplicationType,
			"stage":           cc.application.Stage,
			"applicant":       casefacts.BuildCaseFacts(cc.applicant, cc.application),
			"groups":          groups,
			"readiness":       readiness,
		},
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/applications/{id}
func (h *ApplicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	if !checkApplicationAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this application")
		return
	}

	var req models.UpdateApplicationRequest
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

	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.ApplicationType != nil {
		appType := casefacts.ResolveApplicationType(*req.ApplicationType)
		if _, err := rules.Lookup(appType); err != nil {
			JSONError(w, http.StatusUnprocessableEntity, "Unknown application type")
			return
		}
		addField("application_type", appType)
	}
	if req.Stage != nil {
		addField("stage", *req.Stage)
	}
	if req.EmployerID != nil {
		if !checkEmployerAccess(ctx, pool, *req.EmployerID) {
			JSONError(w, http.StatusForbidden, "Access denied to this employer")
			return
		}
		addField("employer_id", *req.EmployerID)
	}
	if req.AssignedTo != nil {
		addField("assigned_to", *req.AssignedTo)
	}
	if req.LmiaRequired != nil {
		addField("lmia_required", *req.LmiaRequired)
	}
	if req.PalRequired != nil {
		addField("pal_required", *req.PalRequired)
	}
	if req.GicRequired != nil {
		addField("gic_required", *req.GicRequired)
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
		UPDATE applications SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, applicationRetCols)
	args = append(args, id)

	var app models.Application
	if err := scanApplication(pool.QueryRow(ctx, query, args...), &app); err != nil {
		log.Printf("Error updating application %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Application not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "application", app.ID, map[string]interface{}{
		"stage": app.Stage,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    app,
		"message": "Application updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/applications/{id}
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	if !checkApplicationAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this application")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM applications WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting application %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete application")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Application not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "application", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Application deleted successfully",
	})
}

// ── Case Context ───────────────────────────────────────────────

// caseContext bundles everything the rules engine needs for one case.
type caseContext struct {
	application models.Application
	applicant   models.Applicant
	files       []models.DocumentFile
}

// loadCaseContext fetches the application, its applicant, and every
// uploaded document row for the case.
func loadCaseContext(ctx context.Context, pool *pgxpool.Pool, applicationID string) (*caseContext, error) {
	var cc caseContext

	err := scanApplication(pool.QueryRow(ctx,
		"SELECT "+applicationCols+" FROM applications ap WHERE ap.id = $1", applicationID),
		&cc.application)
	if err != nil {
		return nil, fmt.Errorf("load application %s: %w", applicationID, err)
	}

	err = scanApplicant(pool.QueryRow(ctx,
		"SELECT "+applicantCols+" FROM applicants a WHERE a.id = $1", cc.application.ApplicantID),
		&cc.applicant)
	if err != nil {
		return nil, fmt.Errorf("load applicant for application %s: %w", applicationID, err)
	}

	rows, err := pool.Query(ctx, `
		SELECT id, org_id, application_id, slot_id, file_name, file_size, mime_type,
			storage_key, status, rejection_reason, uploaded_by, uploaded_at,
			reviewed_by, reviewed_at
		FROM documents WHERE application_id = $1
		ORDER BY uploaded_at DESC
	`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("load documents for application %s: %w", applicationID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f models.DocumentFile
		if err := scanDocumentFile(rows, &f); err != nil {
			log.Printf("Error scanning document row: %v", err)
			continue
		}
		cc.files = append(cc.files, f)
	}

	return &cc, nil
}
