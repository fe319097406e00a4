package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"casefile-backend/internal/casefacts"
	"casefile-backend/internal/database"
	"casefile-backend/internal/models"
	"casefile-backend/internal/rules"
)

// DashboardHandler serves aggregate views for the case-manager dashboard.
type DashboardHandler struct {
	db database.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db database.Service) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// ── Metrics ────────────────────────────────────────────────────

// GetMetrics handles GET /api/dashboard/metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var m models.DashboardMetrics

	// Each count runs as its own scoped query. The dashboard tolerates a
	// partially failed panel better than one all-or-nothing query.
	// The query must end in a WHERE clause for the scope filter to extend.
	count := func(dst *int, query, colExpr string) {
		args := []interface{}{}
		query, args, _ = appendOrgScope(ctx, query, args, 1, colExpr)
		if err := pool.QueryRow(ctx, query, args...).Scan(dst); err != nil {
			log.Printf("Error computing dashboard metric: %v", err)
		}
	}

	count(&m.TotalApplicants,
		"SELECT COUNT(*)::int FROM applicants a WHERE 1=1", "a.org_id")
	count(&m.OpenApplications,
		"SELECT COUNT(*)::int FROM applications ap WHERE ap.stage NOT IN ('submitted', 'closed')", "ap.org_id")
	count(&m.DocumentsInReview,
		"SELECT COUNT(*)::int FROM documents d WHERE d.status = 'in_review'", "d.org_id")
	count(&m.DocumentsRejected,
		"SELECT COUNT(*)::int FROM documents d WHERE d.status = 'rejected'", "d.org_id")
	count(&m.DocumentsVerified,
		"SELECT COUNT(*)::int FROM documents d WHERE d.status = 'verified'", "d.org_id")
	count(&m.SubmittedThisMonth,
		"SELECT COUNT(*)::int FROM applications ap WHERE ap.stage = 'submitted' AND ap.updated_at >= date_trunc('month', CURRENT_DATE)", "ap.org_id")

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": m,
	})
}

// ── Readiness ──────────────────────────────────────────────────

// GetCaseReadiness handles GET /api/dashboard/readiness
// Runs the rules engine for every open case in scope and reports the
// per-case readiness percentage. Open cases are capped at 200 per call:
// this view backs a dashboard widget, not a batch export.
func (h *DashboardHandler) GetCaseReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE ap.stage NOT IN ('submitted', 'closed')"
	args := []interface{}{}
	argIdx := 1
	where, args, _ = appendOrgScope(ctx, where, args, argIdx, "ap.org_id")

	rows, err := pool.Query(ctx, `
		SELECT ap.id FROM applications ap `+where+`
		ORDER BY ap.updated_at DESC
		LIMIT 200
	`, args...)
	if err != nil {
		log.Printf("Error querying open applications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch case readiness")
		return
	}

	ids := []string{}
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil {
			ids = append(ids, id)
		}
	}
	rows.Close()

	results := []models.CaseReadiness{}
	for _, id := range ids {
		cc, err := loadCaseContext(ctx, pool, id)
		if err != nil {
			log.Printf("Skipping application %s in readiness view: %v", id, err)
			continue
		}
		cfg, err := rules.Lookup(cc.application.ApplicationType)
		if err != nil {
			log.Printf("Skipping application %s: unregistered type %q", id, cc.application.ApplicationType)
			continue
		}

		facts := casefacts.BuildFactBag(cc.applicant, cc.application, cc.files)
		groups := rules.EvaluateDocuments(facts, cfg)

		results = append(results, models.CaseReadiness{
			ApplicationID:   cc.application.ID,
			ApplicantName:   casefacts.FullName(cc.applicant),
			ApplicationType: cc.application.ApplicationType,
			Stage:           cc.application.Stage,
			Readiness:       rules.ComputeReadiness(groups),
		})
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": results,
	})
}

// ── Attention ──────────────────────────────────────────────────

// GetAttention handles GET /api/dashboard/attention
// Flags slots that need someone's action across all open cases in scope:
// rejected documents awaiting re-upload and locked required slots that
// are blocked on missing intake facts.
func (h *DashboardHandler) GetAttention(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE ap.stage NOT IN ('submitted', 'closed')"
	args := []interface{}{}
	argIdx := 1
	where, args, _ = appendOrgScope(ctx, where, args, argIdx, "ap.org_id")

	rows, err := pool.Query(ctx, `
		SELECT ap.id FROM applications ap `+where+`
		ORDER BY ap.updated_at DESC
		LIMIT 200
	`, args...)
	if err != nil {
		log.Printf("Error querying open applications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch attention items")
		return
	}

	ids := []string{}
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil {
			ids = append(ids, id)
		}
	}
	rows.Close()

	items := []models.AttentionItem{}
	for _, id := range ids {
		cc, err := loadCaseContext(ctx, pool, id)
		if err != nil {
			continue
		}
		cfg, err := rules.Lookup(cc.application.ApplicationType)
		if err != nil {
			continue
		}

		facts := casefacts.BuildFactBag(cc.applicant, cc.application, cc.files)
		groups := rules.EvaluateDocuments(facts, cfg)
		name := casefacts.FullName(cc.applicant)

		for _, g := range groups {
			for _, s := range g.Slots {
				switch {
				case s.Status == rules.StatusRejected:
					detail := ""
					if s.RejectionReason != nil {
						detail = *s.RejectionReason
					}
					items = append(items, models.AttentionItem{
						ApplicationID: id,
						ApplicantName: name,
						SlotID:        s.ID,
						SlotLabel:     s.Label,
						Reason:        "rejected",
						Detail:        detail,
					})
				case s.Locked && s.Required:
					items = append(items, models.AttentionItem{
						ApplicationID: id,
						ApplicantName: name,
						SlotID:        s.ID,
						SlotLabel:     s.Label,
						Reason:        "locked_required",
						Detail:        s.LockMessage,
					})
				}
			}
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": items,
	})
}
