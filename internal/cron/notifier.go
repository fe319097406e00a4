// Package cron runs the nightly checklist sweep.
package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"casefile-backend/internal/casefacts"
	"casefile-backend/internal/database"
	"casefile-backend/internal/models"
	"casefile-backend/internal/rules"
)

// StartNotifier launches a background goroutine that runs once per day
// (and once immediately) to re-evaluate every open case and notify the
// assigned case manager about rejected documents and blocked required slots.
func StartNotifier(db database.Service) {
	go func() {
		runCycle(db)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			runCycle(db)
		}
	}()

	log.Println("[cron] checklist notifier started – runs every 24 h")
}

// runCycle re-runs the rules engine for each open application and inserts a
// notification per slot needing action. Notifications are de-duplicated by
// (user_id, entity_id) on the same day.
func runCycle(db database.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool := db.GetPool()
	today := time.Now().Format("2006-01-02")

	// ─── 1. Open cases with an assigned case manager ─────────────────────
	rows, err := pool.Query(ctx, `
		SELECT ap.id, ap.assigned_to::text
		FROM applications ap
		WHERE ap.stage NOT IN ('submitted', 'closed')
		  AND ap.assigned_to IS NOT NULL
	`)
	if err != nil {
		log.Printf("[cron] error querying open applications: %v", err)
		return
	}

	type openCase struct {
		ID         string
		AssignedTo string
	}

	var cases []openCase
	for rows.Next() {
		var c openCase
		if err := rows.Scan(&c.ID, &c.AssignedTo); err != nil {
			log.Printf("[cron] scan error: %v", err)
			continue
		}
		cases = append(cases, c)
	}
	rows.Close()

	if len(cases) == 0 {
		log.Println("[cron] no open assigned applications found")
		return
	}

	// ─── 2. Re-evaluate each case and insert notifications ───────────────
	inserted := 0

	for _, c := range cases {
		applicant, application, files, err := loadCase(ctx, pool, c.ID)
		if err != nil {
			log.Printf("[cron] skipping application %s: %v", c.ID, err)
			continue
		}

		cfg, err := rules.Lookup(application.ApplicationType)
		if err != nil {
			log.Printf("[cron] application %s has unregistered type %q", c.ID, application.ApplicationType)
			continue
		}

		facts := casefacts.BuildFactBag(applicant, application, files)
		groups := rules.EvaluateDocuments(facts, cfg)
		name := casefacts.FullName(applicant)

		for _, g := range groups {
			for _, s := range g.Slots {
				var title, message, nType string

				switch {
				case s.Status == rules.StatusRejected:
					reason := ""
					if s.RejectionReason != nil {
						reason = *s.RejectionReason
					}
					title = fmt.Sprintf("Document rejected – %s", s.Label)
					message = fmt.Sprintf("%s: %s was rejected. %s", name, s.Label, reason)
					nType = "document_rejected"

				case s.Locked && s.Required:
					title = fmt.Sprintf("Checklist blocked – %s", s.Label)
					message = fmt.Sprintf("%s: %s is required but locked. %s", name, s.Label, s.LockMessage)
					nType = "checklist_blocked"

				default:
					continue
				}

				// De-duplicate: one notification per (user, slot, day).
				entityID := c.ID + ":" + s.ID
				var exists bool
				_ = pool.QueryRow(ctx, `
					SELECT EXISTS(
						SELECT 1 FROM notifications
						WHERE user_id     = $1
						  AND entity_type = 'slot'
						  AND entity_id   = $2
						  AND created_at::date = $3::date
					)
				`, c.AssignedTo, entityID, today).Scan(&exists)

				if exists {
					continue
				}

				_, err := pool.Exec(ctx, `
					INSERT INTO notifications (user_id, title, message, type, entity_type, entity_id)
					VALUES ($1, $2, $3, $4, 'slot', $5)
				`, c.AssignedTo, title, message, nType, entityID)
				if err != nil {
					log.Printf("[cron] insert notification error: %v", err)
					continue
				}
				inserted++
			}
		}
	}

	log.Printf("[cron] checklist sweep complete – %d new notifications across %d open cases", inserted, len(cases))
}

// loadCase fetches one application with its applicant and document rows.
func loadCase(ctx context.Context, pool *pgxpool.Pool, id string) (models.Applicant, models.Application, []models.DocumentFile, error) {
	var applicant models.Applicant
	var application models.Application

	err := pool.QueryRow(ctx, `
		SELECT id, org_id, applicant_id, application_type, stage,
			employer_id, assigned_to, lmia_required, pal_required, gic_required,
			notes, created_at, updated_at
		FROM applications WHERE id = $1
	`, id).Scan(
		&application.ID, &application.OrgID, &application.ApplicantID,
		&application.ApplicationType, &application.Stage,
		&application.EmployerID, &application.AssignedTo,
		&application.LmiaRequired, &application.PalRequired, &application.GicRequired,
		&application.Notes, &application.CreatedAt, &application.UpdatedAt,
	)
	if err != nil {
		return applicant, application, nil, fmt.Errorf("load application: %w", err)
	}

	err = pool.QueryRow(ctx, `
		SELECT id, org_id, given_name, family_name, email, phone,
			date_of_birth::text, nationality, currently_in_canada, current_status,
			spouse_relation_type, spouse_given_name, spouse_family_name,
			children, personal_history, cohort_id, created_at, updated_at
		FROM applicants WHERE id = $1
	`, application.ApplicantID).Scan(
		&applicant.ID, &applicant.OrgID, &applicant.GivenName, &applicant.FamilyName,
		&applicant.Email, &applicant.Phone,
		&applicant.DateOfBirth, &applicant.Nationality,
		&applicant.CurrentlyInCanada, &applicant.CurrentStatus,
		&applicant.SpouseRelationType, &applicant.SpouseGivenName, &applicant.SpouseFamilyName,
		&applicant.Children, &applicant.PersonalHistory, &applicant.CohortID,
		&applicant.CreatedAt, &applicant.UpdatedAt,
	)
	if err != nil {
		return applicant, application, nil, fmt.Errorf("load applicant: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT id, org_id, application_id, slot_id, file_name, file_size, mime_type,
			storage_key, status, rejection_reason, uploaded_by, uploaded_at,
			reviewed_by, reviewed_at
		FROM documents WHERE application_id = $1
	`, id)
	if err != nil {
		return applicant, application, nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	var files []models.DocumentFile
	for rows.Next() {
		var f models.DocumentFile
		if err := rows.Scan(
			&f.ID, &f.OrgID, &f.ApplicationID, &f.SlotID, &f.FileName, &f.FileSize, &f.MimeType,
			&f.StorageKey, &f.Status, &f.RejectionReason, &f.UploadedBy, &f.UploadedAt,
			&f.ReviewedBy, &f.ReviewedAt,
		); err != nil {
			log.Printf("[cron] document scan error: %v", err)
			continue
		}
		files = append(files, f)
	}

	return applicant, application, files, nil
}
