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
	"casefile-backend/internal/storage"
)

// DocumentHandler manages the review workflow for uploaded files.
// Uploads themselves go through UploadHandler; this handler covers
// listing, review transitions, and deletion.
type DocumentHandler struct {
	db    database.Service
	store storage.Store
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(db database.Service, store storage.Store) *DocumentHandler {
	return &DocumentHandler{db: db, store: store}
}

const documentCols = `id, org_id, application_id, slot_id, file_name, file_size, mime_type,
	storage_key, status, rejection_reason, uploaded_by, uploaded_at,
	reviewed_by, reviewed_at`

func scanDocumentFile(scanner interface {
	Scan(dest ...interface{}) error
}, f *models.DocumentFile) error {
	return scanner.Scan(
		&f.ID, &f.OrgID, &f.ApplicationID, &f.SlotID, &f.FileName, &f.FileSize, &f.MimeType,
		&f.StorageKey, &f.Status, &f.RejectionReason, &f.UploadedBy, &f.UploadedAt,
		&f.ReviewedBy, &f.ReviewedAt,
	)
}

// ── ListByApplication ──────────────────────────────────────────

// ListByApplication handles GET /api/applications/{id}/documents
// Returns the raw upload history for a case, newest first. The grouped,
// status-derived view lives on the checklist endpoint.
func (h *DocumentHandler) ListByApplication(w http.ResponseWriter, r *http.Request) {
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

	rows, err := pool.Query(ctx, `
		SELECT `+documentCols+`
		FROM documents WHERE application_id = $1
		ORDER BY uploaded_at DESC
	`, id)
	if err != nil {
		log.Printf("Error querying documents for application %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch documents")
		return
	}
	defer rows.Close()

	docs := []models.DocumentFile{}
	for rows.Next() {
		var f models.DocumentFile
		if err := scanDocumentFile(rows, &f); err != nil {
			log.Printf("Error scanning document: %v", err)
			continue
		}
		docs = append(docs, f)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": docs,
	})
}

// ── Review ─────────────────────────────────────────────────────

// Review handles PATCH /api/documents/{id}/review
// Moves a file through the review workflow: uploaded -> in_review ->
// verified | rejected. A rejection requires a reason; verification clears
// any previous one. The slot-level effect (rejected wins over uploaded,
// verified wins over everything) falls out of the derivation rules.
func (h *DocumentHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	if !checkDocumentAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this document")
		return
	}

	var req models.ReviewDocumentRequest
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
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	var reason *string
	if req.Status == "rejected" {
		reason = req.RejectionReason
	}

	var doc models.DocumentFile
	err := scanDocumentFile(pool.QueryRow(ctx, `
		UPDATE documents SET
			status = $1, rejection_reason = $2,
			reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $4
		RETURNING `+documentCols,
		req.Status, reason, userID, id,
	), &doc)
	if err != nil {
		log.Printf("Error reviewing document %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}

	logActivity(pool, userID, req.Status, "document", doc.ID, map[string]interface{}{
		"slotId": doc.SlotID, "fileName": doc.FileName,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    doc,
		"message": "Document review recorded",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/documents/{id}
// Removes one upload row and its stored file. Earlier uploads for the
// same slot remain; the slot's status re-derives from what is left.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	if !checkDocumentAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this document")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var storageKey string
	err := pool.QueryRow(ctx,
		"DELETE FROM documents WHERE id = $1 RETURNING storage_key", id).Scan(&storageKey)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}

	if storageKey != "" {
		if err := h.store.Delete(ctx, storageKey); err != nil {
			// Row is gone; an orphaned object is acceptable
			log.Printf("Failed to delete stored file %s: %v", storageKey, err)
		}
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "document", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Document deleted successfully",
	})
}
