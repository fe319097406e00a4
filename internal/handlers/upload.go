package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"casefile-backend/internal/casefacts"
	"casefile-backend/internal/ctxkeys"
	"casefile-backend/internal/database"
	"casefile-backend/internal/models"
	"casefile-backend/internal/rules"
	"casefile-backend/internal/storage"
)

// Allowed file types and size limit for uploads.
const maxUploadSize = 10 << 20 // 10 MB

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// UploadHandler accepts file uploads into checklist slots and serves
// stored files back. An upload is only accepted for a slot the rules
// engine currently derives as visible and unlocked for the case.
type UploadHandler struct {
	db    database.Service
	store storage.Store
}

// NewUploadHandler creates an UploadHandler with the given storage backend.
func NewUploadHandler(db database.Service, store storage.Store) *UploadHandler {
	return &UploadHandler{db: db, store: store}
}

// Upload handles POST /api/applications/{id}/documents/{slotId}
// Accepts multipart/form-data with a "file" field. The new row is inserted
// with status "uploaded"; earlier uploads for the slot are kept so the
// review history survives re-uploads.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	slotID := chi.URLParam(r, "slotId")
	if applicationID == "" || slotID == "" {
		JSONError(w, http.StatusBadRequest, "Application ID and slot ID are required")
		return
	}

	pool := h.db.GetPool()

	if !checkApplicationAccess(r.Context(), pool, applicationID) {
		JSONError(w, http.StatusForbidden, "Access denied to this application")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	// Re-derive the checklist to decide whether this slot accepts uploads.
	cc, err := loadCaseContext(ctx, pool, applicationID)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Application not found")
		return
	}

	cfg, err := rules.Lookup(cc.application.ApplicationType)
	if err != nil {
		log.Printf("Application %s has unregistered type %q", applicationID, cc.application.ApplicationType)
		JSONError(w, http.StatusInternalServerError, "No rule configuration for this application type")
		return
	}

	facts := casefacts.BuildFactBag(cc.applicant, cc.application, cc.files)
	groups := rules.EvaluateDocuments(facts, cfg)

	slot, found := rules.FindSlot(groups, slotID)
	if !found {
		JSONError(w, http.StatusNotFound, "No such document slot for this application")
		return
	}
	if slot.Locked {
		msg := slot.LockMessage
		if msg == "" {
			msg = "This document slot is locked until more intake information is captured"
		}
		JSONError(w, http.StatusLocked, msg)
		return
	}

	// Enforce size limit before reading body
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		JSONError(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Missing 'file' field in form data.")
		return
	}
	defer file.Close()

	// Validate file type by reading the first 512 bytes (MIME sniffing)
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		JSONError(w, http.StatusBadRequest, "Could not read file.")
		return
	}
	contentType := http.DetectContentType(buffer[:n])

	if !allowedTypes[contentType] {
		JSONError(w, http.StatusBadRequest, fmt.Sprintf(
			"File type '%s' not allowed. Accepted: PDF, JPG, PNG.", contentType,
		))
		return
	}

	// Reset file reader to beginning after MIME sniffing
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to process file.")
		return
	}

	safeName := sanitizeFilename(header.Filename)
	storageKey := fmt.Sprintf("%s/%s/%s/%s_%s",
		cc.application.OrgID, applicationID, slotID, uuid.NewString(), safeName)

	info, err := h.store.Save(ctx, storageKey, file, contentType)
	if err != nil {
		log.Printf("Upload failed for application %s slot %s: %v", applicationID, slotID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	var doc models.DocumentFile
	err = scanDocumentFile(pool.QueryRow(ctx, `
		INSERT INTO documents (
			org_id, application_id, slot_id, file_name, file_size, mime_type,
			storage_key, status, uploaded_by
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'uploaded',$8)
		RETURNING `+documentCols,
		cc.application.OrgID, applicationID, slotID,
		info.FileName, info.FileSize, contentType, storageKey, userID,
	), &doc)
	if err != nil {
		log.Printf("Error inserting document row: %v", err)
		// Best effort: remove the stored object so it doesn't leak
		if delErr := h.store.Delete(ctx, storageKey); delErr != nil {
			log.Printf("Failed to clean up stored file %s: %v", storageKey, delErr)
		}
		JSONError(w, http.StatusInternalServerError, "Failed to record upload.")
		return
	}

	logActivity(pool, userID, "uploaded", "document", doc.ID, map[string]interface{}{
		"slotId": slotID, "fileName": doc.FileName,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    doc,
		"message": "Document uploaded successfully",
	})
}

// ServeFile handles GET /api/files/*
// For R2 storage, redirects to the public CDN URL. For local storage,
// serves from disk.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filePath := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filePath == "" {
		JSONError(w, http.StatusBadRequest, "File path required.")
		return
	}

	// If the store returns an https:// URL (R2), redirect to CDN
	if url := h.store.URL(filePath); strings.HasPrefix(url, "https://") {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}

	if local, ok := h.store.(*storage.LocalStore); ok {
		onDisk, err := local.Path(filePath)
		if err != nil {
			JSONError(w, http.StatusBadRequest, "Invalid file path.")
			return
		}
		http.ServeFile(w, r, onDisk)
		return
	}

	JSONError(w, http.StatusNotFound, "File not found.")
}

// sanitizeFilename removes path separators and unsafe characters.
func sanitizeFilename(name string) string {
	// Keep only the base name (no directory components)
	name = filepath.Base(name)
	// Replace spaces with underscores for URL safety
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
