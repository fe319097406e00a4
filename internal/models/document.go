package models

import "time"

// DocumentFile represents one uploaded file row. A slot accumulates rows
// over time (re-uploads); the most recent is the "active" file for display,
// but the full set feeds slot status derivation in the rules engine.
//
// The review status lives here; the slot-level status (missing/locked/...)
// is always computed by the engine and never stored.
type DocumentFile struct {
	ID              string    `json:"id"`
	OrgID           string    `json:"orgId"`
	ApplicationID   string    `json:"applicationId"`
	SlotID          string    `json:"slotId"`
	FileName        string    `json:"fileName"`
	FileSize        int64     `json:"fileSize"`
	MimeType        string    `json:"mimeType"`
	StorageKey      string    `json:"-"` // object-store key, not exposed
	Status          string    `json:"status"` // uploaded | in_review | verified | rejected
	RejectionReason *string   `json:"rejectionReason,omitempty"`
	UploadedBy      string    `json:"uploadedBy"`
	UploadedAt      time.Time `json:"uploadedAt"`
	ReviewedBy      *string   `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
}

// ReviewDocumentRequest moves a file through the review workflow.
type ReviewDocumentRequest struct {
	Status          string  `json:"status"` // in_review | verified | rejected
	RejectionReason *string `json:"rejectionReason,omitempty"`
}

// Validate checks the review transition.
func (r *ReviewDocumentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	switch r.Status {
	case "in_review", "verified":
	case "rejected":
		if r.RejectionReason == nil || *r.RejectionReason == "" {
			errors["rejectionReason"] = "A rejection reason is required when rejecting a document"
		}
	default:
		errors["status"] = "Status must be 'in_review', 'verified', or 'rejected'"
	}

	return errors
}
