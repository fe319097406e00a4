package models

import "casefile-backend/internal/rules"

// ── Dashboard Metrics ────────────────────────────────────────────

// DashboardMetrics holds the main dashboard statistics.
type DashboardMetrics struct {
	TotalApplicants    int `json:"totalApplicants"`
	OpenApplications   int `json:"openApplications"`
	DocumentsInReview  int `json:"documentsInReview"`
	DocumentsRejected  int `json:"documentsRejected"`
	DocumentsVerified  int `json:"documentsVerified"`
	SubmittedThisMonth int `json:"submittedThisMonth"`
}

// ── Case Readiness ───────────────────────────────────────────────

// CaseReadiness is the per-application readiness row on the dashboard,
// computed by re-running the rules engine for each open case.
type CaseReadiness struct {
	ApplicationID   string          `json:"applicationId"`
	ApplicantName   string          `json:"applicantName"`
	ApplicationType string          `json:"applicationType"`
	Stage           string          `json:"stage"`
	Readiness       rules.Readiness `json:"readiness"`
}

// ── Attention Items ──────────────────────────────────────────────

// AttentionItem flags a slot that needs someone's action: a rejected
// document awaiting re-upload, or a locked required slot blocked on
// missing intake facts.
type AttentionItem struct {
	ApplicationID string `json:"applicationId"`
	ApplicantName string `json:"applicantName"`
	SlotID        string `json:"slotId"`
	SlotLabel     string `json:"slotLabel"`
	Reason        string `json:"reason"` // "rejected" | "locked_required"
	Detail        string `json:"detail"` // rejection reason or lock message
}
