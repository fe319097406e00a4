// Package rules implements the document-requirement evaluation engine for
// immigration case files. Given an application's case facts it computes which
// document slots are required, visible, locked, or satisfied, and derives each
// slot's fulfillment status from its uploaded files.
//
// Everything in this package is pure computation with ZERO dependencies on
// HTTP, database, or storage. All I/O (loading applicant rows, building the
// fact bag) happens in the surrounding layers, which is what makes the engine
// testable without a database.
package rules

import "time"

// ── Condition Operators ──────────────────────────────────────────

const (
	OpEq       = "eq"       // strict equality
	OpNeq      = "neq"      // strict inequality
	OpContains = "contains" // array membership
	OpExists   = "exists"   // value present and non-empty
	OpGt       = "gt"       // numeric greater-than
)

// ── Slot Roles ───────────────────────────────────────────────────

const (
	RoleApplicant = "applicant"
	RoleSpouse    = "spouse"
	RoleEmployer  = "employer"
	RoleChild     = "child"
)

// ── Slot Statuses ────────────────────────────────────────────────
// Status is always computed from rule state + uploaded files.
// It is never stored in the database.

const (
	StatusMissing  = "missing"   // no lock, no files
	StatusLocked   = "locked"    // unlock rule failed — uploads rejected
	StatusUploaded = "uploaded"  // file present, not yet reviewed
	StatusInReview = "in_review" // a reviewer has picked it up
	StatusVerified = "verified"  // accepted by a human reviewer
	StatusRejected = "rejected"  // rejected — applicant must re-upload
)

// ── Rule Configuration (pure data, immutable after registration) ─

// RuleCondition is a single declarative predicate over the fact bag.
// Field is a dot path (e.g. "currentStatus.type"); Value is the operand
// for eq/neq/contains/gt and is ignored by exists.
type RuleCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// SlotTemplate describes one document slot in an application's checklist.
// ID and Label may contain {placeholder} tokens that are substituted when
// the slot is produced by a generator.
type SlotTemplate struct {
	ID             string         `json:"id"`
	Label          string         `json:"label"`
	Required       bool           `json:"required"`
	Role           string         `json:"role"` // applicant | spouse | employer | child
	DocumentType   string         `json:"documentType"`
	VisibilityRule *RuleCondition `json:"visibilityRule,omitempty"` // false → slot dropped entirely
	UnlockRule     *RuleCondition `json:"unlockRule,omitempty"`     // false → slot shown but locked
	LockMessage    string         `json:"lockMessage,omitempty"`
}

// Generator produces a variable number of slots from a data collection
// (e.g. one police certificate per residence country).
type Generator struct {
	Type     string       `json:"type"`
	Template SlotTemplate `json:"template"`
}

// GroupConfig is a named cluster of related slots. A group has static
// slots, a generator, or both.
type GroupConfig struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Slots     []SlotTemplate `json:"slots,omitempty"`
	Generator *Generator     `json:"generator,omitempty"`
}

// ApplicationConfig is the full rule set for one application type.
// Loaded once at process start, never mutated at runtime.
type ApplicationConfig struct {
	ApplicationType string        `json:"applicationType"`
	Groups          []GroupConfig `json:"groups"`
}

// ── Fact Bag ─────────────────────────────────────────────────────

// Well-known fact keys consumed directly by the engine. Rule conditions may
// reference any key in the fact-key schema (see registry.go).
const (
	FactDocuments       = "documents"
	FactPersonalHistory = "personalHistory"
)

// FactBag holds all applicant/application state that rule conditions read
// from. Nested values are plain maps so dot paths can walk them.
type FactBag map[string]any

// ── Uploads ──────────────────────────────────────────────────────

// DocumentFile is one uploaded file for a slot. Multiple files may exist per
// slot over time (re-uploads); only the most recent is "active" for display,
// but ALL files for a slot feed status derivation.
type DocumentFile struct {
	ID              string    `json:"id"`
	SlotID          string    `json:"slotId"`
	FileName        string    `json:"fileName"`
	FileSize        int64     `json:"fileSize"`
	MimeType        string    `json:"mimeType"`
	PreviewURL      string    `json:"previewUrl,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
	UploadedBy      string    `json:"uploadedBy"`
	Status          string    `json:"status"` // uploaded | in_review | verified | rejected
	RejectionReason *string   `json:"rejectionReason,omitempty"`
}

// ── Evaluation Output ────────────────────────────────────────────

// DocumentSlot is the evaluated view-model for one slot. Computed fresh on
// every evaluation call and never persisted — it is a projection, not a
// source of truth.
type DocumentSlot struct {
	ID           string         `json:"id"`
	GroupID      string         `json:"groupId"`
	Label        string         `json:"label"`
	Role         string         `json:"role"`
	DocumentType string         `json:"documentType"`
	Required     bool           `json:"required"`
	Visible      bool           `json:"visible"`
	Locked       bool           `json:"locked"`
	LockMessage  string         `json:"lockMessage,omitempty"`
	Status       string         `json:"status"`
	Documents    []DocumentFile `json:"documents"`

	// Metadata from the most recent active file, when one exists.
	FileID          *string    `json:"fileId,omitempty"`
	FileName        *string    `json:"fileName,omitempty"`
	FileSize        *int64     `json:"fileSize,omitempty"`
	MimeType        *string    `json:"mimeType,omitempty"`
	PreviewURL      *string    `json:"previewUrl,omitempty"`
	UploadedAt      *time.Time `json:"uploadedAt,omitempty"`
	UploadedBy      *string    `json:"uploadedBy,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
}

// DocumentGroup is one evaluated group of slots. Groups whose every slot was
// filtered by visibility are suppressed from the result entirely.
type DocumentGroup struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Slots []DocumentSlot `json:"slots"`
}
