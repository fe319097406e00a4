package models

import (
	"encoding/json"
	"time"
)

// Applicant represents a client (the person applying) in the database.
// Family and residence history are stored as JSONB: the document-requirement
// rules read them through the fact bag, not through typed columns.
type Applicant struct {
	ID                 string          `json:"id"`
	OrgID              string          `json:"orgId"`
	GivenName          string          `json:"givenName"`
	FamilyName         string          `json:"familyName"`
	Email              *string         `json:"email,omitempty"`
	Phone              *string         `json:"phone,omitempty"`
	DateOfBirth        *string         `json:"dateOfBirth,omitempty"`
	Nationality        *string         `json:"nationality,omitempty"`
	CurrentlyInCanada  bool            `json:"currentlyInCanada"`
	CurrentStatus      *string         `json:"currentStatus,omitempty"` // visitor | worker | student — nil until captured
	SpouseRelationType string          `json:"spouseRelationType"`      // none | spouse | common_law
	SpouseGivenName    *string         `json:"spouseGivenName,omitempty"`
	SpouseFamilyName   *string         `json:"spouseFamilyName,omitempty"`
	Children           json.RawMessage `json:"children"`        // [{ name, dateOfBirth }, ...]
	PersonalHistory    json.RawMessage `json:"personalHistory"` // [{ country, from, to, activity }, ...]
	CohortID           *string         `json:"cohortId,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// HistoryEntry is one personal-history record after JSON decoding.
type HistoryEntry struct {
	Country  string `json:"country"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Activity string `json:"activity,omitempty"`
}

// CreateApplicantRequest holds the intake-form fields for a new client.
type CreateApplicantRequest struct {
	GivenName          string          `json:"givenName"`
	FamilyName         string          `json:"familyName"`
	Email              *string         `json:"email,omitempty"`
	Phone              *string         `json:"phone,omitempty"`
	DateOfBirth        *string         `json:"dateOfBirth,omitempty"`
	Nationality        *string         `json:"nationality,omitempty"`
	CurrentlyInCanada  bool            `json:"currentlyInCanada"`
	CurrentStatus      *string         `json:"currentStatus,omitempty"`
	SpouseRelationType string          `json:"spouseRelationType,omitempty"`
	SpouseGivenName    *string         `json:"spouseGivenName,omitempty"`
	SpouseFamilyName   *string         `json:"spouseFamilyName,omitempty"`
	Children           json.RawMessage `json:"children,omitempty"`
	PersonalHistory    json.RawMessage `json:"personalHistory,omitempty"`
	CohortID           *string         `json:"cohortId,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateApplicantRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if len(r.GivenName) < 1 || len(r.GivenName) > 100 {
		errors["givenName"] = "Given name is required (max 100 characters)"
	}
	if len(r.FamilyName) < 1 || len(r.FamilyName) > 100 {
		errors["familyName"] = "Family name is required (max 100 characters)"
	}
	switch r.SpouseRelationType {
	case "", "none", "spouse", "common_law":
	default:
		errors["spouseRelationType"] = "Relation must be 'none', 'spouse', or 'common_law'"
	}

	return errors
}

// UpdateApplicantRequest holds the fields that can be partially updated.
type UpdateApplicantRequest struct {
	GivenName          *string         `json:"givenName,omitempty"`
	FamilyName         *string         `json:"familyName,omitempty"`
	Email              *string         `json:"email,omitempty"`
	Phone              *string         `json:"phone,omitempty"`
	DateOfBirth        *string         `json:"dateOfBirth,omitempty"`
	Nationality        *string         `json:"nationality,omitempty"`
	CurrentlyInCanada  *bool           `json:"currentlyInCanada,omitempty"`
	CurrentStatus      *string         `json:"currentStatus,omitempty"`
	SpouseRelationType *string         `json:"spouseRelationType,omitempty"`
	SpouseGivenName    *string         `json:"spouseGivenName,omitempty"`
	SpouseFamilyName   *string         `json:"spouseFamilyName,omitempty"`
	Children           json.RawMessage `json:"children,omitempty"`
	PersonalHistory    json.RawMessage `json:"personalHistory,omitempty"`
	CohortID           *string         `json:"cohortId,omitempty"`
}
