package models

// ── Cohorts ──────────────────────────────────────────────────────

// Cohort groups applicants recruited in the same intake batch
// (e.g. "Spring 2026 Farm Workers").
type Cohort struct {
	ID         string  `json:"id"`
	OrgID      string  `json:"orgId"`
	Name       string  `json:"name"`
	Program    *string `json:"program,omitempty"` // e.g. "SAWP", "AgriFood Pilot"
	IntakeDate *string `json:"intakeDate,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

// CohortSummary includes the applicant count per cohort.
type CohortSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Program        *string `json:"program,omitempty"`
	ApplicantCount int     `json:"applicantCount"`
}

// CreateCohortRequest holds the fields for creating a cohort.
type CreateCohortRequest struct {
	Name       string  `json:"name"`
	Program    *string `json:"program,omitempty"`
	IntakeDate *string `json:"intakeDate,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateCohortRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.Name) < 2 {
		errors["name"] = "Cohort name is required (min 2 characters)"
	}
	return errors
}

// UpdateCohortRequest holds the fields that can be partially updated.
type UpdateCohortRequest struct {
	Name       *string `json:"name,omitempty"`
	Program    *string `json:"program,omitempty"`
	IntakeDate *string `json:"intakeDate,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// ── Employers ────────────────────────────────────────────────────

// Employer is a Canadian employer backing job offers on work-permit cases.
type Employer struct {
	ID             string  `json:"id"`
	OrgID          string  `json:"orgId"`
	Name           string  `json:"name"`
	BusinessNumber *string `json:"businessNumber,omitempty"`
	ContactEmail   *string `json:"contactEmail,omitempty"`
	Province       *string `json:"province,omitempty"` // two-letter code, e.g. "BC"
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// CreateEmployerRequest holds the fields for registering an employer.
type CreateEmployerRequest struct {
	Name           string  `json:"name"`
	BusinessNumber *string `json:"businessNumber,omitempty"`
	ContactEmail   *string `json:"contactEmail,omitempty"`
	Province       *string `json:"province,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateEmployerRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.Name) < 2 {
		errors["name"] = "Employer name is required (min 2 characters)"
	}
	return errors
}

// UpdateEmployerRequest holds the fields that can be partially updated.
type UpdateEmployerRequest struct {
	Name           *string `json:"name,omitempty"`
	BusinessNumber *string `json:"businessNumber,omitempty"`
	ContactEmail   *string `json:"contactEmail,omitempty"`
	Province       *string `json:"province,omitempty"`
}
