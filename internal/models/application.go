package models

import "time"

// Application represents one immigration case for an applicant.
// An applicant can have several applications over time (e.g. a study permit
// followed by a post-graduation work permit).
type Application struct {
	ID              string    `json:"id"`
	OrgID           string    `json:"orgId"`
	ApplicantID     string    `json:"applicantId"`
	ApplicationType string    `json:"applicationType"` // registry key, e.g. "work_permit_outside_canada"
	Stage           string    `json:"stage"`           // intake | collecting | review | submitted | closed
	EmployerID      *string   `json:"employerId,omitempty"`
	AssignedTo      *string   `json:"assignedTo,omitempty"` // case manager user id
	LmiaRequired    bool      `json:"lmiaRequired"`
	PalRequired     bool      `json:"palRequired"`
	GicRequired     bool      `json:"gicRequired"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ApplicationWithApplicant includes the applicant's name for list views.
type ApplicationWithApplicant struct {
	Application
	ApplicantName string  `json:"applicantName"`
	EmployerName  *string `json:"employerName,omitempty"`
}

// ValidStages lists the allowed case stages in order.
var ValidStages = []string{"intake", "collecting", "review", "submitted", "closed"}

// CreateApplicationRequest opens a new case for an applicant.
type CreateApplicationRequest struct {
	ApplicantID     string  `json:"applicantId"`
	ApplicationType string  `json:"applicationType"`
	EmployerID      *string `json:"employerId,omitempty"`
	AssignedTo      *string `json:"assignedTo,omitempty"`
	LmiaRequired    bool    `json:"lmiaRequired"`
	PalRequired     bool    `json:"palRequired"`
	GicRequired     bool    `json:"gicRequired"`
	Notes           *string `json:"notes,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateApplicationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.ApplicantID == "" {
		errors["applicantId"] = "Applicant is required"
	}
	// The application type itself is validated against the rule-config
	// registry in the handler, so unknown types fail with the registry's
	// canonical list rather than a duplicated one here.

	return errors
}

// UpdateApplicationRequest holds the fields that can be partially updated.
type UpdateApplicationRequest struct {
	ApplicationType *string `json:"applicationType,omitempty"`
	Stage           *string `json:"stage,omitempty"`
	EmployerID      *string `json:"employerId,omitempty"`
	AssignedTo      *string `json:"assignedTo,omitempty"`
	LmiaRequired    *bool   `json:"lmiaRequired,omitempty"`
	PalRequired     *bool   `json:"palRequired,omitempty"`
	GicRequired     *bool   `json:"gicRequired,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// Validate checks the updatable fields.
func (r *UpdateApplicationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Stage != nil {
		ok := false
		for _, s := range ValidStages {
			if s == *r.Stage {
				ok = true
				break
			}
		}
		if !ok {
			errors["stage"] = "Stage must be one of: intake, collecting, review, submitted, closed"
		}
	}

	return errors
}
