package rules

// Compiled-in rule configurations. There is exactly ONE registry shared by
// every consumer (checklist endpoints, upload authorization, the nightly
// notifier), so the rules cannot drift between surfaces.

func init() {
	MustRegister(workPermitOutsideCanada)
	MustRegister(studyPermit)
}

// workPermitOutsideCanada is the checklist for applicants applying for a
// work permit from outside Canada.
var workPermitOutsideCanada = ApplicationConfig{
	ApplicationType: "work_permit_outside_canada",
	Groups: []GroupConfig{
		{
			ID:    "identity",
			Title: "Identity & Status",
			Slots: []SlotTemplate{
				{
					ID:           "passport",
					Label:        "Passport (all stamped pages)",
					Required:     true,
					Role:         RoleApplicant,
					DocumentType: "passport",
				},
				{
					ID:           "photo",
					Label:        "Digital Photo",
					Required:     true,
					Role:         RoleApplicant,
					DocumentType: "photo",
				},
				{
					// Only applicants already in Canada hold a status document,
					// and they must tell us which status before uploading it.
					ID:             "status_doc",
					Label:          "Proof of Current Immigration Status",
					Required:       true,
					Role:           RoleApplicant,
					DocumentType:   "status_document",
					VisibilityRule: &RuleCondition{Field: "currentlyInCanada", Operator: OpEq, Value: true},
					UnlockRule:     &RuleCondition{Field: "currentStatus", Operator: OpExists},
					LockMessage:    "Select your current immigration status in Canada before uploading a status document.",
				},
			},
		},
		{
			ID:    "family",
			Title: "Family",
			Slots: []SlotTemplate{
				{
					ID:             "marriage_cert",
					Label:          "Marriage Certificate",
					Required:       true,
					Role:           RoleSpouse,
					DocumentType:   "marriage_certificate",
					VisibilityRule: &RuleCondition{Field: "spouseRelationType", Operator: OpEq, Value: "spouse"},
					UnlockRule:     &RuleCondition{Field: "spouseFamilyName", Operator: OpExists},
					LockMessage:    "Complete your spouse's details in the intake form before uploading the marriage certificate.",
				},
				{
					ID:             "common_law_evidence",
					Label:          "Proof of Common-Law Relationship (IMM 5409)",
					Required:       true,
					Role:           RoleSpouse,
					DocumentType:   "relationship_evidence",
					VisibilityRule: &RuleCondition{Field: "spouseRelationType", Operator: OpEq, Value: "common_law"},
				},
				{
					ID:             "spouse_passport",
					Label:          "Spouse's Passport",
					Required:       true,
					Role:           RoleSpouse,
					DocumentType:   "passport",
					VisibilityRule: &RuleCondition{Field: "spouseRelationType", Operator: OpNeq, Value: "none"},
				},
			},
		},
		{
			// One police certificate per residence country outside Canada.
			ID:    "background",
			Title: "Travel & Background",
			Generator: &Generator{
				Type: GeneratorResidenceHistoryCountries,
				Template: SlotTemplate{
					ID:           "police_certificate_{country_code}",
					Label:        "Police Certificate - {country_name}",
					Required:     true,
					Role:         RoleApplicant,
					DocumentType: "police_certificate",
				},
			},
		},
		{
			ID:    "employment",
			Title: "Employment",
			Slots: []SlotTemplate{
				{
					ID:           "job_offer",
					Label:        "Job Offer Letter",
					Required:     true,
					Role:         RoleEmployer,
					DocumentType: "job_offer_letter",
				},
				{
					ID:             "lmia",
					Label:          "Labour Market Impact Assessment",
					Required:       true,
					Role:           RoleEmployer,
					DocumentType:   "lmia",
					VisibilityRule: &RuleCondition{Field: "lmiaRequired", Operator: OpEq, Value: true},
				},
			},
		},
	},
}

// studyPermit is the checklist for study permit applicants.
var studyPermit = ApplicationConfig{
	ApplicationType: "study_permit",
	Groups: []GroupConfig{
		{
			ID:    "identity",
			Title: "Identity & Status",
			Slots: []SlotTemplate{
				{
					ID:           "passport",
					Label:        "Passport (all stamped pages)",
					Required:     true,
					Role:         RoleApplicant,
					DocumentType: "passport",
				},
				{
					ID:           "photo",
					Label:        "Digital Photo",
					Required:     true,
					Role:         RoleApplicant,
					DocumentType: "photo",
				},
				{
					ID:             "status_doc",
					Label:          "Proof of Current Immigration Status",
					Required:       true,
					Role:           RoleApplicant,
					DocumentType:   "status_document",
					VisibilityRule: &RuleCondition{Field: "currentlyInCanada", Operator: OpEq, Value: true},
					UnlockRule:     &RuleCondition{Field: "currentStatus", Operator: OpExists},
					LockMessage:    "Select your current immigration status in Canada before uploading a status document.",
				},
			},
		},
		{
			ID:    "admission",
			Title: "Admission",
			Slots: []SlotTemplate{
				{
					ID:           "loa",
					Label:        "Letter of Acceptance",
					Required:     true,
					Role:         RoleApplicant,
					DocumentType: "letter_of_acceptance",
				},
				{
					ID:             "pal",
					Label:          "Provincial Attestation Letter",
					Required:       true,
					Role:           RoleApplicant,
					DocumentType:   "provincial_attestation",
					VisibilityRule: &RuleCondition{Field: "palRequired", Operator: OpEq, Value: true},
				},
			},
		},
		{
			ID:    "finances",
			Title: "Financial Support",
			Slots: []SlotTemplate{
				{
					ID:           "proof_of_funds",
					Label:        "Proof of Financial Support",
					Required:     true,
					Role:         RoleApplicant,
					DocumentType: "proof_of_funds",
				},
				{
					ID:             "gic",
					Label:          "Guaranteed Investment Certificate",
					Required:       true,
					Role:           RoleApplicant,
					DocumentType:   "gic_certificate",
					VisibilityRule: &RuleCondition{Field: "gicRequired", Operator: OpEq, Value: true},
				},
			},
		},
		{
			ID:    "background",
			Title: "Travel & Background",
			Generator: &Generator{
				Type: GeneratorResidenceHistoryCountries,
				Template: SlotTemplate{
					ID:           "police_certificate_{country_code}",
					Label:        "Police Certificate - {country_name}",
					Required:     true,
					Role:         RoleApplicant,
					DocumentType: "police_certificate",
				},
			},
		},
	},
}
