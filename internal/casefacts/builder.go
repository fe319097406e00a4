// Package casefacts projects raw applicant, application, and document rows
// into the flat fact bag the rules engine consumes, and into the friendlier
// CaseFacts summary the UI displays. Both projections are pure: row loading
// (and its NotFound failure mode) stays in the HTTP layer, so the engine is
// never invoked on partial data.
package casefacts

import (
	"encoding/json"
	"strings"

	"casefile-backend/internal/models"
	"casefile-backend/internal/rules"
)

// CaseFacts is the display-facing case summary. It is deliberately distinct
// from the evaluation fact bag: the UI gets friendly aggregates here, while
// rule conditions read the raw shape their field paths expect.
type CaseFacts struct {
	FullName           string   `json:"fullName"`
	ApplicationType    string   `json:"applicationType"`
	Stage              string   `json:"stage"`
	InCanada           bool     `json:"inCanada"`
	HasSpouse          bool     `json:"hasSpouse"`
	HasChildren        bool     `json:"hasChildren"`
	ChildrenCount      int      `json:"childrenCount"`
	ResidenceCountries []string `json:"residenceCountries"`
}

// ResolveApplicationType normalizes a stored application type, defaulting an
// empty value to the single documented fallback. Unknown non-empty types are
// NOT mapped to the default here; the registry lookup surfaces those as
// ErrConfigNotFound so misconfigured cases fail loudly.
func ResolveApplicationType(stored string) string {
	norm := rules.NormalizeType(stored)
	if norm == "" {
		return rules.DefaultApplicationType
	}
	return norm
}

// BuildFactBag flattens the case rows into the fact bag rule conditions
// evaluate against. Keys absent from the rows stay absent from the bag, so
// `exists` conditions see true absence rather than zero values.
func BuildFactBag(applicant models.Applicant, application models.Application, files []models.DocumentFile) rules.FactBag {
	facts := rules.FactBag{
		"applicationType":        ResolveApplicationType(application.ApplicationType),
		"currentlyInCanada":      applicant.CurrentlyInCanada,
		"spouseRelationType":     spouseRelation(applicant),
		"lmiaRequired":           application.LmiaRequired,
		"palRequired":            application.PalRequired,
		"gicRequired":            application.GicRequired,
		rules.FactPersonalHistory: historyFacts(applicant.PersonalHistory),
		rules.FactDocuments:      documentFacts(files),
	}

	if applicant.CurrentStatus != nil && *applicant.CurrentStatus != "" {
		facts["currentStatus"] = *applicant.CurrentStatus
	}
	if applicant.SpouseGivenName != nil && *applicant.SpouseGivenName != "" {
		facts["spouseGivenName"] = *applicant.SpouseGivenName
	}
	if applicant.SpouseFamilyName != nil && *applicant.SpouseFamilyName != "" {
		facts["spouseFamilyName"] = *applicant.SpouseFamilyName
	}

	children := childEntries(applicant.Children)
	facts["hasSpouse"] = spouseRelation(applicant) != "none"
	facts["hasChildren"] = len(children) > 0
	facts["childrenCount"] = len(children)
	if len(children) > 0 {
		facts["children"] = children
	}

	return facts
}

// BuildCaseFacts derives the UI-facing summary for a case.
func BuildCaseFacts(applicant models.Applicant, application models.Application) CaseFacts {
	children := childEntries(applicant.Children)

	return CaseFacts{
		FullName:           FullName(applicant),
		ApplicationType:    ResolveApplicationType(application.ApplicationType),
		Stage:              application.Stage,
		InCanada:           applicant.CurrentlyInCanada,
		HasSpouse:          spouseRelation(applicant) != "none",
		HasChildren:        len(children) > 0,
		ChildrenCount:      len(children),
		ResidenceCountries: residenceCountries(applicant.PersonalHistory),
	}
}

// FullName joins the identity parts, tolerating a missing side.
func FullName(applicant models.Applicant) string {
	return strings.TrimSpace(strings.TrimSpace(applicant.GivenName) + " " + strings.TrimSpace(applicant.FamilyName))
}

// spouseRelation defaults a blank relation to "none" so rules never see an
// empty string where an enum is expected.
func spouseRelation(applicant models.Applicant) string {
	if applicant.SpouseRelationType == "" {
		return "none"
	}
	return applicant.SpouseRelationType
}

// historyFacts decodes the stored JSONB history into the map shape the
// generator walks. Undecodable history degrades to empty rather than
// failing the evaluation.
func historyFacts(raw json.RawMessage) []map[string]any {
	var entries []models.HistoryEntry
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return []map[string]any{}
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		m := map[string]any{"country": e.Country}
		if e.From != "" {
			m["from"] = e.From
		}
		if e.To != "" {
			m["to"] = e.To
		}
		if e.Activity != "" {
			m["activity"] = e.Activity
		}
		out = append(out, m)
	}
	return out
}

// childEntries decodes the stored children JSONB.
func childEntries(raw json.RawMessage) []map[string]any {
	var entries []map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return nil
	}
	return entries
}

// residenceCountries deduplicates the countries present in the history,
// preserving first-occurrence order. Canada is included here — this list is
// for display; the police-certificate generator applies its own exclusion.
func residenceCountries(raw json.RawMessage) []string {
	var entries []models.HistoryEntry
	countries := []string{}
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return countries
	}

	seen := map[string]bool{}
	for _, e := range entries {
		c := strings.TrimSpace(e.Country)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		countries = append(countries, c)
	}
	return countries
}

// documentFacts groups document rows by slot id in the engine's file shape.
func documentFacts(files []models.DocumentFile) map[string][]rules.DocumentFile {
	bySlot := map[string][]rules.DocumentFile{}
	for _, f := range files {
		bySlot[f.SlotID] = append(bySlot[f.SlotID], rules.DocumentFile{
			ID:              f.ID,
			SlotID:          f.SlotID,
			FileName:        f.FileName,
			FileSize:        f.FileSize,
			MimeType:        f.MimeType,
			UploadedAt:      f.UploadedAt,
			UploadedBy:      f.UploadedBy,
			Status:          f.Status,
			RejectionReason: f.RejectionReason,
		})
	}
	return bySlot
}
