package casefacts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile-backend/internal/models"
	"casefile-backend/internal/rules"
)

func str(s string) *string { return &s }

func sampleApplicant() models.Applicant {
	return models.Applicant{
		ID:                 "app-1",
		OrgID:              "org-1",
		GivenName:          "  Amara ",
		FamilyName:         "Okafor",
		CurrentlyInCanada:  true,
		CurrentStatus:      str("visitor"),
		SpouseRelationType: "spouse",
		SpouseFamilyName:   str("Okafor"),
		Children:           json.RawMessage(`[{"name":"Ada"},{"name":"Eze"}]`),
		PersonalHistory: json.RawMessage(`[
			{"country":"Nigeria","activity":"work"},
			{"country":"Canada"},
			{"country":"Nigeria"},
			{"country":"Ghana"}
		]`),
	}
}

func sampleApplication() models.Application {
	return models.Application{
		ID:              "case-1",
		OrgID:           "org-1",
		ApplicantID:     "app-1",
		ApplicationType: "Work Permit Outside Canada",
		Stage:           "collecting",
		LmiaRequired:    true,
	}
}

func TestBuildFactBag(t *testing.T) {
	uploaded := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	files := []models.DocumentFile{
		{ID: "f1", ApplicationID: "case-1", SlotID: "passport", FileName: "p.pdf", Status: rules.StatusUploaded, UploadedAt: uploaded},
		{ID: "f2", ApplicationID: "case-1", SlotID: "passport", FileName: "p2.pdf", Status: rules.StatusVerified, UploadedAt: uploaded.Add(time.Hour)},
		{ID: "f3", ApplicationID: "case-1", SlotID: "photo", FileName: "photo.png", Status: rules.StatusUploaded, UploadedAt: uploaded},
	}

	facts := BuildFactBag(sampleApplicant(), sampleApplication(), files)

	assert.Equal(t, "work_permit_outside_canada", facts["applicationType"])
	assert.Equal(t, true, facts["currentlyInCanada"])
	assert.Equal(t, "visitor", facts["currentStatus"])
	assert.Equal(t, "spouse", facts["spouseRelationType"])
	assert.Equal(t, "Okafor", facts["spouseFamilyName"])
	assert.Equal(t, true, facts["hasSpouse"])
	assert.Equal(t, true, facts["hasChildren"])
	assert.Equal(t, 2, facts["childrenCount"])

	history, ok := facts[rules.FactPersonalHistory].([]map[string]any)
	require.True(t, ok)
	require.Len(t, history, 4)
	assert.Equal(t, "Nigeria", history[0]["country"])

	docs, ok := facts[rules.FactDocuments].(map[string][]rules.DocumentFile)
	require.True(t, ok)
	assert.Len(t, docs["passport"], 2)
	assert.Len(t, docs["photo"], 1)
}

// The bag must feed the engine directly: spouse slot unlocked, status_doc
// unlocked (current status captured), LMIA visible.
func TestBuildFactBagDrivesEngine(t *testing.T) {
	facts := BuildFactBag(sampleApplicant(), sampleApplication(), nil)
	cfg, err := rules.Lookup(facts["applicationType"].(string))
	require.NoError(t, err)

	groups := rules.EvaluateDocuments(facts, cfg)

	marriage, ok := rules.FindSlot(groups, "marriage_cert")
	require.True(t, ok)
	assert.False(t, marriage.Locked)

	status, ok := rules.FindSlot(groups, "status_doc")
	require.True(t, ok)
	assert.False(t, status.Locked)

	_, ok = rules.FindSlot(groups, "lmia")
	assert.True(t, ok)

	// Generated per-country slots, Canada excluded.
	_, ok = rules.FindSlot(groups, "police_certificate_nigeria")
	assert.True(t, ok)
	_, ok = rules.FindSlot(groups, "police_certificate_ghana")
	assert.True(t, ok)
	_, ok = rules.FindSlot(groups, "police_certificate_canada")
	assert.False(t, ok)
}

func TestBuildFactBagOmitsAbsentFacts(t *testing.T) {
	applicant := sampleApplicant()
	applicant.CurrentStatus = nil
	applicant.SpouseRelationType = ""
	applicant.SpouseFamilyName = str("") // empty string is as absent as nil
	applicant.Children = nil

	facts := BuildFactBag(applicant, sampleApplication(), nil)

	// currentStatus must be ABSENT, not nil, so `exists` fails cleanly.
	_, ok := facts.Resolve("currentStatus")
	assert.False(t, ok)
	_, ok = facts.Resolve("spouseFamilyName")
	assert.False(t, ok)

	assert.Equal(t, "none", facts["spouseRelationType"])
	assert.Equal(t, false, facts["hasSpouse"])
	assert.Equal(t, false, facts["hasChildren"])
	assert.Equal(t, 0, facts["childrenCount"])
}

func TestBuildFactBagMalformedHistoryDegrades(t *testing.T) {
	applicant := sampleApplicant()
	applicant.PersonalHistory = json.RawMessage(`{"not":"an array"}`)

	facts := BuildFactBag(applicant, sampleApplication(), nil)

	history, ok := facts[rules.FactPersonalHistory].([]map[string]any)
	require.True(t, ok)
	assert.Empty(t, history)
}

func TestResolveApplicationType(t *testing.T) {
	assert.Equal(t, "study_permit", ResolveApplicationType("Study Permit"))
	// Empty stored values take the documented default...
	assert.Equal(t, rules.DefaultApplicationType, ResolveApplicationType(""))
	assert.Equal(t, rules.DefaultApplicationType, ResolveApplicationType("   "))
	// ...but unknown types pass through so the registry can reject them.
	assert.Equal(t, "visitor_visa", ResolveApplicationType("Visitor Visa"))
}

func TestBuildCaseFacts(t *testing.T) {
	cf := BuildCaseFacts(sampleApplicant(), sampleApplication())

	assert.Equal(t, "Amara Okafor", cf.FullName)
	assert.Equal(t, "work_permit_outside_canada", cf.ApplicationType)
	assert.Equal(t, "collecting", cf.Stage)
	assert.True(t, cf.InCanada)
	assert.True(t, cf.HasSpouse)
	assert.Equal(t, 2, cf.ChildrenCount)
	// Display list keeps Canada and first-occurrence order.
	assert.Equal(t, []string{"Nigeria", "Canada", "Ghana"}, cf.ResidenceCountries)
}
