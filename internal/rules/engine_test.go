package rules

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workPermitConfig(t *testing.T) ApplicationConfig {
	t.Helper()
	cfg, err := Lookup("Work Permit Outside Canada")
	require.NoError(t, err)
	return cfg
}

func slotIDs(groups []DocumentGroup) []string {
	var ids []string
	for _, g := range groups {
		for _, s := range g.Slots {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func findGroup(groups []DocumentGroup, id string) (DocumentGroup, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return DocumentGroup{}, false
}

// Scenario: applying from outside Canada, no spouse, no residence history.
func TestEvaluateDocumentsOutsideCanadaNoFamily(t *testing.T) {
	facts := FactBag{
		"spouseRelationType": "none",
		"currentlyInCanada":  false,
		FactPersonalHistory:  []map[string]any{},
	}

	groups := EvaluateDocuments(facts, workPermitConfig(t))

	identity, ok := findGroup(groups, "identity")
	require.True(t, ok)
	require.Len(t, identity.Slots, 2)
	for _, s := range identity.Slots {
		assert.True(t, s.Required)
		assert.Equal(t, StatusMissing, s.Status)
		assert.False(t, s.Locked)
	}

	ids := slotIDs(groups)
	assert.Contains(t, ids, "passport")
	assert.Contains(t, ids, "photo")
	// Hidden slots are absent by id, not merely flagged invisible.
	assert.NotContains(t, ids, "status_doc")
	assert.NotContains(t, ids, "marriage_cert")
	assert.NotContains(t, ids, "spouse_passport")

	// Groups whose every slot was filtered are suppressed entirely, not
	// returned with an empty slots array.
	_, ok = findGroup(groups, "family")
	assert.False(t, ok)
	_, ok = findGroup(groups, "background")
	assert.False(t, ok)
}

// Scenario: in Canada but current status not yet captured — status_doc is
// present, locked, and carries its lock message.
func TestEvaluateDocumentsLockedStatusDoc(t *testing.T) {
	facts := FactBag{
		"spouseRelationType": "none",
		"currentlyInCanada":  true,
	}

	groups := EvaluateDocuments(facts, workPermitConfig(t))

	slot, ok := FindSlot(groups, "status_doc")
	require.True(t, ok)
	assert.True(t, slot.Locked)
	assert.Equal(t, StatusLocked, slot.Status)
	assert.NotEmpty(t, slot.LockMessage)
}

// Scenario: married applicant with spouse details captured — marriage_cert
// is visible, unlocked, and missing.
func TestEvaluateDocumentsSpouseUnlocked(t *testing.T) {
	facts := FactBag{
		"spouseRelationType": "spouse",
		"spouseFamilyName":   "Smith",
		"currentlyInCanada":  false,
	}

	groups := EvaluateDocuments(facts, workPermitConfig(t))

	slot, ok := FindSlot(groups, "marriage_cert")
	require.True(t, ok)
	assert.True(t, slot.Visible)
	assert.False(t, slot.Locked)
	assert.Equal(t, StatusMissing, slot.Status)
}

// A locked slot's status is never derived from its files: a stale verified
// upload does not leak through the lock.
func TestEvaluateDocumentsLockOverridesVerifiedFile(t *testing.T) {
	facts := FactBag{
		"spouseRelationType": "none",
		"currentlyInCanada":  true,
		FactDocuments: map[string][]DocumentFile{
			"status_doc": {{
				ID:         "file-1",
				SlotID:     "status_doc",
				FileName:   "visitor_record.pdf",
				UploadedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
				Status:     StatusVerified,
			}},
		},
	}

	groups := EvaluateDocuments(facts, workPermitConfig(t))

	slot, ok := FindSlot(groups, "status_doc")
	require.True(t, ok)
	assert.Equal(t, StatusLocked, slot.Status)
	assert.NotEqual(t, StatusVerified, slot.Status)
	// The files themselves are not deleted by evaluation.
	assert.Len(t, slot.Documents, 1)
	// No active-file metadata is surfaced while locked.
	assert.Nil(t, slot.FileID)
}

func TestEvaluateDocumentsActiveFileMetadata(t *testing.T) {
	older := DocumentFile{
		ID: "file-old", SlotID: "passport", FileName: "passport_v1.pdf",
		FileSize: 1000, MimeType: "application/pdf", UploadedBy: "user-1",
		UploadedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
		Status:     StatusRejected,
	}
	newer := DocumentFile{
		ID: "file-new", SlotID: "passport", FileName: "passport_v2.pdf",
		FileSize: 2000, MimeType: "application/pdf", UploadedBy: "user-1",
		UploadedAt: time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC),
		Status:     StatusUploaded,
	}

	facts := FactBag{
		"spouseRelationType": "none",
		"currentlyInCanada":  false,
		FactDocuments: map[string][]DocumentFile{
			"passport": {older, newer}, // insertion order must not matter
		},
	}

	groups := EvaluateDocuments(facts, workPermitConfig(t))
	slot, ok := FindSlot(groups, "passport")
	require.True(t, ok)

	// Metadata comes from the most recent file...
	require.NotNil(t, slot.FileID)
	assert.Equal(t, "file-new", *slot.FileID)
	assert.Equal(t, "passport_v2.pdf", *slot.FileName)

	// ...but status derivation sees the full set, so the earlier rejection
	// still dominates the fresh upload (rejected > uploaded).
	assert.Equal(t, StatusRejected, slot.Status)
}

// Property: repeated evaluation of the same inputs is byte-identical.
func TestEvaluateDocumentsDeterminism(t *testing.T) {
	facts := FactBag{
		"spouseRelationType": "spouse",
		"spouseFamilyName":   "Okafor",
		"currentlyInCanada":  true,
		"currentStatus":      map[string]any{"type": "visitor"},
		"lmiaRequired":       true,
		FactPersonalHistory: []map[string]any{
			{"country": "Nigeria"}, {"country": "Ghana"}, {"country": "Nigeria"},
		},
		FactDocuments: map[string][]DocumentFile{
			"passport": {fileWith(StatusUploaded)},
		},
	}
	cfg := workPermitConfig(t)

	first, err := json.Marshal(EvaluateDocuments(facts, cfg))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(EvaluateDocuments(facts, cfg))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// Round trip: upload → uploaded; verify → verified; a later re-upload for
// the same slot still derives verified. The last step is the encoded
// precedence policy (verified > uploaded), asserted deliberately.
func TestEvaluateDocumentsUploadReviewRoundTrip(t *testing.T) {
	cfg := workPermitConfig(t)
	facts := FactBag{
		"spouseRelationType": "none",
		"currentlyInCanada":  false,
	}

	upload := DocumentFile{
		ID: "file-1", SlotID: "photo", FileName: "photo.png",
		UploadedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:     StatusUploaded,
	}

	facts[FactDocuments] = map[string][]DocumentFile{"photo": {upload}}
	slot, _ := FindSlot(EvaluateDocuments(facts, cfg), "photo")
	assert.Equal(t, StatusUploaded, slot.Status)

	upload.Status = StatusVerified
	facts[FactDocuments] = map[string][]DocumentFile{"photo": {upload}}
	slot, _ = FindSlot(EvaluateDocuments(facts, cfg), "photo")
	assert.Equal(t, StatusVerified, slot.Status)

	reupload := DocumentFile{
		ID: "file-2", SlotID: "photo", FileName: "photo_retake.png",
		UploadedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:     StatusUploaded,
	}
	facts[FactDocuments] = map[string][]DocumentFile{"photo": {upload, reupload}}
	slot, _ = FindSlot(EvaluateDocuments(facts, cfg), "photo")
	assert.Equal(t, StatusVerified, slot.Status)
}

func TestComputeReadiness(t *testing.T) {
	groups := []DocumentGroup{{
		ID: "g", Title: "G",
		Slots: []DocumentSlot{
			{ID: "a", Required: true, Status: StatusVerified},
			{ID: "b", Required: true, Status: StatusMissing},
			{ID: "c", Required: true, Status: StatusRejected},
			{ID: "d", Required: false, Status: StatusVerified}, // optional, not counted
			{ID: "e", Required: true, Locked: true, Status: StatusLocked},
		},
	}}

	r := ComputeReadiness(groups)

	// Locked required slots sit outside the denominator until unlocked;
	// they are reported separately instead of stalling the percentage.
	assert.Equal(t, 3, r.RequiredSlots)
	assert.Equal(t, 1, r.VerifiedSlots)
	assert.Equal(t, 1, r.RejectedSlots)
	assert.Equal(t, 1, r.LockedRequired)
	assert.InDelta(t, 33.3, r.Percent, 0.01)
}

func TestComputeReadinessEmpty(t *testing.T) {
	r := ComputeReadiness(nil)
	assert.Zero(t, r.RequiredSlots)
	assert.Zero(t, r.Percent)
}
