package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyFor(countries ...string) FactBag {
	entries := make([]map[string]any, 0, len(countries))
	for _, c := range countries {
		entries = append(entries, map[string]any{"country": c})
	}
	return FactBag{FactPersonalHistory: entries}
}

var policeCertGroup = GroupConfig{
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
}

func TestExpandGroupResidenceCountries(t *testing.T) {
	// Duplicates collapse, Canada is excluded, and order follows first
	// occurrence in the history, not the alphabet.
	facts := historyFor("Mexico", "Canada", "Mexico", "India")

	slots := ExpandGroup(policeCertGroup, facts)
	require.Len(t, slots, 2)

	assert.Equal(t, "police_certificate_mexico", slots[0].ID)
	assert.Equal(t, "Police Certificate - Mexico", slots[0].Label)
	assert.Equal(t, "police_certificate_india", slots[1].ID)
	assert.Equal(t, "Police Certificate - India", slots[1].Label)

	for _, s := range slots {
		assert.True(t, s.Required)
		assert.Equal(t, RoleApplicant, s.Role)
		assert.Equal(t, "police_certificate", s.DocumentType)
	}
}

func TestExpandGroupIsIdempotent(t *testing.T) {
	facts := historyFor("United States", "India", "United States")

	first := ExpandGroup(policeCertGroup, facts)
	second := ExpandGroup(policeCertGroup, facts)
	assert.Equal(t, first, second)

	// Multi-word countries slug with underscores in the id but keep the
	// literal name in the label.
	require.Len(t, first, 2)
	assert.Equal(t, "police_certificate_united_states", first[0].ID)
	assert.Equal(t, "Police Certificate - United States", first[0].Label)
}

func TestExpandGroupSkipsBlankAndMissingCountries(t *testing.T) {
	facts := FactBag{FactPersonalHistory: []map[string]any{
		{"country": "  "},
		{"city": "Lagos"}, // no country field at all
		{"country": "Nigeria"},
	}}

	slots := ExpandGroup(policeCertGroup, facts)
	require.Len(t, slots, 1)
	assert.Equal(t, "police_certificate_nigeria", slots[0].ID)
}

func TestExpandGroupUnknownGeneratorEmitsNothing(t *testing.T) {
	group := GroupConfig{
		ID: "g",
		Slots: []SlotTemplate{
			{ID: "static", Label: "Static", DocumentType: "x"},
		},
		Generator: &Generator{
			Type:     "per_child_documents", // not implemented yet
			Template: SlotTemplate{ID: "child_{n}"},
		},
	}

	// Static slots pass through; the unknown generator is silently inert.
	slots := ExpandGroup(group, historyFor("India"))
	require.Len(t, slots, 1)
	assert.Equal(t, "static", slots[0].ID)
}

func TestExpandGroupHistoryAfterJSONRoundTrip(t *testing.T) {
	// A fact bag rebuilt from JSON carries []any, not []map[string]any.
	facts := FactBag{FactPersonalHistory: []any{
		map[string]any{"country": "Brazil"},
		map[string]any{"country": "Brazil"},
	}}

	slots := ExpandGroup(policeCertGroup, facts)
	require.Len(t, slots, 1)
	assert.Equal(t, "police_certificate_brazil", slots[0].ID)
}

func TestSubstitute(t *testing.T) {
	subs := map[string]string{"country_code": "mx", "country_name": "Mexico"}
	assert.Equal(t, "cert_mx", substitute("cert_{country_code}", subs))
	assert.Equal(t, "no tokens here", substitute("no tokens here", subs))
	// Unknown tokens are left intact rather than blanked.
	assert.Equal(t, "cert_{other}", substitute("cert_{other}", subs))
}
