package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "work_permit_outside_canada", NormalizeType("Work Permit Outside Canada"))
	assert.Equal(t, "work_permit_outside_canada", NormalizeType("  work-permit-outside-canada "))
	assert.Equal(t, "study_permit", NormalizeType("STUDY  PERMIT"))
	assert.Equal(t, "", NormalizeType("   "))
}

func TestLookup(t *testing.T) {
	cfg, err := Lookup("work_permit_outside_canada")
	require.NoError(t, err)
	assert.Equal(t, "work_permit_outside_canada", cfg.ApplicationType)

	// Display-form and canonical-form lookups hit the same entry.
	alias, err := Lookup("Work Permit Outside Canada")
	require.NoError(t, err)
	assert.Equal(t, cfg.ApplicationType, alias.ApplicationType)

	// Unknown types get an explicit error, never a silently substituted
	// default config.
	_, err = Lookup("visitor_visa")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestRegisteredTypes(t *testing.T) {
	types := RegisteredTypes()
	assert.Contains(t, types, "work_permit_outside_canada")
	assert.Contains(t, types, "study_permit")
}

func TestValidateConfig(t *testing.T) {
	valid := ApplicationConfig{
		ApplicationType: "test_type",
		Groups: []GroupConfig{{
			ID: "g",
			Slots: []SlotTemplate{{
				ID:             "s",
				VisibilityRule: &RuleCondition{Field: "currentlyInCanada", Operator: OpEq, Value: true},
			}},
		}},
	}
	assert.NoError(t, ValidateConfig(valid))

	t.Run("unknown fact key is caught at startup", func(t *testing.T) {
		bad := valid
		bad.Groups = []GroupConfig{{
			ID: "g",
			Slots: []SlotTemplate{{
				ID:             "s",
				VisibilityRule: &RuleCondition{Field: "currentlyInCanda", Operator: OpEq, Value: true}, // typo
			}},
		}}
		err := ValidateConfig(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fact-key schema")
	})

	t.Run("nested paths validate by root segment", func(t *testing.T) {
		ok := valid
		ok.Groups = []GroupConfig{{
			ID: "g",
			Slots: []SlotTemplate{{
				ID:         "s",
				UnlockRule: &RuleCondition{Field: "currentStatus.type", Operator: OpExists},
			}},
		}}
		assert.NoError(t, ValidateConfig(ok))
	})

	t.Run("unsupported operator", func(t *testing.T) {
		bad := valid
		bad.Groups = []GroupConfig{{
			ID: "g",
			Slots: []SlotTemplate{{
				ID:         "s",
				UnlockRule: &RuleCondition{Field: "currentStatus", Operator: "regex"},
			}},
		}}
		assert.Error(t, ValidateConfig(bad))
	})

	t.Run("duplicate static slot ids", func(t *testing.T) {
		bad := valid
		bad.Groups = []GroupConfig{{
			ID:    "g",
			Slots: []SlotTemplate{{ID: "s"}, {ID: "s"}},
		}}
		assert.Error(t, ValidateConfig(bad))
	})

	t.Run("group needs slots or generator", func(t *testing.T) {
		bad := valid
		bad.Groups = []GroupConfig{{ID: "g"}}
		assert.Error(t, ValidateConfig(bad))
	})

	t.Run("empty application type", func(t *testing.T) {
		bad := valid
		bad.ApplicationType = " "
		assert.Error(t, ValidateConfig(bad))
	})
}

// The compiled-in configs must always pass their own startup validation.
func TestShippedConfigsAreValid(t *testing.T) {
	for _, name := range RegisteredTypes() {
		cfg, err := Lookup(name)
		require.NoError(t, err)
		assert.NoError(t, ValidateConfig(cfg), name)
	}
}
