package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvalCondition(t *testing.T) {
	facts := FactBag{
		"spouseRelationType": "spouse",
		"currentlyInCanada":  true,
		"childrenCount":      2,
		"currentStatus": map[string]any{
			"type": "visitor",
		},
		"personalHistory": []map[string]any{
			{"country": "Mexico"},
		},
		"tags":      []any{"priority", "cohort_2026"},
		"provinces": []string{"BC", "ON"},
		"emptyStr":  "",
		"nilValue":  nil,
		"flagOff":   false,
	}

	tests := []struct {
		name string
		cond *RuleCondition
		want bool
	}{
		{"nil condition always applies", nil, true},

		{"eq match", &RuleCondition{Field: "spouseRelationType", Operator: OpEq, Value: "spouse"}, true},
		{"eq mismatch", &RuleCondition{Field: "spouseRelationType", Operator: OpEq, Value: "none"}, false},
		{"eq bool", &RuleCondition{Field: "currentlyInCanada", Operator: OpEq, Value: true}, true},
		{"eq numeric cross-type", &RuleCondition{Field: "childrenCount", Operator: OpEq, Value: float64(2)}, true},
		{"eq on missing path", &RuleCondition{Field: "noSuchField", Operator: OpEq, Value: "x"}, false},
		{"eq string vs number is not equal", &RuleCondition{Field: "childrenCount", Operator: OpEq, Value: "2"}, false},

		{"neq mismatch", &RuleCondition{Field: "spouseRelationType", Operator: OpNeq, Value: "none"}, true},
		{"neq match", &RuleCondition{Field: "spouseRelationType", Operator: OpNeq, Value: "spouse"}, false},
		{"neq on missing path holds", &RuleCondition{Field: "noSuchField", Operator: OpNeq, Value: "none"}, true},

		{"exists on present value", &RuleCondition{Field: "spouseRelationType", Operator: OpExists}, true},
		{"exists on nested path", &RuleCondition{Field: "currentStatus.type", Operator: OpExists}, true},
		{"exists on missing path", &RuleCondition{Field: "currentStatus.expiry", Operator: OpExists}, false},
		{"exists on empty string fails", &RuleCondition{Field: "emptyStr", Operator: OpExists}, false},
		{"exists on nil fails", &RuleCondition{Field: "nilValue", Operator: OpExists}, false},
		// The documented asymmetry: a false boolean exists, an empty string does not.
		{"exists on false boolean holds", &RuleCondition{Field: "flagOff", Operator: OpExists}, true},

		{"contains on []any", &RuleCondition{Field: "tags", Operator: OpContains, Value: "priority"}, true},
		{"contains miss", &RuleCondition{Field: "tags", Operator: OpContains, Value: "archived"}, false},
		{"contains on []string", &RuleCondition{Field: "provinces", Operator: OpContains, Value: "ON"}, true},
		{"contains on non-container", &RuleCondition{Field: "spouseRelationType", Operator: OpContains, Value: "sp"}, false},

		{"gt true", &RuleCondition{Field: "childrenCount", Operator: OpGt, Value: 1}, true},
		{"gt false", &RuleCondition{Field: "childrenCount", Operator: OpGt, Value: 2}, false},
		{"gt coerces numeric strings", &RuleCondition{Field: "childrenCount", Operator: OpGt, Value: "1"}, true},
		{"gt non-numeric never throws", &RuleCondition{Field: "spouseRelationType", Operator: OpGt, Value: 1}, false},
		{"gt missing path", &RuleCondition{Field: "noSuchField", Operator: OpGt, Value: 0}, false},

		// Unknown operators fail closed, never open.
		{"unknown operator", &RuleCondition{Field: "spouseRelationType", Operator: "matches"}, false},
		{"empty operator", &RuleCondition{Field: "spouseRelationType"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvalCondition(tt.cond, facts))
		})
	}
}

func TestFactBagResolve(t *testing.T) {
	facts := FactBag{
		"a": map[string]any{
			"b": map[string]any{"c": 7},
		},
		"scalar": "x",
	}

	v, ok := facts.Resolve("a.b.c")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = facts.Resolve("a.b.missing")
	assert.False(t, ok)

	// Traversal through a non-map segment resolves to nothing.
	_, ok = facts.Resolve("scalar.deeper")
	assert.False(t, ok)

	_, ok = facts.Resolve("")
	assert.False(t, ok)
}
