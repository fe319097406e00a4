package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrConfigNotFound is returned when no rule configuration is registered
// for a requested application type. Lookups never silently substitute a
// different config: the single documented fallback lives in the facts
// builder, which defaults an EMPTY stored application type to
// DefaultApplicationType before the lookup happens.
var ErrConfigNotFound = errors.New("no rule configuration for application type")

// DefaultApplicationType is applied when an application row has no stored
// type at all (legacy intakes created before the type field existed).
const DefaultApplicationType = "work_permit_outside_canada"

// registry holds all rule configurations keyed by normalized application
// type. Populated once during package init, read-only afterwards, so
// concurrent lookups need no synchronization.
var registry = map[string]ApplicationConfig{}

// knownFactKeys is the schema of fact-bag root keys the facts builder can
// produce. Every field referenced by a registered config is validated
// against it at startup, which turns silent condition typos into an
// immediate boot failure instead of a slot that never appears.
var knownFactKeys = map[string]bool{
	"applicationType":    true,
	"currentlyInCanada":  true,
	"currentStatus":      true,
	"spouseRelationType": true,
	"spouseGivenName":    true,
	"spouseFamilyName":   true,
	"hasSpouse":          true,
	"hasChildren":        true,
	"childrenCount":      true,
	"children":           true,
	"lmiaRequired":       true,
	"palRequired":        true,
	"gicRequired":        true,
	FactPersonalHistory:  true,
	FactDocuments:        true,
}

// NormalizeType canonicalizes an application-type string for registry
// lookup: lowercased, whitespace and hyphens collapsed to underscores.
// "Work Permit Outside Canada" and "work_permit_outside_canada" are the
// same key.
func NormalizeType(applicationType string) string {
	s := strings.ToLower(strings.TrimSpace(applicationType))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), "_")
}

// Lookup returns the registered configuration for an application type, or
// ErrConfigNotFound. There is no implicit default here.
func Lookup(applicationType string) (ApplicationConfig, error) {
	cfg, ok := registry[NormalizeType(applicationType)]
	if !ok {
		return ApplicationConfig{}, fmt.Errorf("%w: %q", ErrConfigNotFound, applicationType)
	}
	return cfg, nil
}

// RegisteredTypes lists all registered application types, sorted.
func RegisteredTypes() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// MustRegister validates and installs a configuration. It panics on an
// invalid config, which is intentional: configs are compiled-in data and a
// bad one should stop the process at startup, not at first evaluation.
func MustRegister(cfg ApplicationConfig) {
	if err := ValidateConfig(cfg); err != nil {
		panic(fmt.Sprintf("rules: invalid config %q: %v", cfg.ApplicationType, err))
	}
	registry[NormalizeType(cfg.ApplicationType)] = cfg
}

// ValidateConfig checks a configuration's internal consistency: non-empty
// ids, unique static slot ids, and every referenced condition field
// resolving against the known fact-key schema.
func ValidateConfig(cfg ApplicationConfig) error {
	if NormalizeType(cfg.ApplicationType) == "" {
		return errors.New("empty application type")
	}
	if len(cfg.Groups) == 0 {
		return errors.New("config has no groups")
	}

	seenSlots := map[string]bool{}
	for _, g := range cfg.Groups {
		if g.ID == "" {
			return errors.New("group with empty id")
		}
		if len(g.Slots) == 0 && g.Generator == nil {
			return fmt.Errorf("group %q has neither slots nor a generator", g.ID)
		}

		templates := g.Slots
		if g.Generator != nil {
			templates = append(append([]SlotTemplate{}, templates...), g.Generator.Template)
		}

		for _, t := range templates {
			if t.ID == "" {
				return fmt.Errorf("group %q: slot with empty id", g.ID)
			}
			if err := validateCondition(t.VisibilityRule); err != nil {
				return fmt.Errorf("slot %q visibility: %w", t.ID, err)
			}
			if err := validateCondition(t.UnlockRule); err != nil {
				return fmt.Errorf("slot %q unlock: %w", t.ID, err)
			}
		}

		// Generator templates carry {placeholder} tokens, so uniqueness is
		// only checkable for static slots; generated ids are made unique by
		// the normalized instance key.
		for _, s := range g.Slots {
			if seenSlots[s.ID] {
				return fmt.Errorf("duplicate slot id %q", s.ID)
			}
			seenSlots[s.ID] = true
		}
	}
	return nil
}

func validateCondition(cond *RuleCondition) error {
	if cond == nil {
		return nil
	}
	switch cond.Operator {
	case OpEq, OpNeq, OpContains, OpExists, OpGt:
	default:
		return fmt.Errorf("unsupported operator %q", cond.Operator)
	}
	root := cond.Field
	if i := strings.IndexByte(root, '.'); i >= 0 {
		root = root[:i]
	}
	if !knownFactKeys[root] {
		return fmt.Errorf("field %q does not resolve against the fact-key schema", cond.Field)
	}
	return nil
}
