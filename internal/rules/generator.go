package rules

import "strings"

// Generator types. Unknown types emit no slots: config authors are trusted,
// and a typo'd generator should degrade to an empty group rather than crash
// an applicant's whole checklist.
const (
	GeneratorResidenceHistoryCountries = "residence_history_countries"
)

// ExpandGroup turns a group's static slots plus its generator (if any) into
// the concrete, fully-substituted slot templates for one evaluation.
// Static slots pass through unchanged; generated slots have their
// {placeholder} tokens substituted per instance.
//
// Expansion is idempotent: identical facts always yield the identical set
// and order of generated ids and labels.
func ExpandGroup(group GroupConfig, facts FactBag) []SlotTemplate {
	out := make([]SlotTemplate, 0, len(group.Slots))
	out = append(out, group.Slots...)

	if group.Generator == nil {
		return out
	}

	switch group.Generator.Type {
	case GeneratorResidenceHistoryCountries:
		out = append(out, expandResidenceCountries(group.Generator.Template, facts)...)
	}

	return out
}

// expandResidenceCountries emits one slot per distinct residence country in
// the personal history, excluding Canada. Order follows first occurrence in
// the history sequence, not alphabetical, so re-evaluation is stable.
func expandResidenceCountries(tmpl SlotTemplate, facts FactBag) []SlotTemplate {
	history, _ := facts.Resolve(FactPersonalHistory)

	var slots []SlotTemplate
	seen := map[string]bool{}

	for _, entry := range historyEntries(history) {
		country, _ := entry["country"].(string)
		country = strings.TrimSpace(country)
		if country == "" || country == "Canada" || seen[country] {
			continue
		}
		seen[country] = true

		slots = append(slots, instantiate(tmpl, map[string]string{
			"country_code": slugify(country),
			"country_name": country,
		}))
	}

	return slots
}

// historyEntries normalizes the shapes a personal-history collection can
// take in a fact bag (typed by the facts builder, or []any after a JSON
// round trip).
func historyEntries(v any) []map[string]any {
	switch h := v.(type) {
	case []map[string]any:
		return h
	case []any:
		entries := make([]map[string]any, 0, len(h))
		for _, e := range h {
			if m, ok := e.(map[string]any); ok {
				entries = append(entries, m)
			}
		}
		return entries
	default:
		return nil
	}
}

// instantiate copies a template and substitutes {placeholder} tokens in its
// id and label from the given substitution map. Additional generators (per
// child, per dependant) reuse this same mechanism.
func instantiate(tmpl SlotTemplate, subs map[string]string) SlotTemplate {
	slot := tmpl
	slot.ID = substitute(tmpl.ID, subs)
	slot.Label = substitute(tmpl.Label, subs)
	return slot
}

// substitute replaces every {key} token present in the substitution map.
func substitute(s string, subs map[string]string) string {
	for key, val := range subs {
		s = strings.ReplaceAll(s, "{"+key+"}", val)
	}
	return s
}

// slugify normalizes an instance key for use in a slot id: lowercased with
// whitespace runs replaced by underscores ("United States" → "united_states").
func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}
