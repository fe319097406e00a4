package rules

import (
	"reflect"
	"strconv"
	"strings"
)

// EvalCondition evaluates a single rule condition against the fact bag.
// A nil condition means "always applies" and returns true.
//
// The evaluator never fails: unresolvable paths, type mismatches, and
// unknown operators all evaluate to false (fail closed). A single malformed
// rule must not crash evaluation of an entire application's document set.
func EvalCondition(cond *RuleCondition, facts FactBag) bool {
	if cond == nil {
		return true
	}

	val, ok := facts.Resolve(cond.Field)

	switch cond.Operator {
	case OpEq:
		if !ok {
			return false
		}
		return valueEqual(val, cond.Value)

	case OpNeq:
		// An unresolved fact is unequal to any operand, so neq holds.
		if !ok {
			return true
		}
		return !valueEqual(val, cond.Value)

	case OpExists:
		// NOTE: a false boolean DOES satisfy exists. Only absence, nil,
		// and empty string fail it. Easy to invert by accident — tested.
		if !ok || val == nil {
			return false
		}
		if s, isStr := val.(string); isStr && s == "" {
			return false
		}
		return true

	case OpContains:
		if !ok {
			return false
		}
		return containsValue(val, cond.Value)

	case OpGt:
		if !ok {
			return false
		}
		a, aok := coerceNumber(val)
		b, bok := coerceNumber(cond.Value)
		if !aok || !bok {
			return false
		}
		return a > b

	default:
		// Unknown operator — fail closed, never fail open.
		return false
	}
}

// Resolve walks the fact bag along a dot path ("currentStatus.type").
// The second return value is false if any segment is missing, mirroring
// the distinction between "unknown" and "present but nil".
func (f FactBag) Resolve(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var cur any = map[string]any(f)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		next, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// asMap normalizes the map shapes a fact bag may contain.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case FactBag:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

// valueEqual compares a resolved fact against a condition operand.
// Numeric values compare by magnitude across int/float types (facts built
// in Go carry ints, rule values decoded from JSON carry float64s);
// everything else compares strictly.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// containsValue reports whether an array-like fact includes the operand.
func containsValue(haystack, needle any) bool {
	switch h := haystack.(type) {
	case []any:
		for _, item := range h {
			if valueEqual(item, needle) {
				return true
			}
		}
	case []string:
		for _, item := range h {
			if valueEqual(item, needle) {
				return true
			}
		}
	}
	return false
}

// toFloat converts strictly-numeric values to float64.
// Strings are NOT numbers for equality purposes.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// coerceNumber is the looser coercion used only by gt: numeric strings are
// accepted, anything that would coerce to NaN compares false.
func coerceNumber(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
