package probe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flowforge/automata/internal/domain"
)

// EvaluateSeverity checks result's values against each condition and
// returns the highest severity triggered, or base if none match.
//
// There is no alerting-rule library in the pack to ground this on; the
// comparisons below are a small, direct stdlib implementation (fmt
// formatting for string coercion, regexp for the regex operator) rather
// than a hand-rolled expression language.
func EvaluateSeverity(base domain.Severity, result *domain.ProbeResult, conditions []domain.AlertCondition) domain.Severity {
	highest := base
	for _, cond := range conditions {
		value, ok := result.Values[cond.Field]
		if !ok {
			continue
		}
		if matchCondition(value, cond) {
			highest = domain.MaxSeverity(highest, cond.Severity)
		}
	}
	return highest
}

func matchCondition(value any, cond domain.AlertCondition) bool {
	switch cond.Operator {
	case domain.OpGT, domain.OpLT:
		v, ok1 := toFloat(value)
		t, ok2 := toFloat(cond.Threshold)
		if !ok1 || !ok2 {
			return false
		}
		if cond.Operator == domain.OpGT {
			return v > t
		}
		return v < t
	case domain.OpEQ:
		return toString(value) == toString(cond.Threshold)
	case domain.OpNEQ:
		return toString(value) != toString(cond.Threshold)
	case domain.OpContains:
		return strings.Contains(toString(value), toString(cond.Threshold))
	case domain.OpRegex:
		pattern := toString(cond.Threshold)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(toString(value))
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
