package automation

import (
	"strings"

	"streamcast/internal/models"
	"streamcast/internal/utils"
)

// EvaluateConditions is a pure predicate over an event. All specified
// clauses must pass (AND); an unspecified clause is vacuously true, so a
// nil or empty condition matches every event. Malformed clauses (e.g. a
// numeric bound on a non-numeric field) fail the match rather than
// erroring: adding a clause can only narrow the set of matching events.
func EvaluateConditions(cond *models.Condition, event models.Event) bool {
	if cond == nil {
		return true
	}

	if len(cond.Platforms) > 0 && !containsFold(cond.Platforms, event.Platform) {
		return false
	}

	for field, min := range cond.Min {
		value, ok := utils.ToFloat(event.Data[field])
		if !ok || value < min {
			return false
		}
	}

	for field, max := range cond.Max {
		value, ok := utils.ToFloat(event.Data[field])
		if !ok || value > max {
			return false
		}
	}

	if len(cond.Usernames) > 0 {
		username := utils.ToString(event.Data["username"])
		if !containsFold(cond.Usernames, username) {
			return false
		}
	}

	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
