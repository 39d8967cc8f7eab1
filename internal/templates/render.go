package templates

import (
	"fmt"
	"regexp"

	"streamcast/internal/models"
)

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// fallbacks used when an event carries no value for a placeholder
var renderFallbacks = map[string]string{
	"tier": "1",
}

// substitute performs literal moustache-style replacement for {{field}}
// placeholders. This is intentionally not a template language: no
// expressions, no logic, no escaping. Unknown fields resolve to their
// documented fallback or the empty string, so the output never contains
// further placeholders and re-rendering is a no-op.
func substitute(content string, data models.EventData) string {
	if content == "" {
		return content
	}
	return placeholderRegex.ReplaceAllStringFunc(content, func(match string) string {
		submatch := placeholderRegex.FindStringSubmatch(match)
		if len(submatch) != 2 {
			return match
		}
		key := submatch[1]
		if value, ok := data[key]; ok && value != nil {
			return fmt.Sprint(value)
		}
		if fb, ok := renderFallbacks[key]; ok {
			return fb
		}
		return ""
	})
}

// Render substitutes event data into a template's markup and style and
// returns the presentation payload.
func Render(tpl *models.Template, data models.EventData) models.AlertPayload {
	duration := tpl.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	return models.AlertPayload{
		Markup:    substitute(tpl.Markup, data),
		Style:     substitute(tpl.Style, data),
		Duration:  duration,
		Animation: tpl.Animation,
		SoundRef:  tpl.SoundRef,
		Volume:    tpl.Volume,
	}
}
