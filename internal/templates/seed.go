package templates

import (
	"context"
	"fmt"
	"log"

	"streamcast/internal/models"
)

type seedSpec struct {
	name      string
	animation string
	accent    string
	markup    string
}

// one default per well-known event type, each with its own animation and
// color scheme so a fresh install shows visibly distinct alerts
var defaultSeeds = map[string]seedSpec{
	"follow":       {"New Follower", "slide-in", "#9146ff", `<div class="alert follow"><h1>{{displayName}} followed!</h1></div>`},
	"subscription": {"New Subscriber", "bounce", "#00c8af", `<div class="alert sub"><h1>{{displayName}} subscribed at tier {{tier}}!</h1></div>`},
	"raid":         {"Incoming Raid", "zoom-in", "#ff6b35", `<div class="alert raid"><h1>{{displayName}} is raiding with {{viewers}} viewers!</h1></div>`},
	"donation":     {"New Donation", "fade-in", "#f5c518", `<div class="alert donation"><h1>{{displayName}} donated {{amount}}!</h1><p>{{message}}</p></div>`},
	"cheer":        {"Bits Cheered", "shake", "#5c16c5", `<div class="alert cheer"><h1>{{displayName}} cheered {{count}} bits!</h1></div>`},
}

// SeedDefaults creates one enabled template per well-known event type.
// It is all-or-nothing: if any template exists at all, seeding is skipped.
func (r *Registry) SeedDefaults(ctx context.Context) error {
	r.mu.RLock()
	existing := len(r.templates)
	r.mu.RUnlock()
	if existing > 0 {
		log.Printf("TEMPLATES: %d templates present, skipping default seeding", existing)
		return nil
	}

	for _, eventType := range models.KnownEventTypes {
		seed := defaultSeeds[eventType]
		_, err := r.Create(ctx, models.Template{
			Name:      seed.name,
			EventType: eventType,
			Enabled:   true,
			Markup:    seed.markup,
			Style:     fmt.Sprintf(".alert { color: %s; font-family: sans-serif; }", seed.accent),
			Duration:  DefaultDuration,
			Animation: seed.animation,
		})
		if err != nil {
			return fmt.Errorf("seed %s template: %w", eventType, err)
		}
	}
	log.Printf("TEMPLATES: Seeded %d default templates", len(models.KnownEventTypes))
	return nil
}
