package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"streamcast/internal/errs"
	"streamcast/internal/models"
	"streamcast/internal/store"
	"streamcast/internal/utils"

	"github.com/google/uuid"
)

// DefaultDuration is the presentation duration (ms) when a template omits one
const DefaultDuration = 5000

// DefaultAnimation is assigned to templates created without one
const DefaultAnimation = "fade-in"

const keyPrefix = "template:"

// Registry stores alert templates and renders them against event data.
// All templates are kept in memory and written through to the store.
type Registry struct {
	store store.Store

	mu        sync.RWMutex
	templates map[string]*models.Template
}

// NewRegistry loads persisted templates and returns a registry
func NewRegistry(ctx context.Context, st store.Store) (*Registry, error) {
	r := &Registry{store: st, templates: make(map[string]*models.Template)}

	keys, err := st.KeysWithPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	for _, key := range keys {
		raw, err := st.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("load template %s: %w", key, err)
		}
		var tpl models.Template
		if err := json.Unmarshal(raw, &tpl); err != nil {
			log.Printf("TEMPLATES: Skipping unreadable record %s: %v", key, err)
			continue
		}
		r.templates[tpl.ID] = &tpl
	}
	log.Printf("TEMPLATES: Loaded %d templates", len(r.templates))
	return r, nil
}

// Create persists a new template. Name and event type are required;
// every optional field gets a documented default.
func (r *Registry) Create(ctx context.Context, tpl models.Template) (*models.Template, error) {
	if tpl.Name == "" {
		return nil, errs.NewValidation("name", "must not be empty")
	}
	if tpl.EventType == "" {
		return nil, errs.NewValidation("event_type", "must not be empty")
	}

	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.Duration <= 0 {
		tpl.Duration = DefaultDuration
	}
	if tpl.Animation == "" {
		tpl.Animation = DefaultAnimation
	}
	if tpl.SoundRef != "" && tpl.Volume <= 0 {
		tpl.Volume = 1.0
	}
	now := time.Now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	tpl.UsageCount = 0

	if err := r.persist(ctx, &tpl); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.templates[tpl.ID] = &tpl
	r.mu.Unlock()

	log.Printf("TEMPLATES: Created template %s (%s) for event type %s", tpl.ID, tpl.Name, tpl.EventType)
	out := tpl
	return &out, nil
}

// Update merges the provided fields into an existing template
func (r *Registry) Update(ctx context.Context, id string, upd models.TemplateUpdate) (*models.Template, error) {
	r.mu.Lock()
	existing, ok := r.templates[id]
	if !ok {
		r.mu.Unlock()
		return nil, errs.NewNotFound("template", id)
	}
	tpl := *existing

	if upd.Name != nil {
		tpl.Name = *upd.Name
	}
	if upd.EventType != nil {
		tpl.EventType = *upd.EventType
	}
	if upd.Enabled != nil {
		tpl.Enabled = *upd.Enabled
	}
	if upd.Markup != nil {
		tpl.Markup = *upd.Markup
	}
	if upd.Style != nil {
		tpl.Style = *upd.Style
	}
	if upd.Script != nil {
		tpl.Script = *upd.Script
	}
	if upd.MediaRef != nil {
		tpl.MediaRef = *upd.MediaRef
	}
	if upd.Duration != nil {
		tpl.Duration = *upd.Duration
	}
	if upd.Animation != nil {
		tpl.Animation = *upd.Animation
	}
	if upd.SoundRef != nil {
		tpl.SoundRef = *upd.SoundRef
	}
	if upd.Volume != nil {
		tpl.Volume = *upd.Volume
	}
	if upd.TTS != nil {
		tts := *upd.TTS
		tpl.TTS = &tts
	}
	if upd.Conditions != nil {
		tpl.Conditions = *upd.Conditions
	}
	tpl.UpdatedAt = time.Now()

	r.templates[id] = &tpl
	r.mu.Unlock()

	if err := r.persist(ctx, &tpl); err != nil {
		return nil, err
	}
	out := tpl
	return &out, nil
}

// Delete removes a template. Alerts already queued from it are unaffected.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.templates[id]
	if !ok {
		r.mu.Unlock()
		return errs.NewNotFound("template", id)
	}
	delete(r.templates, id)
	r.mu.Unlock()

	if err := r.store.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	log.Printf("TEMPLATES: Deleted template %s", id)
	return nil
}

// Get returns a template by id, enabled or not
func (r *Registry) Get(id string) (*models.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[id]
	if !ok {
		return nil, errs.NewNotFound("template", id)
	}
	out := *tpl
	return &out, nil
}

// Filter narrows List results; nil predicates match everything
type Filter struct {
	EventType string
	Enabled   *bool
}

// List returns templates matching the filter. Order is unspecified.
func (r *Registry) List(f Filter) []*models.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Template{}
	for _, tpl := range r.templates {
		if f.EventType != "" && tpl.EventType != f.EventType {
			continue
		}
		if f.Enabled != nil && tpl.Enabled != *f.Enabled {
			continue
		}
		cp := *tpl
		out = append(out, &cp)
	}
	return out
}

// SelectForEvent picks the template used for an incoming event: enabled,
// matching event type, display conditions satisfied by the event data.
// Ties break deterministically on creation time, then id.
func (r *Registry) SelectForEvent(event models.Event) (*models.Template, bool) {
	enabled := true
	candidates := r.List(Filter{EventType: event.Type, Enabled: &enabled})

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].ID < candidates[j].ID
	})

	for _, tpl := range candidates {
		if displayConditionsMet(tpl.Conditions, event.Data) {
			return tpl, true
		}
	}
	return nil, false
}

// IncrementUsage bumps a template's usage counter after a successful
// presentation. Persistence is best-effort and asynchronous.
func (r *Registry) IncrementUsage(id string) {
	r.mu.Lock()
	tpl, ok := r.templates[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	tpl.UsageCount++
	cp := *tpl
	r.mu.Unlock()

	go func() {
		if err := r.persist(context.Background(), &cp); err != nil {
			log.Printf("TEMPLATES: Failed to persist usage count for %s: %v", id, err)
		}
	}()
}

func (r *Registry) persist(ctx context.Context, tpl *models.Template) error {
	raw, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("marshal template %s: %w", tpl.ID, err)
	}
	if err := r.store.Set(ctx, keyPrefix+tpl.ID, raw); err != nil {
		return fmt.Errorf("persist template %s: %w", tpl.ID, err)
	}
	return nil
}

func displayConditionsMet(dc models.DisplayConditions, data models.EventData) bool {
	if dc.MinAmount > 0 {
		if amount, ok := utils.ToFloat(data["amount"]); !ok || amount < dc.MinAmount {
			return false
		}
	}
	if dc.MinCount > 0 {
		if count, ok := utils.ToFloat(data["count"]); !ok || count < float64(dc.MinCount) {
			return false
		}
	}
	if dc.VIPOnly {
		if vip, _ := data["vip"].(bool); !vip {
			return false
		}
	}
	if dc.SubscriberOnly {
		if sub, _ := data["subscriber"].(bool); !sub {
			return false
		}
	}
	if dc.FirstTimeOnly {
		if first, _ := data["first_time"].(bool); !first {
			return false
		}
	}
	return true
}
