// Package automation evaluates declarative rules against incoming
// platform events and executes their action lists against the control
// surface.
package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"streamcast/internal/bridge"
	"streamcast/internal/control"
	"streamcast/internal/errs"
	"streamcast/internal/models"
	"streamcast/internal/store"

	"github.com/google/uuid"
)

const rulePrefix = "rule:"

// RuleSpec is the registration input. Enabled is a pointer so an omitted
// flag defaults to true.
type RuleSpec struct {
	ID          string            `json:"id,omitempty"`
	EventType   string            `json:"event_type"`
	Conditions  *models.Condition `json:"conditions,omitempty"`
	Actions     []models.Action   `json:"actions"`
	Enabled     *bool             `json:"enabled,omitempty"`
	StopOnError bool              `json:"stop_on_error,omitempty"`
}

// Dispatcher schedules one rule invocation. The default runs it directly
// on the calling goroutine; a task-queue dispatcher may defer it.
type Dispatcher interface {
	Dispatch(ruleID string, event models.Event)
}

type inlineDispatcher struct{ engine *Engine }

func (d inlineDispatcher) Dispatch(ruleID string, event models.Event) {
	d.engine.ExecuteRule(context.Background(), ruleID, event)
}

type ruleEntry struct {
	rule        models.Rule
	unsubscribe func()
}

// Engine is the automation rule engine. All dependencies are injected;
// there is no package-level state.
type Engine struct {
	bridge  bridge.Bridge
	adapter control.Adapter
	store   store.Store

	mu         sync.RWMutex
	rules      map[string]*ruleEntry
	dispatcher Dispatcher
}

// NewEngine creates a rule engine bound to a bridge and control adapter.
// The store may persist rules across restarts; pass an in-memory store
// for ephemeral rules.
func NewEngine(b bridge.Bridge, adapter control.Adapter, st store.Store) *Engine {
	e := &Engine{
		bridge:  b,
		adapter: adapter,
		store:   st,
		rules:   make(map[string]*ruleEntry),
	}
	e.dispatcher = inlineDispatcher{engine: e}
	return e
}

// UseDispatcher swaps the invocation dispatcher, e.g. for task-queue
// backed execution. Call before registering rules.
func (e *Engine) UseDispatcher(d Dispatcher) {
	e.mu.Lock()
	e.dispatcher = d
	e.mu.Unlock()
}

// LoadRules restores persisted rules and resubscribes them
func (e *Engine) LoadRules(ctx context.Context) error {
	keys, err := e.store.KeysWithPrefix(ctx, rulePrefix)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	for _, key := range keys {
		raw, err := e.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				continue
			}
			return fmt.Errorf("load rule %s: %w", key, err)
		}
		var rule models.Rule
		if err := json.Unmarshal(raw, &rule); err != nil {
			log.Printf("AUTOMATION: Skipping unreadable rule record %s: %v", key, err)
			continue
		}
		e.subscribe(rule)
	}
	e.mu.RLock()
	count := len(e.rules)
	e.mu.RUnlock()
	log.Printf("AUTOMATION: Loaded %d rules", count)
	return nil
}

// RegisterRule validates and subscribes a rule, returning its id
func (e *Engine) RegisterRule(ctx context.Context, spec RuleSpec) (string, error) {
	if spec.EventType == "" {
		return "", errs.NewValidation("event_type", "must not be empty")
	}
	if spec.Actions == nil {
		return "", errs.NewValidation("actions", "must be present (an empty list is allowed)")
	}

	rule := models.Rule{
		ID:          spec.ID,
		EventType:   spec.EventType,
		Conditions:  spec.Conditions,
		Actions:     spec.Actions,
		Enabled:     true,
		StopOnError: spec.StopOnError,
	}
	if spec.Enabled != nil {
		rule.Enabled = *spec.Enabled
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	e.subscribe(rule)

	if err := e.persist(ctx, rule); err != nil {
		log.Printf("AUTOMATION: Failed to persist rule %s: %v", rule.ID, err)
	}
	log.Printf("AUTOMATION: Registered rule %s for event type %s (%d actions)",
		rule.ID, rule.EventType, len(rule.Actions))
	return rule.ID, nil
}

func (e *Engine) subscribe(rule models.Rule) {
	ruleID := rule.ID
	unsubscribe := e.bridge.Subscribe(rule.EventType, func(event models.Event) {
		e.mu.RLock()
		d := e.dispatcher
		e.mu.RUnlock()
		d.Dispatch(ruleID, event)
	})

	e.mu.Lock()
	if prev, ok := e.rules[ruleID]; ok {
		prev.unsubscribe()
	}
	e.rules[ruleID] = &ruleEntry{rule: rule, unsubscribe: unsubscribe}
	e.mu.Unlock()
}

// UnregisterRule removes a rule and its subscription. Returns whether a
// rule was actually found. An invocation already in flight completes
// against the last-known definition.
func (e *Engine) UnregisterRule(ctx context.Context, id string) bool {
	e.mu.Lock()
	entry, ok := e.rules[id]
	if ok {
		delete(e.rules, id)
	}
	e.mu.Unlock()
	if !ok {
		return false
	}

	entry.unsubscribe()
	if err := e.store.Delete(ctx, rulePrefix+id); err != nil {
		log.Printf("AUTOMATION: Failed to drop rule record %s: %v", id, err)
	}
	log.Printf("AUTOMATION: Unregistered rule %s", id)
	return true
}

// EnableRule flips a rule's enabled flag in place
func (e *Engine) EnableRule(ctx context.Context, id string, enabled bool) error {
	e.mu.Lock()
	entry, ok := e.rules[id]
	if !ok {
		e.mu.Unlock()
		return errs.NewNotFound("rule", id)
	}
	entry.rule.Enabled = enabled
	rule := entry.rule
	e.mu.Unlock()

	if err := e.persist(ctx, rule); err != nil {
		log.Printf("AUTOMATION: Failed to persist rule %s: %v", id, err)
	}
	return nil
}

// GetRule returns a snapshot of a registered rule
func (e *Engine) GetRule(id string) (*models.Rule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.rules[id]
	if !ok {
		return nil, errs.NewNotFound("rule", id)
	}
	rule := entry.rule
	return &rule, nil
}

// ListRules returns snapshots of every registered rule
func (e *Engine) ListRules() []models.Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.Rule, 0, len(e.rules))
	for _, entry := range e.rules {
		out = append(out, entry.rule)
	}
	return out
}

// ExecuteRule runs one rule against one event. Unknown or disabled rules
// are a silent no-op: the rule may have been unregistered after the event
// fired, which must not crash anything.
func (e *Engine) ExecuteRule(ctx context.Context, id string, event models.Event) {
	e.mu.RLock()
	entry, ok := e.rules[id]
	var rule models.Rule
	if ok {
		rule = entry.rule
	}
	e.mu.RUnlock()

	if !ok || !rule.Enabled {
		return
	}
	if !EvaluateConditions(rule.Conditions, event) {
		return
	}

	for i, action := range rule.Actions {
		if err := e.executeAction(ctx, action, event); err != nil {
			actionErr := &errs.ActionError{RuleID: id, Index: i, ActionType: action.Type, Err: err}
			log.Printf("AUTOMATION: %v", actionErr)
			if rule.StopOnError {
				// remaining actions of this invocation are skipped
				return
			}
		}
	}
}

func (e *Engine) persist(ctx context.Context, rule models.Rule) error {
	raw, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, rulePrefix+rule.ID, raw)
}
