// Package engine wires the event-to-effect pipeline together: incoming
// platform events fan out to the automation rule engine and, when a
// template matches, to the alert delivery queue.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"streamcast/internal/alertqueue"
	"streamcast/internal/automation"
	"streamcast/internal/bridge"
	"streamcast/internal/control"
	"streamcast/internal/errs"
	"streamcast/internal/models"
	"streamcast/internal/store"
	"streamcast/internal/templates"
)

// Engine is one explicit instance of the pipeline. Every dependency is
// injected at construction; there are no ambient singletons.
type Engine struct {
	registry *templates.Registry
	queue    *alertqueue.Queue
	rules    *automation.Engine
	bridge   bridge.Bridge

	mu         sync.Mutex
	alertTypes map[string]func() // event type -> alert-pipeline unsubscribe
}

// Options configures engine construction
type Options struct {
	Store   store.Store
	Bridge  bridge.Bridge
	Adapter control.Adapter
	Sink    alertqueue.Sink
	// QueueOptions are passed through to the delivery queue
	QueueOptions []alertqueue.Option
}

// New builds the pipeline. The store may be nil for a fully ephemeral
// engine (tests, dry runs); an in-memory store is substituted.
func New(ctx context.Context, opts Options) (*Engine, error) {
	st := opts.Store
	if st == nil {
		st = store.NewMemory()
	}

	registry, err := templates.NewRegistry(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("init template registry: %w", err)
	}

	e := &Engine{
		registry:   registry,
		queue:      alertqueue.New(st, opts.Sink, opts.QueueOptions...),
		rules:      automation.NewEngine(opts.Bridge, opts.Adapter, st),
		bridge:     opts.Bridge,
		alertTypes: make(map[string]func()),
	}
	e.queue.OnCompleted = func(alert *models.QueuedAlert) {
		if alert.TemplateID != "" {
			registry.IncrementUsage(alert.TemplateID)
		}
	}
	return e, nil
}

// Rules exposes the automation engine, e.g. to swap its dispatcher
func (e *Engine) Rules() *automation.Engine {
	return e.rules
}

// Start seeds defaults, restores persisted rules and subscribes the
// alert pipeline for every event type that has a template.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.registry.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	if err := e.rules.LoadRules(ctx); err != nil {
		return fmt.Errorf("restore rules: %w", err)
	}
	for _, tpl := range e.registry.List(templates.Filter{}) {
		e.watchAlertType(tpl.EventType)
	}
	log.Println("ENGINE: Started")
	return nil
}

// Stop halts the delivery queue and drops alert subscriptions. Rule
// subscriptions die with the bridge.
func (e *Engine) Stop() {
	e.mu.Lock()
	for eventType, unsubscribe := range e.alertTypes {
		unsubscribe()
		delete(e.alertTypes, eventType)
	}
	e.mu.Unlock()
	e.queue.Stop()
	log.Println("ENGINE: Stopped")
}

// watchAlertType subscribes the alert pipeline to an event type once
func (e *Engine) watchAlertType(eventType string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.alertTypes[eventType]; ok {
		return
	}
	e.alertTypes[eventType] = e.bridge.Subscribe(eventType, e.handleAlertEvent)
}

// handleAlertEvent runs the alert half of the pipeline: select a
// template, render it, queue the result. Rules are dispatched by their
// own subscriptions and never wait on this.
func (e *Engine) handleAlertEvent(event models.Event) {
	tpl, ok := e.registry.SelectForEvent(event)
	if !ok {
		return
	}
	payload := templates.Render(tpl, event.Data)
	e.queue.Enqueue(alertqueue.EnqueueRequest{
		EventType:  event.Type,
		TemplateID: tpl.ID,
		Payload:    payload,
	})
}

// --- template operations ---

func (e *Engine) CreateTemplate(ctx context.Context, tpl models.Template) (*models.Template, error) {
	created, err := e.registry.Create(ctx, tpl)
	if err != nil {
		return nil, err
	}
	e.watchAlertType(created.EventType)
	return created, nil
}

func (e *Engine) UpdateTemplate(ctx context.Context, id string, upd models.TemplateUpdate) (*models.Template, error) {
	updated, err := e.registry.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	e.watchAlertType(updated.EventType)
	return updated, nil
}

func (e *Engine) DeleteTemplate(ctx context.Context, id string) error {
	return e.registry.Delete(ctx, id)
}

func (e *Engine) GetTemplate(id string) (*models.Template, error) {
	return e.registry.Get(id)
}

func (e *Engine) ListTemplates(filter templates.Filter) []*models.Template {
	return e.registry.List(filter)
}

// --- queue operations ---

// EnqueueAlertRequest queues an alert outside the event pipeline, either
// from an explicit template id (disabled templates are honored here) or
// by default selection for an event type.
type EnqueueAlertRequest struct {
	TemplateID string           `json:"template_id,omitempty"`
	EventType  string           `json:"event_type,omitempty"`
	Data       models.EventData `json:"data,omitempty"`
	Priority   *int             `json:"priority,omitempty"`
}

func (e *Engine) EnqueueAlert(req EnqueueAlertRequest) (string, error) {
	if req.TemplateID == "" && req.EventType == "" {
		return "", errs.NewValidation("event_type", "either template_id or event_type is required")
	}

	var tpl *models.Template
	if req.TemplateID != "" {
		var err error
		tpl, err = e.registry.Get(req.TemplateID)
		if err != nil {
			return "", err
		}
	} else {
		event := models.Event{Type: req.EventType, Data: req.Data, Timestamp: time.Now()}
		var ok bool
		tpl, ok = e.registry.SelectForEvent(event)
		if !ok {
			return "", fmt.Errorf("no enabled template for event type %q", req.EventType)
		}
	}

	eventType := req.EventType
	if eventType == "" {
		eventType = tpl.EventType
	}
	payload := templates.Render(tpl, req.Data)
	return e.queue.Enqueue(alertqueue.EnqueueRequest{
		EventType:  eventType,
		TemplateID: tpl.ID,
		Payload:    payload,
		Priority:   req.Priority,
	}), nil
}

func (e *Engine) QueueStatus() alertqueue.Status {
	return e.queue.GetStatus()
}

func (e *Engine) ClearQueue() int {
	return e.queue.Clear()
}

func (e *Engine) PauseQueue() {
	e.queue.Pause()
}

func (e *Engine) ResumeQueue() {
	e.queue.Resume()
}

func (e *Engine) QueueHistory() []*models.QueuedAlert {
	return e.queue.History()
}

// --- rule operations ---

func (e *Engine) RegisterRule(ctx context.Context, spec automation.RuleSpec) (string, error) {
	return e.rules.RegisterRule(ctx, spec)
}

func (e *Engine) UnregisterRule(ctx context.Context, id string) bool {
	return e.rules.UnregisterRule(ctx, id)
}

func (e *Engine) EnableRule(ctx context.Context, id string, enabled bool) error {
	return e.rules.EnableRule(ctx, id, enabled)
}

func (e *Engine) ListRules() []models.Rule {
	return e.rules.ListRules()
}

func (e *Engine) GetRule(id string) (*models.Rule, error) {
	return e.rules.GetRule(id)
}

// TestTrigger fabricates an event and pushes it through the bridge so
// both templates and rules react exactly as they would to a real one.
func (e *Engine) TestTrigger(eventType string, data models.EventData) models.Event {
	if data == nil {
		data = models.EventData{}
	}
	platform, _ := data["platform"].(string)
	if platform == "" {
		platform = "test"
	}
	event := models.Event{
		Type:      eventType,
		Platform:  platform,
		Data:      data,
		Timestamp: time.Now(),
	}
	log.Printf("ENGINE: Test trigger for %s", eventType)
	e.bridge.Emit(event)
	return event
}
