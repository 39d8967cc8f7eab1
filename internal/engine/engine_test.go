package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"streamcast/internal/alertqueue"
	"streamcast/internal/automation"
	"streamcast/internal/bridge"
	"streamcast/internal/errs"
	"streamcast/internal/models"
	"streamcast/internal/store"
	"streamcast/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nullAdapter accepts every control call
type nullAdapter struct{}

func (nullAdapter) Connected() bool { return true }

func (nullAdapter) SwitchScene(context.Context, string) error { return nil }

func (nullAdapter) SetSourceVisibility(context.Context, string, string, bool) error { return nil }

func (nullAdapter) PlayMedia(context.Context, string) error { return nil }

func (nullAdapter) PauseMedia(context.Context, string) error { return nil }

func (nullAdapter) RestartMedia(context.Context, string) error { return nil }

func (nullAdapter) StartCapture(context.Context) error { return nil }

func (nullAdapter) StopCapture(context.Context) error { return nil }

type capturingSink struct {
	mu        sync.Mutex
	presented []*models.QueuedAlert
}

func (s *capturingSink) Present(_ context.Context, alert *models.QueuedAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *alert
	s.presented = append(s.presented, &cp)
	return nil
}

func (s *capturingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.presented)
}

func setupPipeline(t *testing.T) (*Engine, *bridge.Local, *capturingSink) {
	b := bridge.NewLocal()
	sink := &capturingSink{}
	e, err := New(context.Background(), Options{
		Store:        store.NewMemory(),
		Bridge:       b,
		Adapter:      nullAdapter{},
		Sink:         sink,
		QueueOptions: []alertqueue.Option{alertqueue.WithInterAlertDelay(time.Millisecond)},
	})
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(e.Stop)
	return e, b, sink
}

func TestStartSeedsDefaults(t *testing.T) {
	e, _, _ := setupPipeline(t)
	tpls := e.ListTemplates(templates.Filter{})
	assert.Len(t, tpls, len(models.KnownEventTypes))
}

func TestEventProducesAlert(t *testing.T) {
	e, b, sink := setupPipeline(t)
	_ = e

	b.Emit(models.Event{
		Type:      "follow",
		Platform:  "twitch",
		Data:      models.EventData{"displayName": "ember_fox"},
		Timestamp: time.Now(),
	})

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	alert := sink.presented[0]
	assert.Equal(t, "follow", alert.EventType)
	assert.Contains(t, alert.Payload.Markup, "ember_fox")
	assert.NotEmpty(t, alert.TemplateID)
}

func TestSuccessfulPresentationBumpsUsage(t *testing.T) {
	e, b, sink := setupPipeline(t)

	b.Emit(models.Event{Type: "follow", Data: models.EventData{"displayName": "x"}, Timestamp: time.Now()})
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	templateID := sink.presented[0].TemplateID
	sink.mu.Unlock()

	require.Eventually(t, func() bool {
		tpl, err := e.GetTemplate(templateID)
		return err == nil && tpl.UsageCount == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEnqueueAlertByTemplateID(t *testing.T) {
	e, _, sink := setupPipeline(t)

	// explicitly referencing a disabled template is allowed
	tpl, err := e.CreateTemplate(context.Background(), models.Template{
		Name: "Secret", EventType: "follow", Enabled: false,
		Markup: "hi {{displayName}}",
	})
	require.NoError(t, err)

	id, err := e.EnqueueAlert(EnqueueAlertRequest{
		TemplateID: tpl.ID,
		Data:       models.EventData{"displayName": "mod_team"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	sink.mu.Lock()
	assert.Equal(t, "hi mod_team", sink.presented[0].Payload.Markup)
	sink.mu.Unlock()
}

func TestEnqueueAlertRequiresTemplateOrEventType(t *testing.T) {
	e, _, _ := setupPipeline(t)

	_, err := e.EnqueueAlert(EnqueueAlertRequest{})
	assert.True(t, errs.IsValidation(err))

	// nothing reached the queue
	assert.Equal(t, 0, e.QueueStatus().QueueLength)
	assert.Empty(t, e.QueueHistory())
}

func TestEnqueueAlertUnknownTemplate(t *testing.T) {
	e, _, _ := setupPipeline(t)
	_, err := e.EnqueueAlert(EnqueueAlertRequest{TemplateID: "missing-id"})
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteTemplateDoesNotTouchQueueOrRules(t *testing.T) {
	e, _, _ := setupPipeline(t)

	err := e.DeleteTemplate(context.Background(), "missing-id")
	assert.True(t, errs.IsNotFound(err))

	// queue and rule state unaffected
	assert.Equal(t, 0, e.QueueStatus().QueueLength)
	assert.Empty(t, e.ListRules())
}

func TestTestTriggerReachesRulesAndAlerts(t *testing.T) {
	e, _, sink := setupPipeline(t)

	executed := make(chan struct{}, 1)
	_, err := e.RegisterRule(context.Background(), automation.RuleSpec{
		EventType: "raid",
		Actions: []models.Action{{
			Type:   models.ActionLog,
			Params: map[string]interface{}{"message": "raid!"},
		}},
	})
	require.NoError(t, err)

	// a second rule via emit_event proves execution happened
	_, err = e.RegisterRule(context.Background(), automation.RuleSpec{
		EventType: "raid",
		Actions: []models.Action{{
			Type:   models.ActionEmitEvent,
			Params: map[string]interface{}{"type": "raid-handled"},
		}},
	})
	require.NoError(t, err)
	e.bridge.Subscribe("raid-handled", func(models.Event) {
		select {
		case executed <- struct{}{}:
		default:
		}
	})

	event := e.TestTrigger("raid", models.EventData{"displayName": "night_owl", "viewers": float64(120)})
	assert.Equal(t, "test", event.Platform)

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	select {
	case <-executed:
	case <-time.After(time.Second):
		t.Fatal("rule never executed")
	}
}

func TestQueueControls(t *testing.T) {
	e, _, _ := setupPipeline(t)

	e.PauseQueue()
	assert.True(t, e.QueueStatus().Paused)

	_, err := e.EnqueueAlert(EnqueueAlertRequest{EventType: "follow", Data: models.EventData{}})
	require.NoError(t, err)
	assert.Equal(t, 1, e.QueueStatus().QueueLength)

	assert.Equal(t, 1, e.ClearQueue())
	assert.Equal(t, 0, e.QueueStatus().QueueLength)

	e.ResumeQueue()
	assert.False(t, e.QueueStatus().Paused)
}
