package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streamcast/internal/bridge"
	"streamcast/internal/errs"
	"streamcast/internal/models"
	"streamcast/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter records control-surface calls in order
type fakeAdapter struct {
	mu        sync.Mutex
	calls     []string
	failOn    string
	connected bool
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{connected: true}
}

func (a *fakeAdapter) record(op string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, op)
	if a.failOn == op {
		return errors.New("remote tool rejected " + op)
	}
	return nil
}

func (a *fakeAdapter) callLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *fakeAdapter) Connected() bool { return a.connected }
func (a *fakeAdapter) SwitchScene(_ context.Context, name string) error {
	return a.record("switch:" + name)
}
func (a *fakeAdapter) SetSourceVisibility(_ context.Context, scene, source string, visible bool) error {
	if visible {
		return a.record("show:" + scene + "/" + source)
	}
	return a.record("hide:" + scene + "/" + source)
}
func (a *fakeAdapter) PlayMedia(_ context.Context, source string) error {
	return a.record("play:" + source)
}
func (a *fakeAdapter) PauseMedia(_ context.Context, source string) error {
	return a.record("pause:" + source)
}
func (a *fakeAdapter) RestartMedia(_ context.Context, source string) error {
	return a.record("restart:" + source)
}
func (a *fakeAdapter) StartCapture(context.Context) error { return a.record("start_capture") }
func (a *fakeAdapter) StopCapture(context.Context) error  { return a.record("stop_capture") }

func setupEngine(t *testing.T) (*Engine, *bridge.Local, *fakeAdapter) {
	b := bridge.NewLocal()
	adapter := newFakeAdapter()
	e := NewEngine(b, adapter, store.NewMemory())
	return e, b, adapter
}

func sceneAction(name string) models.Action {
	return models.Action{Type: models.ActionSwitchScene, Params: map[string]interface{}{"scene": name}}
}

func TestRegisterRule(t *testing.T) {
	ctx := context.Background()
	e, b, _ := setupEngine(t)

	t.Run("assigns id and subscribes", func(t *testing.T) {
		id, err := e.RegisterRule(ctx, RuleSpec{EventType: "raid", Actions: []models.Action{}})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Equal(t, 1, b.SubscriberCount("raid"))
	})

	t.Run("defaults enabled to true", func(t *testing.T) {
		id, err := e.RegisterRule(ctx, RuleSpec{EventType: "follow", Actions: []models.Action{}})
		require.NoError(t, err)
		rule, err := e.GetRule(id)
		require.NoError(t, err)
		assert.True(t, rule.Enabled)
	})

	t.Run("requires event type", func(t *testing.T) {
		_, err := e.RegisterRule(ctx, RuleSpec{Actions: []models.Action{}})
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("requires an actions array", func(t *testing.T) {
		_, err := e.RegisterRule(ctx, RuleSpec{EventType: "raid"})
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("empty action list is legal", func(t *testing.T) {
		id, err := e.RegisterRule(ctx, RuleSpec{EventType: "cheer", Actions: []models.Action{}})
		require.NoError(t, err)
		// firing the event is a harmless no-op
		e.ExecuteRule(ctx, id, models.Event{Type: "cheer", Data: models.EventData{}})
	})
}

func TestUnregisterRule(t *testing.T) {
	ctx := context.Background()
	e, b, _ := setupEngine(t)

	id, err := e.RegisterRule(ctx, RuleSpec{EventType: "raid", Actions: []models.Action{}})
	require.NoError(t, err)

	assert.True(t, e.UnregisterRule(ctx, id))
	assert.Equal(t, 0, b.SubscriberCount("raid"))
	assert.False(t, e.UnregisterRule(ctx, id), "second unregister finds nothing")

	t.Run("execution after unregister is a silent no-op", func(t *testing.T) {
		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{}})
	})
}

func TestExecuteRule(t *testing.T) {
	ctx := context.Background()

	t.Run("actions run in declared order", func(t *testing.T) {
		e, _, adapter := setupEngine(t)
		id, err := e.RegisterRule(ctx, RuleSpec{
			EventType: "raid",
			Actions: []models.Action{
				sceneAction("raid-scene"),
				{Type: models.ActionPlayMedia, Params: map[string]interface{}{"source": "horn"}},
				{Type: models.ActionStartCapture},
			},
		})
		require.NoError(t, err)

		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{}})
		assert.Equal(t, []string{"switch:raid-scene", "play:horn", "start_capture"}, adapter.callLog())
	})

	t.Run("conditions gate execution", func(t *testing.T) {
		e, _, adapter := setupEngine(t)
		id, err := e.RegisterRule(ctx, RuleSpec{
			EventType:  "raid",
			Conditions: &models.Condition{Min: map[string]float64{"viewers": 50}},
			Actions:    []models.Action{sceneAction("raid-scene")},
		})
		require.NoError(t, err)

		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{"viewers": float64(10)}})
		assert.Empty(t, adapter.callLog())

		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{"viewers": float64(100)}})
		assert.Equal(t, []string{"switch:raid-scene"}, adapter.callLog())
	})

	t.Run("disabled rules never execute", func(t *testing.T) {
		e, _, adapter := setupEngine(t)
		id, err := e.RegisterRule(ctx, RuleSpec{EventType: "raid", Actions: []models.Action{sceneAction("x")}})
		require.NoError(t, err)
		require.NoError(t, e.EnableRule(ctx, id, false))

		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{}})
		assert.Empty(t, adapter.callLog())
	})

	t.Run("action failure continues by default", func(t *testing.T) {
		e, _, adapter := setupEngine(t)
		adapter.failOn = "switch:bad"
		id, err := e.RegisterRule(ctx, RuleSpec{
			EventType: "raid",
			Actions:   []models.Action{sceneAction("bad"), sceneAction("good")},
		})
		require.NoError(t, err)

		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{}})
		assert.Equal(t, []string{"switch:bad", "switch:good"}, adapter.callLog())
	})

	t.Run("stopOnError skips the rest of the invocation", func(t *testing.T) {
		e, _, adapter := setupEngine(t)
		adapter.failOn = "switch:bad"
		id, err := e.RegisterRule(ctx, RuleSpec{
			EventType:   "raid",
			StopOnError: true,
			Actions:     []models.Action{sceneAction("bad"), sceneAction("good")},
		})
		require.NoError(t, err)

		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{}})
		assert.Equal(t, []string{"switch:bad"}, adapter.callLog())
	})

	t.Run("unknown action type fails that action only", func(t *testing.T) {
		e, _, adapter := setupEngine(t)
		id, err := e.RegisterRule(ctx, RuleSpec{
			EventType: "raid",
			Actions: []models.Action{
				{Type: "teleport"},
				sceneAction("after"),
			},
		})
		require.NoError(t, err)

		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{}})
		assert.Equal(t, []string{"switch:after"}, adapter.callLog())
	})

	t.Run("disconnected adapter fails actions loudly but safely", func(t *testing.T) {
		e, _, adapter := setupEngine(t)
		adapter.connected = false
		id, err := e.RegisterRule(ctx, RuleSpec{EventType: "raid", Actions: []models.Action{sceneAction("x")}})
		require.NoError(t, err)

		e.ExecuteRule(ctx, id, models.Event{Type: "raid", Data: models.EventData{}})
		assert.Empty(t, adapter.callLog())
	})
}

func TestRulesRunIndependently(t *testing.T) {
	ctx := context.Background()
	e, b, adapter := setupEngine(t)

	_, err := e.RegisterRule(ctx, RuleSpec{EventType: "raid", Actions: []models.Action{sceneAction("one")}})
	require.NoError(t, err)
	_, err = e.RegisterRule(ctx, RuleSpec{EventType: "raid", Actions: []models.Action{sceneAction("two")}})
	require.NoError(t, err)

	b.Emit(models.Event{Type: "raid", Data: models.EventData{}})

	require.Eventually(t, func() bool {
		return len(adapter.callLog()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"switch:one", "switch:two"}, adapter.callLog())
}

func TestEmitEventAction(t *testing.T) {
	ctx := context.Background()
	e, b, _ := setupEngine(t)

	derived := make(chan models.Event, 1)
	b.Subscribe("shoutout", func(ev models.Event) { derived <- ev })

	id, err := e.RegisterRule(ctx, RuleSpec{
		EventType: "raid",
		Actions: []models.Action{{
			Type: models.ActionEmitEvent,
			Params: map[string]interface{}{
				"type": "shoutout",
				"data": map[string]interface{}{"target": "night_owl"},
			},
		}},
	})
	require.NoError(t, err)

	e.ExecuteRule(ctx, id, models.Event{Type: "raid", Platform: "twitch", Data: models.EventData{}})

	select {
	case ev := <-derived:
		assert.Equal(t, "shoutout", ev.Type)
		assert.Equal(t, "twitch", ev.Platform)
		assert.Equal(t, "night_owl", ev.Data["target"])
	case <-time.After(time.Second):
		t.Fatal("derived event never arrived")
	}
}

func TestWaitAction(t *testing.T) {
	ctx := context.Background()
	e, _, adapter := setupEngine(t)

	id, err := e.RegisterRule(ctx, RuleSpec{
		EventType: "follow",
		Actions: []models.Action{
			{Type: models.ActionWait, Params: map[string]interface{}{"ms": float64(30)}},
			sceneAction("after-wait"),
		},
	})
	require.NoError(t, err)

	start := time.Now()
	e.ExecuteRule(ctx, id, models.Event{Type: "follow", Data: models.EventData{}})
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, []string{"switch:after-wait"}, adapter.callLog())
}

func TestLoadRulesResubscribes(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	b := bridge.NewLocal()
	adapter := newFakeAdapter()

	first := NewEngine(b, adapter, st)
	_, err := first.RegisterRule(ctx, RuleSpec{EventType: "raid", Actions: []models.Action{sceneAction("restored")}})
	require.NoError(t, err)

	b2 := bridge.NewLocal()
	second := NewEngine(b2, adapter, st)
	require.NoError(t, second.LoadRules(ctx))
	assert.Equal(t, 1, b2.SubscriberCount("raid"))

	b2.Emit(models.Event{Type: "raid", Data: models.EventData{}})
	require.Eventually(t, func() bool {
		return len(adapter.callLog()) == 1
	}, time.Second, 5*time.Millisecond)
}
