package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	"streamcast/internal/errs"
	"streamcast/internal/models"
	"streamcast/internal/utils"
)

// executeAction dispatches one action against the control surface.
// Unknown action types fail with a descriptive error so rule authors get
// feedback instead of a silent no-op.
func (e *Engine) executeAction(ctx context.Context, action models.Action, event models.Event) error {
	switch action.Type {
	case models.ActionSwitchScene:
		scene, err := stringParam(action, "scene")
		if err != nil {
			return err
		}
		return e.controlCall(func() error { return e.adapter.SwitchScene(ctx, scene) })

	case models.ActionSetVisibility:
		scene, err := stringParam(action, "scene")
		if err != nil {
			return err
		}
		source, err := stringParam(action, "source")
		if err != nil {
			return err
		}
		visible, _ := action.Params["visible"].(bool)
		return e.controlCall(func() error { return e.adapter.SetSourceVisibility(ctx, scene, source, visible) })

	case models.ActionPlayMedia:
		source, err := stringParam(action, "source")
		if err != nil {
			return err
		}
		return e.controlCall(func() error { return e.adapter.PlayMedia(ctx, source) })

	case models.ActionPauseMedia:
		source, err := stringParam(action, "source")
		if err != nil {
			return err
		}
		return e.controlCall(func() error { return e.adapter.PauseMedia(ctx, source) })

	case models.ActionRestartMedia:
		source, err := stringParam(action, "source")
		if err != nil {
			return err
		}
		return e.controlCall(func() error { return e.adapter.RestartMedia(ctx, source) })

	case models.ActionStartCapture:
		return e.controlCall(func() error { return e.adapter.StartCapture(ctx) })

	case models.ActionStopCapture:
		return e.controlCall(func() error { return e.adapter.StopCapture(ctx) })

	case models.ActionWait:
		ms, ok := utils.ToFloat(action.Params["ms"])
		if !ok || ms < 0 {
			return fmt.Errorf("wait action requires a non-negative %q parameter", "ms")
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	case models.ActionEmitEvent:
		eventType, err := stringParam(action, "type")
		if err != nil {
			return err
		}
		data := models.EventData{}
		if raw, ok := action.Params["data"].(map[string]interface{}); ok {
			data = raw
		}
		e.bridge.Emit(models.Event{
			Type:      eventType,
			Platform:  event.Platform,
			Data:      data,
			Timestamp: time.Now(),
		})
		return nil

	case models.ActionLog:
		message := utils.ToString(action.Params["message"])
		log.Printf("AUTOMATION: [rule log] %s (event=%s user=%s)",
			message, event.Type, utils.ToString(event.Data["username"]))
		return nil

	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// controlCall gates adapter operations on adapter presence, so a missing
// or disconnected control surface fails loudly instead of no-opping.
func (e *Engine) controlCall(fn func() error) error {
	if e.adapter == nil || !e.adapter.Connected() {
		return errs.ErrAdapterUnavailable
	}
	return fn()
}

func stringParam(action models.Action, key string) (string, error) {
	value, ok := action.Params[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s action requires a %q parameter", action.Type, key)
	}
	return value, nil
}
