package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"streamcast/internal/errs"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTAdapter drives the production tool through command topics on an
// MQTT broker: a companion plugin inside the tool subscribes to
// studio/<operation> and applies each command.
type MQTTAdapter struct {
	client mqtt.Client
}

// NewMQTTAdapter wraps a connected MQTT client
func NewMQTTAdapter(client mqtt.Client) *MQTTAdapter {
	return &MQTTAdapter{client: client}
}

func (a *MQTTAdapter) Connected() bool {
	return a.client != nil && a.client.IsConnectionOpen()
}

func (a *MQTTAdapter) publish(ctx context.Context, op string, params map[string]interface{}) error {
	if !a.Connected() {
		return errs.ErrAdapterUnavailable
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s command: %w", op, err)
	}
	topic := "studio/" + op
	log.Printf("CONTROL: Publishing command to %s: %s", topic, payload)

	token := a.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *MQTTAdapter) SwitchScene(ctx context.Context, name string) error {
	return a.publish(ctx, "switch_scene", map[string]interface{}{"scene": name})
}

func (a *MQTTAdapter) SetSourceVisibility(ctx context.Context, scene, source string, visible bool) error {
	return a.publish(ctx, "set_visibility", map[string]interface{}{
		"scene": scene, "source": source, "visible": visible,
	})
}

func (a *MQTTAdapter) PlayMedia(ctx context.Context, source string) error {
	return a.publish(ctx, "play_media", map[string]interface{}{"source": source})
}

func (a *MQTTAdapter) PauseMedia(ctx context.Context, source string) error {
	return a.publish(ctx, "pause_media", map[string]interface{}{"source": source})
}

func (a *MQTTAdapter) RestartMedia(ctx context.Context, source string) error {
	return a.publish(ctx, "restart_media", map[string]interface{}{"source": source})
}

func (a *MQTTAdapter) StartCapture(ctx context.Context) error {
	return a.publish(ctx, "start_capture", nil)
}

func (a *MQTTAdapter) StopCapture(ctx context.Context) error {
	return a.publish(ctx, "stop_capture", nil)
}
