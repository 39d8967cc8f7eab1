package bridge

import (
	"encoding/json"
	"log"
	"time"

	"streamcast/internal/models"
	"streamcast/internal/utils"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// eventTopicFilter matches every platform event topic, e.g. "events/raid"
const eventTopicFilter = "events/+"

// MQTT is a Bridge fed by an MQTT broker. Platform integrations publish
// event payloads to events/<type>; derived events emitted by the engine
// are published back to the same topic space so external consumers see
// them too.
type MQTT struct {
	client mqtt.Client
	local  *Local
}

// NewMQTTClient connects a raw paho client
func NewMQTTClient(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

// NewMQTT wraps a connected client and starts receiving platform events
func NewMQTT(client mqtt.Client) (*MQTT, error) {
	b := &MQTT{client: client, local: NewLocal()}
	token := client.Subscribe(eventTopicFilter, 1, b.onMessage)
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("BRIDGE: Subscribed to MQTT topic %s", eventTopicFilter)
	return b, nil
}

// Close disconnects from the broker
func (b *MQTT) Close() {
	b.client.Disconnect(250)
}

func (b *MQTT) Subscribe(eventType string, handler Handler) func() {
	return b.local.Subscribe(eventType, handler)
}

// Emit publishes the event to the broker. The broker echoes it back on
// the events/+ subscription, which is what dispatches local handlers, so
// external consumers and local subscribers see the same stream.
func (b *MQTT) Emit(event models.Event) {
	payload, err := json.Marshal(wireData(event))
	if err != nil {
		log.Printf("BRIDGE: Failed to marshal event data for %s: %v", event.Type, err)
		return
	}
	b.client.Publish("events/"+event.Type, 1, false, payload)
}

// wireData folds the platform into the published payload so the broker
// echo reconstructs the same event onMessage parses. An explicit
// "platform" field in the data wins.
func wireData(event models.Event) models.EventData {
	if event.Platform == "" {
		return event.Data
	}
	if _, ok := event.Data["platform"]; ok {
		return event.Data
	}
	data := make(models.EventData, len(event.Data)+1)
	for k, v := range event.Data {
		data[k] = v
	}
	data["platform"] = event.Platform
	return data
}

func (b *MQTT) onMessage(_ mqtt.Client, msg mqtt.Message) {
	eventType := utils.ParseEventType(msg.Topic())
	if eventType == "" {
		log.Printf("BRIDGE: Ignoring message on unexpected topic %s", msg.Topic())
		return
	}

	var data models.EventData
	if err := json.Unmarshal(msg.Payload(), &data); err != nil {
		log.Printf("BRIDGE: Error unmarshaling event payload on %s: %v", msg.Topic(), err)
		return
	}

	platform, _ := data["platform"].(string)
	b.local.Emit(models.Event{
		Type:      eventType,
		Platform:  platform,
		Data:      data,
		Timestamp: time.Now(),
	})
}
