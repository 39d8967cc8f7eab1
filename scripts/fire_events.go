package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"streamcast/internal/models"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// Publishes sample platform events to a local broker so the engine can be
// exercised without a real streaming platform connection.
//
//	go run scripts/fire_events.go            # fires one of each known type
//	go run scripts/fire_events.go donation   # fires just that type

var sampleData = map[string]models.EventData{
	"follow":       {"username": "new_viewer_42", "platform": "twitch"},
	"subscription": {"username": "loyal_fan", "tier": "2", "months": 7, "platform": "twitch"},
	"raid":         {"username": "big_streamer", "count": 250, "platform": "twitch"},
	"donation":     {"username": "generous_one", "amount": 25.0, "message": "keep it up!", "platform": "youtube"},
	"cheer":        {"username": "bit_thrower", "amount": 500, "platform": "twitch"},
}

func main() {
	fmt.Println("🚀 StreamCast Event Tester")
	fmt.Println("==========================")

	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://localhost:1883"
	}

	opts := MQTT.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("streamcast-event-tester")
	client := MQTT.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("Unable to connect to MQTT broker: %v", token.Error())
	}
	defer client.Disconnect(250)

	types := models.KnownEventTypes
	if len(os.Args) > 1 {
		types = os.Args[1:]
	}

	for _, eventType := range types {
		data, ok := sampleData[eventType]
		if !ok {
			fmt.Printf("❌ No sample data for event type %q\n", eventType)
			continue
		}
		raw, err := json.Marshal(data)
		if err != nil {
			log.Fatalf("Failed to marshal event data: %v", err)
		}
		topic := "events/" + eventType
		if token := client.Publish(topic, 0, false, raw); token.Wait() && token.Error() != nil {
			log.Fatalf("Failed to publish to %s: %v", topic, token.Error())
		}
		fmt.Printf("✅ Fired %s -> %s\n", eventType, topic)
		time.Sleep(200 * time.Millisecond)
	}
}
