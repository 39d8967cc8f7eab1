package models

import "time"

// EventData holds the arbitrary payload fields of a platform event
type EventData map[string]interface{}

// Event is an immutable notification from an upstream platform
type Event struct {
	Type      string    `json:"type"`     // "follow", "subscription", "raid", "donation", "cheer", ...
	Platform  string    `json:"platform"` // "twitch", "youtube", "kick", ...
	Data      EventData `json:"data"`     // username, displayName, amount, message, tier, count, ...
	Timestamp time.Time `json:"timestamp"`
}

// KnownEventTypes are the event types seeded with a default template
var KnownEventTypes = []string{"follow", "subscription", "raid", "donation", "cheer"}

// TTSParams configures optional text-to-speech for an alert
type TTSParams struct {
	Enabled bool    `json:"enabled"`
	Voice   string  `json:"voice,omitempty"`
	Rate    float64 `json:"rate,omitempty"`
}

// DisplayConditions gate automatic template selection for an event
type DisplayConditions struct {
	MinAmount      float64 `json:"min_amount,omitempty"`
	MinCount       int     `json:"min_count,omitempty"`
	VIPOnly        bool    `json:"vip_only,omitempty"`
	SubscriberOnly bool    `json:"subscriber_only,omitempty"`
	FirstTimeOnly  bool    `json:"first_time_only,omitempty"`
}

// Template is a reusable, parameterized alert definition
type Template struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	EventType  string            `json:"event_type"`
	Enabled    bool              `json:"enabled"`
	Markup     string            `json:"markup"` // HTML-like, with {{field}} placeholders
	Style      string            `json:"style"`  // CSS-like, with {{field}} placeholders
	Script     string            `json:"script,omitempty"`
	MediaRef   string            `json:"media_ref,omitempty"`
	Duration   int               `json:"duration"` // presentation duration, ms
	Animation  string            `json:"animation"`
	SoundRef   string            `json:"sound_ref,omitempty"`
	Volume     float64           `json:"volume,omitempty"`
	TTS        *TTSParams        `json:"tts,omitempty"`
	Conditions DisplayConditions `json:"conditions"`
	UsageCount int               `json:"usage_count"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// TemplateUpdate carries partial-update fields; nil means "leave unchanged"
type TemplateUpdate struct {
	Name       *string            `json:"name,omitempty"`
	EventType  *string            `json:"event_type,omitempty"`
	Enabled    *bool              `json:"enabled,omitempty"`
	Markup     *string            `json:"markup,omitempty"`
	Style      *string            `json:"style,omitempty"`
	Script     *string            `json:"script,omitempty"`
	MediaRef   *string            `json:"media_ref,omitempty"`
	Duration   *int               `json:"duration,omitempty"`
	Animation  *string            `json:"animation,omitempty"`
	SoundRef   *string            `json:"sound_ref,omitempty"`
	Volume     *float64           `json:"volume,omitempty"`
	TTS        *TTSParams         `json:"tts,omitempty"`
	Conditions *DisplayConditions `json:"conditions,omitempty"`
}

// AlertPayload is a rendered template ready for presentation
type AlertPayload struct {
	Markup    string  `json:"markup"`
	Style     string  `json:"style"`
	Duration  int     `json:"duration"` // ms
	Animation string  `json:"animation"`
	SoundRef  string  `json:"sound_ref,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
}

// AlertStatus is the lifecycle state of a queued alert
type AlertStatus string

const (
	AlertPending    AlertStatus = "pending"
	AlertProcessing AlertStatus = "processing"
	AlertCompleted  AlertStatus = "completed"
	AlertFailed     AlertStatus = "failed"
)

// DefaultPriority is assigned when an enqueue request omits priority
const DefaultPriority = 5

// QueuedAlert is one unit of work in the delivery queue
type QueuedAlert struct {
	ID          string       `json:"id"`
	EventType   string       `json:"event_type"`
	TemplateID  string       `json:"template_id,omitempty"`
	Payload     AlertPayload `json:"payload"`
	Priority    int          `json:"priority"` // lower = more urgent
	Status      AlertStatus  `json:"status"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Condition is the optional predicate set of an automation rule.
// Every specified clause must pass (AND); an empty condition always matches.
type Condition struct {
	Platforms []string           `json:"platforms,omitempty"` // platform membership
	Min       map[string]float64 `json:"min,omitempty"`       // per-field numeric minimum, e.g. {"viewers": 50}
	Max       map[string]float64 `json:"max,omitempty"`       // per-field numeric maximum
	Usernames []string           `json:"usernames,omitempty"` // username membership
}

// Action types dispatched against the control surface
const (
	ActionSwitchScene   = "switch_scene"
	ActionSetVisibility = "set_visibility"
	ActionPlayMedia     = "play_media"
	ActionPauseMedia    = "pause_media"
	ActionRestartMedia  = "restart_media"
	ActionStartCapture  = "start_capture"
	ActionStopCapture   = "stop_capture"
	ActionWait          = "wait"
	ActionEmitEvent     = "emit_event"
	ActionLog           = "log"
)

// Action is one discrete operation performed against the control surface
type Action struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Rule binds an event type, optional conditions and an ordered action list
type Rule struct {
	ID          string     `json:"id"`
	EventType   string     `json:"event_type"`
	Conditions  *Condition `json:"conditions,omitempty"` // nil means "always match"
	Actions     []Action   `json:"actions"`
	Enabled     bool       `json:"enabled"`
	StopOnError bool       `json:"stop_on_error,omitempty"`
}

// Schedule fires a synthetic event on a cron expression
type Schedule struct {
	ID             string    `json:"id"`
	CronExpression string    `json:"cron_expression"`
	EventType      string    `json:"event_type"`
	Data           EventData `json:"data,omitempty"`
	Enabled        bool      `json:"enabled"`
}
