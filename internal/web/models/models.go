package models

import "streamcast/internal/models"

type LoginRequest struct {
	Password string `json:"password"`
}

type EnableRequest struct {
	Enabled *bool `json:"enabled"`
}

type TriggerRequest struct {
	EventType string           `json:"event_type"`
	Data      models.EventData `json:"data,omitempty"`
}

type AddScheduleRequest struct {
	CronExpression string           `json:"cron_expression"`
	EventType      string           `json:"event_type"`
	Data           models.EventData `json:"data,omitempty"`
	Enabled        *bool            `json:"enabled,omitempty"`
}
