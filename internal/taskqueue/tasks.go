// Package taskqueue defers rule invocations onto a Redis-backed work
// queue so a burst of platform events cannot pile rule executions onto
// the event-receiving goroutines.
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"streamcast/internal/models"

	"github.com/hibiken/asynq"
)

// TypeExecuteRule is the asynq task type for one rule invocation
const TypeExecuteRule = "rule:execute"

// Executor runs a rule against an event; satisfied by automation.Engine
type Executor interface {
	ExecuteRule(ctx context.Context, ruleID string, event models.Event)
}

// ExecutePayload is the serialized task body
type ExecutePayload struct {
	RuleID string       `json:"rule_id"`
	Event  models.Event `json:"event"`
}

// Dispatch enqueues a rule invocation. Implements automation.Dispatcher.
func (d *Dispatcher) Dispatch(ruleID string, event models.Event) {
	payload, err := json.Marshal(ExecutePayload{RuleID: ruleID, Event: event})
	if err != nil {
		log.Printf("TASKQUEUE: Failed to marshal payload for rule %s: %v", ruleID, err)
		return
	}
	task := asynq.NewTask(TypeExecuteRule, payload)
	info, err := d.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(30*time.Second))
	if err != nil {
		log.Printf("TASKQUEUE: Failed to enqueue task for rule %s: %v", ruleID, err)
		return
	}
	log.Printf("TASKQUEUE: Enqueued task %s for rule %s", info.ID, ruleID)
}

func (d *Dispatcher) handleExecuteRule(ctx context.Context, t *asynq.Task) error {
	var payload ExecutePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", t.Type(), err)
	}
	d.executor.ExecuteRule(ctx, payload.RuleID, payload.Event)
	return nil
}
