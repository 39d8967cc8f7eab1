// Package scheduler fires synthetic platform events on cron expressions,
// e.g. an hourly promo alert or a nightly capture stop.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"streamcast/internal/bridge"
	"streamcast/internal/models"
	"streamcast/internal/store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const schedulePrefix = "schedule:"

// Scheduler manages time-based synthetic triggers
type Scheduler struct {
	cron   *cron.Cron
	bridge bridge.Bridge
	store  store.Store

	jobMapMux sync.RWMutex
	jobMap    map[string]cron.EntryID // schedule id -> cron entry id
}

// NewScheduler creates a scheduler emitting through the given bridge
func NewScheduler(b bridge.Bridge, st store.Store) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		bridge: b,
		store:  st,
		jobMap: make(map[string]cron.EntryID),
	}
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("SCHEDULER: Cron scheduler started")
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("SCHEDULER: Cron scheduler stopped")
}

// Add registers a schedule and persists it. Disabled schedules are stored
// but not armed.
func (s *Scheduler) Add(ctx context.Context, sched models.Schedule) (string, error) {
	if sched.ID == "" {
		sched.ID = uuid.New().String()
	}
	if sched.EventType == "" {
		return "", fmt.Errorf("schedule requires an event type")
	}

	if sched.Enabled {
		if err := s.arm(sched); err != nil {
			return "", err
		}
	}

	raw, err := json.Marshal(sched)
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, schedulePrefix+sched.ID, raw); err != nil {
		return "", fmt.Errorf("persist schedule %s: %w", sched.ID, err)
	}
	log.Printf("SCHEDULER: Added schedule %s (%s -> %s)", sched.ID, sched.CronExpression, sched.EventType)
	return sched.ID, nil
}

// Remove disarms and deletes a schedule
func (s *Scheduler) Remove(ctx context.Context, id string) {
	s.jobMapMux.Lock()
	if entryID, ok := s.jobMap[id]; ok {
		s.cron.Remove(entryID)
		delete(s.jobMap, id)
	}
	s.jobMapMux.Unlock()

	if err := s.store.Delete(ctx, schedulePrefix+id); err != nil {
		log.Printf("SCHEDULER: Failed to drop schedule record %s: %v", id, err)
	}
	log.Printf("SCHEDULER: Removed schedule %s", id)
}

// LoadSchedules restores persisted schedules and arms the enabled ones
func (s *Scheduler) LoadSchedules(ctx context.Context) error {
	keys, err := s.store.KeysWithPrefix(ctx, schedulePrefix)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}

	loaded := 0
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				continue
			}
			return fmt.Errorf("load schedule %s: %w", key, err)
		}
		var sched models.Schedule
		if err := json.Unmarshal(raw, &sched); err != nil {
			log.Printf("SCHEDULER: Skipping unreadable schedule record %s: %v", key, err)
			continue
		}
		if !sched.Enabled {
			log.Printf("SCHEDULER: Skipping disabled schedule %s", sched.ID)
			continue
		}
		if err := s.arm(sched); err != nil {
			log.Printf("SCHEDULER: Failed to arm schedule %s with cron '%s': %v", sched.ID, sched.CronExpression, err)
			continue
		}
		loaded++
	}
	log.Printf("SCHEDULER: Armed %d schedules", loaded)
	return nil
}

// List returns every persisted schedule, armed or not
func (s *Scheduler) List(ctx context.Context) ([]models.Schedule, error) {
	keys, err := s.store.KeysWithPrefix(ctx, schedulePrefix)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	out := []models.Schedule{}
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("read schedule %s: %w", key, err)
		}
		var sched models.Schedule
		if err := json.Unmarshal(raw, &sched); err != nil {
			log.Printf("SCHEDULER: Skipping unreadable schedule record %s: %v", key, err)
			continue
		}
		out = append(out, sched)
	}
	return out, nil
}

// JobCount reports currently armed schedules
func (s *Scheduler) JobCount() int {
	s.jobMapMux.RLock()
	defer s.jobMapMux.RUnlock()
	return len(s.jobMap)
}

func (s *Scheduler) arm(sched models.Schedule) error {
	scheduleID := sched.ID
	eventType := sched.EventType
	data := sched.Data

	entryID, err := s.cron.AddFunc(sched.CronExpression, func() {
		log.Printf("SCHEDULER: Cron fired for schedule %s, emitting %s", scheduleID, eventType)
		payload := models.EventData{"scheduled": true, "schedule_id": scheduleID}
		for k, v := range data {
			payload[k] = v
		}
		s.bridge.Emit(models.Event{
			Type:      eventType,
			Platform:  "scheduler",
			Data:      payload,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		return err
	}

	s.jobMapMux.Lock()
	s.jobMap[scheduleID] = entryID
	s.jobMapMux.Unlock()
	return nil
}
