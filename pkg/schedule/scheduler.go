package schedule

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// TriggerFunc fires a flow execution for a schedule.
type TriggerFunc func(ctx context.Context, flowID string, payload map[string]interface{}) error

// Scheduler registers stored schedules with a cron runner and fires
// them through the trigger function.
type Scheduler struct {
	store   *Store
	trigger TriggerFunc
	cron    *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler over a store.
func NewScheduler(store *Store, trigger TriggerFunc) *Scheduler {
	return &Scheduler{
		store:   store,
		trigger: trigger,
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// Start loads persisted schedules and begins firing them.
func (s *Scheduler) Start(ctx context.Context) error {
	schedules, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}
	for _, schedule := range schedules {
		if !schedule.Enabled {
			continue
		}
		if err := s.register(schedule); err != nil {
			log.Printf("skipping schedule %s: %v", schedule.ID, err)
		}
	}

	s.cron.Start()
	return nil
}

// Add persists a schedule and registers it when enabled.
func (s *Scheduler) Add(ctx context.Context, schedule Schedule) (Schedule, error) {
	// Validate before persisting so broken expressions never reach redis.
	if _, err := cron.ParseStandard(schedule.CronExpr); err != nil {
		return Schedule{}, fmt.Errorf("invalid cron expression %q: %w", schedule.CronExpr, err)
	}

	saved, err := s.store.Save(ctx, schedule)
	if err != nil {
		return Schedule{}, err
	}
	if saved.Enabled {
		if err := s.register(saved); err != nil {
			return Schedule{}, err
		}
	}
	return saved, nil
}

// Remove deletes a schedule and unregisters its cron entry.
func (s *Scheduler) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
	return nil
}

// Stop halts the cron runner; running jobs finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) register(schedule Schedule) error {
	entryID, err := s.cron.AddFunc(schedule.CronExpr, func() {
		if err := s.trigger(context.Background(), schedule.FlowID, schedule.Payload); err != nil {
			log.Printf("scheduled trigger for flow %s failed: %v", schedule.FlowID, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule.CronExpr, err)
	}

	s.mu.Lock()
	s.entries[schedule.ID] = entryID
	s.mu.Unlock()
	return nil
}
