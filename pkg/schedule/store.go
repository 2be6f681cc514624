// Package schedule provides cron-based recurring flow triggers backed
// by a redis schedule store.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const scheduleKey = "flow:schedules"

// ErrScheduleNotFound is returned when a schedule id is unknown.
var ErrScheduleNotFound = fmt.Errorf("schedule not found")

// Schedule is a recurring trigger for one flow.
type Schedule struct {
	// ID of the schedule
	ID string `json:"id"`

	// FlowID is the flow to trigger
	FlowID string `json:"flow_id"`

	// CronExpr is a standard five-field cron expression
	CronExpr string `json:"cron_expr"`

	// Payload is posted as the trigger request body
	Payload map[string]interface{} `json:"payload,omitempty"`

	// Enabled schedules are registered with the cron runner
	Enabled bool `json:"enabled"`

	// CreatedAt is when the schedule was created
	CreatedAt time.Time `json:"created_at"`
}

// Store persists schedules in a redis hash so they survive restarts and
// are shared across instances.
type Store struct {
	client *redis.Client
}

// NewStore connects to redis.
func NewStore(addr, password string, db int) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// NewStoreWithClient wraps an existing redis client, used in tests.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Save persists a schedule, assigning an id when absent.
func (s *Store) Save(ctx context.Context, schedule Schedule) (Schedule, error) {
	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now()
	}

	data, err := json.Marshal(schedule)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to marshal schedule: %w", err)
	}
	if err := s.client.HSet(ctx, scheduleKey, schedule.ID, data).Err(); err != nil {
		return Schedule{}, fmt.Errorf("failed to save schedule: %w", err)
	}
	return schedule, nil
}

// Get retrieves one schedule.
func (s *Store) Get(ctx context.Context, id string) (Schedule, error) {
	data, err := s.client.HGet(ctx, scheduleKey, id).Result()
	if err == redis.Nil {
		return Schedule{}, ErrScheduleNotFound
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to get schedule: %w", err)
	}

	var schedule Schedule
	if err := json.Unmarshal([]byte(data), &schedule); err != nil {
		return Schedule{}, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}
	return schedule, nil
}

// List returns all stored schedules.
func (s *Store) List(ctx context.Context) ([]Schedule, error) {
	entries, err := s.client.HGetAll(ctx, scheduleKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	schedules := make([]Schedule, 0, len(entries))
	for _, data := range entries {
		var schedule Schedule
		if err := json.Unmarshal([]byte(data), &schedule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	return schedules, nil
}

// Delete removes a schedule.
func (s *Store) Delete(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, scheduleKey, id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if removed == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// Close releases the redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
