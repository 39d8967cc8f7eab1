package scheduler

import (
	"context"
	"testing"

	"streamcast/internal/bridge"
	"streamcast/internal/models"
	"streamcast/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() (*Scheduler, store.Store) {
	st := store.NewMemory()
	return NewScheduler(bridge.NewLocal(), st), st
}

func TestAddArmsAndPersists(t *testing.T) {
	s, st := newTestScheduler()
	ctx := context.Background()

	id, err := s.Add(ctx, models.Schedule{
		CronExpression: "0 12 * * *",
		EventType:      "follow",
		Data:           models.EventData{"username": "promo"},
		Enabled:        true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, 1, s.JobCount())

	_, err = st.Get(ctx, schedulePrefix+id)
	assert.NoError(t, err)
}

func TestAddRejectsBadInput(t *testing.T) {
	s, _ := newTestScheduler()
	ctx := context.Background()

	_, err := s.Add(ctx, models.Schedule{CronExpression: "0 12 * * *", Enabled: true})
	assert.Error(t, err, "missing event type")

	_, err = s.Add(ctx, models.Schedule{CronExpression: "not a cron", EventType: "follow", Enabled: true})
	assert.Error(t, err, "unparseable cron expression")
	assert.Equal(t, 0, s.JobCount())
}

func TestDisabledScheduleStoredButNotArmed(t *testing.T) {
	s, st := newTestScheduler()
	ctx := context.Background()

	id, err := s.Add(ctx, models.Schedule{
		CronExpression: "0 12 * * *",
		EventType:      "raid",
		Enabled:        false,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, s.JobCount())
	_, err = st.Get(ctx, schedulePrefix+id)
	assert.NoError(t, err)
}

func TestRemoveDisarmsAndDeletes(t *testing.T) {
	s, st := newTestScheduler()
	ctx := context.Background()

	id, err := s.Add(ctx, models.Schedule{
		CronExpression: "0 12 * * *",
		EventType:      "donation",
		Enabled:        true,
	})
	require.NoError(t, err)

	s.Remove(ctx, id)

	assert.Equal(t, 0, s.JobCount())
	_, err = st.Get(ctx, schedulePrefix+id)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestLoadSchedulesArmsEnabledOnly(t *testing.T) {
	first, st := newTestScheduler()
	ctx := context.Background()

	_, err := first.Add(ctx, models.Schedule{CronExpression: "0 12 * * *", EventType: "follow", Enabled: true})
	require.NoError(t, err)
	_, err = first.Add(ctx, models.Schedule{CronExpression: "0 18 * * *", EventType: "raid", Enabled: false})
	require.NoError(t, err)

	// Fresh scheduler over the same store, as after a restart.
	second := NewScheduler(bridge.NewLocal(), st)
	require.NoError(t, second.LoadSchedules(ctx))

	assert.Equal(t, 1, second.JobCount())

	list, err := second.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
