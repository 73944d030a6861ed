package services_test

import (
	"sync"
	"testing"
	"time"

	"campuslink/internal/config"
	"campuslink/internal/models"
	"campuslink/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var campusRoute = config.ShuttleRoute{
	Name:         "campus",
	Directions:   []string{"to_station", "to_campus"},
	WeekdayTimes: []string{"10:20", "10:25", "11:00", "09:00"},
	WeekendTimes: []string{"12:00"},
	Capacity:     2,
}

type recordingScheduler struct {
	mu   sync.Mutex
	keys []models.SlotKey
}

func (r *recordingScheduler) ScheduleUpdate(key models.SlotKey) {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
}

func (r *recordingScheduler) scheduled() []models.SlotKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SlotKey(nil), r.keys...)
}

func newShuttle(t *testing.T, f *fixture, penalties services.PenaltyStore) (*services.ShuttleService, *recordingScheduler) {
	t.Helper()
	timetable, err := services.NewTimetable([]config.ShuttleRoute{campusRoute})
	require.NoError(t, err)
	if penalties == nil {
		penalties, err = services.NewMemoryPenaltyStore(100)
		require.NoError(t, err)
	}
	updates := &recordingScheduler{}
	opts := services.ShuttleOptions{LeadWindow: 30 * time.Minute, Cooldown: 60 * time.Second}
	return services.NewShuttle(f.db, f.calendar, timetable, penalties, updates, opts, f.logger), updates
}

func slotAt(hhmm string) models.SlotKey {
	return models.SlotKey{Date: "2026-10-16", Route: "campus", Direction: "to_station", Time: hhmm}
}

func TestReserveEarliestSlotFirst(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "rider", "late")
	shuttle, _ := newShuttle(t, f, nil)
	ctx := testContext(t)

	require.ErrorIs(t, shuttle.Reserve(ctx, slotAt("10:25"), "rider"), services.ErrSlotLocked)
	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "rider"))
	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:25"), "rider"))

	// Once the earlier slot has left, the later one is free to book
	require.ErrorIs(t, shuttle.Reserve(ctx, slotAt("10:25"), "late"), services.ErrSlotLocked)
	f.clock.Set(time.Date(2026, 10, 16, 10, 21, 0, 0, kst))
	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:25"), "late"))
}

func TestReserveWindowAndTimetable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "rider")
	shuttle, _ := newShuttle(t, f, nil)
	ctx := testContext(t)

	assert.ErrorIs(t, shuttle.Reserve(ctx, slotAt("11:00"), "rider"), services.ErrSlotNotOpen)
	assert.ErrorIs(t, shuttle.Reserve(ctx, slotAt("09:00"), "rider"), services.ErrSlotDeparted)
	assert.ErrorIs(t, shuttle.Reserve(ctx, slotAt("10:21"), "rider"), services.ErrSlotNotFound)

	wrongWay := slotAt("10:20")
	wrongWay.Direction = "to_moon"
	assert.ErrorIs(t, shuttle.Reserve(ctx, wrongWay, "rider"), services.ErrSlotNotFound)

	badDate := slotAt("10:20")
	badDate.Date = "16/10/2026"
	assert.ErrorIs(t, shuttle.Reserve(ctx, badDate, "rider"), services.ErrSlotNotFound)
}

func TestReserveIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "rider")
	shuttle, updates := newShuttle(t, f, nil)
	ctx := testContext(t)

	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "rider"))
	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "rider"))

	members, err := shuttle.Members(ctx, slotAt("10:20"))
	require.NoError(t, err)
	assert.Equal(t, []string{"rider"}, members)
	assert.Equal(t, []models.SlotKey{slotAt("10:20")}, updates.scheduled())
}

func TestReserveCapacity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "a", "b", "c")
	shuttle, _ := newShuttle(t, f, nil)
	ctx := testContext(t)

	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "a"))
	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "b"))
	assert.ErrorIs(t, shuttle.Reserve(ctx, slotAt("10:20"), "c"), services.ErrCapacityExceeded)
}

func TestCancelStartsPenaltyWindow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "rider")
	shuttle, updates := newShuttle(t, f, nil)
	ctx := testContext(t)
	key := slotAt("10:20")

	require.NoError(t, shuttle.Reserve(ctx, key, "rider"))
	require.NoError(t, shuttle.Cancel(ctx, key, "rider"))
	assert.Len(t, updates.scheduled(), 2)

	err := shuttle.Reserve(ctx, key, "rider")
	require.ErrorIs(t, err, services.ErrPenaltyActive)
	var penalty *services.PenaltyActiveError
	require.ErrorAs(t, err, &penalty)
	assert.Equal(t, 60, penalty.RemainingSeconds())

	f.clock.Advance(59*time.Second + 500*time.Millisecond)
	err = shuttle.Reserve(ctx, key, "rider")
	require.ErrorAs(t, err, &penalty)
	assert.Equal(t, 1, penalty.RemainingSeconds())

	// The penalty is scoped to the route direction
	other := key
	other.Direction = "to_campus"
	require.NoError(t, shuttle.Reserve(ctx, other, "rider"))

	f.clock.Advance(500 * time.Millisecond)
	remaining, err := shuttle.PenaltyRemaining(ctx, "rider", "campus", "to_station")
	require.NoError(t, err)
	assert.Zero(t, remaining)
	require.NoError(t, shuttle.Reserve(ctx, key, "rider"))
}

func TestCancelRequiresSeat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "rider")
	shuttle, _ := newShuttle(t, f, nil)
	ctx := testContext(t)

	assert.ErrorIs(t, shuttle.Cancel(ctx, slotAt("10:20"), "rider"), services.ErrNotReserved)
	assert.ErrorIs(t, shuttle.Cancel(ctx, slotAt("09:00"), "rider"), services.ErrSlotDeparted)

	// A failed cancel starts no penalty
	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "rider"))
}

func TestSuspendedRiderCannotReserve(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "rider")
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", "rider").Update("is_suspended", true).Error)
	shuttle, _ := newShuttle(t, f, nil)

	assert.ErrorIs(t, shuttle.Reserve(testContext(t), slotAt("10:20"), "rider"), services.ErrPermissionDenied)
}

func TestSlotsHideOccupancyFromNonRiders(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "a", "b", "c")
	shuttle, _ := newShuttle(t, f, nil)
	ctx := testContext(t)

	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "a"))
	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "b"))

	slots, err := shuttle.Slots(ctx, "campus", "to_station", "a")
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, []services.SlotState{
		services.SlotDeparted, services.SlotReserved, services.SlotOpen, services.SlotUpcoming,
	}, states(slots))
	require.NotNil(t, slots[1].Occupancy)
	assert.Equal(t, 2, *slots[1].Occupancy)
	assert.Equal(t, 2, slots[1].Capacity)

	slots, err = shuttle.Slots(ctx, "campus", "to_station", "c")
	require.NoError(t, err)
	assert.Equal(t, []services.SlotState{
		services.SlotDeparted, services.SlotOpen, services.SlotLocked, services.SlotUpcoming,
	}, states(slots))
	for _, s := range slots {
		assert.Nil(t, s.Occupancy, s.Time)
	}
}

func TestSlotsUseWeekendTimetable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.clock.Set(time.Date(2026, 10, 17, 11, 45, 0, 0, kst))
	shuttle, _ := newShuttle(t, f, nil)

	slots, err := shuttle.Slots(testContext(t), "campus", "to_campus", "a")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "2026-10-17", slots[0].Date)
	assert.Equal(t, "12:00", slots[0].Time)
	assert.Equal(t, services.SlotOpen, slots[0].State)

	_, err = shuttle.Slots(testContext(t), "night", "to_campus", "a")
	assert.ErrorIs(t, err, services.ErrSlotNotFound)
}

func states(slots []services.Slot) []services.SlotState {
	out := make([]services.SlotState, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.State)
	}
	return out
}

func TestTimetableNormalizesTimes(t *testing.T) {
	t.Parallel()

	timetable, err := services.NewTimetable([]config.ShuttleRoute{{
		Name:         "loop",
		Directions:   []string{"cw"},
		WeekdayTimes: []string{"9:05", "08:40", "09:05"},
	}})
	require.NoError(t, err)

	times, err := timetable.Departures("loop", "cw", time.Monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:40", "09:05"}, times)

	times, err = timetable.Departures("loop", "cw", time.Sunday)
	require.NoError(t, err)
	assert.Empty(t, times)
	assert.Equal(t, []string{"loop"}, timetable.Routes())

	_, err = services.NewTimetable([]config.ShuttleRoute{{
		Name: "loop", Directions: []string{"cw"}, WeekdayTimes: []string{"25:00"},
	}})
	assert.Error(t, err)
}
