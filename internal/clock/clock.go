package clock

import (
	"fmt"
	"sync"
	"time"
)

// DateLayout is the layout of calendar dates stored on users and shuttle slots.
const DateLayout = "2006-01-02"

// TimeLayout is the layout of shuttle departure times.
const TimeLayout = "15:04"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Mock is a manually driven clock for tests.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Calendar answers day-boundary questions in one canonical timezone so that
// every device agrees on what "today" is.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

// NewCalendar binds a clock to a timezone. A nil location means UTC.
func NewCalendar(c Clock, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{clock: c, loc: loc}
}

// LoadCalendar resolves an IANA timezone name.
func LoadCalendar(c Clock, timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return NewCalendar(c, loc), nil
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current instant in the calendar timezone.
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// StartOfDay returns local midnight of the day containing t.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// DateOf formats the calendar date containing t.
func (c *Calendar) DateOf(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}

// Today is the current calendar date.
func (c *Calendar) Today() string {
	return c.DateOf(c.clock.Now())
}

func (c *Calendar) Weekday() time.Weekday {
	return c.Now().Weekday()
}

// At resolves a date and an HH:MM time to an instant in the calendar timezone.
func (c *Calendar) At(date, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+hhmm, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %s %s: %w", date, hhmm, err)
	}
	return t, nil
}

// ParseDate parses a calendar date in the calendar timezone.
func (c *Calendar) ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, c.loc)
}
