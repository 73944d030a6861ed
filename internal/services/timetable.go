package services

import (
	"fmt"
	"slices"
	"time"

	"campuslink/internal/clock"
	"campuslink/internal/config"
)

type routeSchedule struct {
	directions map[string]bool
	weekday    []string
	weekend    []string
	capacity   int
}

// Timetable holds the configured shuttle departures.
type Timetable struct {
	routes map[string]routeSchedule
}

// NewTimetable validates and indexes the configured routes. Departure times
// are sorted so slot order is departure order.
func NewTimetable(routes []config.ShuttleRoute) (*Timetable, error) {
	t := &Timetable{routes: make(map[string]routeSchedule, len(routes))}
	for _, r := range routes {
		sched := routeSchedule{
			directions: make(map[string]bool, len(r.Directions)),
			capacity:   r.Capacity,
		}
		for _, d := range r.Directions {
			sched.directions[d] = true
		}
		var err error
		if sched.weekday, err = sortedTimes(r.Name, r.WeekdayTimes); err != nil {
			return nil, err
		}
		if sched.weekend, err = sortedTimes(r.Name, r.WeekendTimes); err != nil {
			return nil, err
		}
		t.routes[r.Name] = sched
	}
	return t, nil
}

func sortedTimes(route string, times []string) ([]string, error) {
	out := make([]string, 0, len(times))
	for _, hhmm := range times {
		parsed, err := time.Parse(clock.TimeLayout, hhmm)
		if err != nil {
			return nil, fmt.Errorf("route %s: invalid departure %q: %w", route, hhmm, err)
		}
		// 08:05 과 8:05 를 같은 슬롯으로 취급
		out = append(out, parsed.Format(clock.TimeLayout))
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Departures lists the HH:MM departures of a route direction on the given weekday.
func (t *Timetable) Departures(route, direction string, weekday time.Weekday) ([]string, error) {
	sched, ok := t.routes[route]
	if !ok || !sched.directions[direction] {
		return nil, ErrSlotNotFound
	}
	if weekday == time.Saturday || weekday == time.Sunday {
		return sched.weekend, nil
	}
	return sched.weekday, nil
}

// Capacity is the per-slot rider limit of a route; 0 means unbounded.
func (t *Timetable) Capacity(route string) int {
	return t.routes[route].capacity
}

// Routes lists the configured route names in sorted order.
func (t *Timetable) Routes() []string {
	names := make([]string, 0, len(t.routes))
	for name := range t.routes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
