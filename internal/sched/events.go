package sched

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Producer returns zero or more display strings to enqueue when its
// event fires.
type Producer func(ctx context.Context) []string

// Event is one row of the scheduled-prompt table. Rows are evaluated in
// table order; the first row matching the current civil minute wins that
// minute.
type Event struct {
	// Spec is the raw schedule ("HH:MM" shorthand or a cron spec).
	Spec string
	// Name appears in logs.
	Name string
	// Reset re-homes the display before the strings are enqueued.
	Reset bool
	// NeedsNet defers firing (without consuming the debounce) while the
	// network is down.
	NeedsNet bool
	Produce  Producer

	sched cron.Schedule
}

var eventParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewEvent validates the spec and builds a table row.
func NewEvent(spec, name string, reset, needsNet bool, produce Producer) (Event, error) {
	s, err := parseEventSpec(spec)
	if err != nil {
		return Event{}, err
	}
	if produce == nil {
		return Event{}, fmt.Errorf("event %q: nil producer", name)
	}
	return Event{Spec: spec, Name: name, Reset: reset, NeedsNet: needsNet, Produce: produce, sched: s}, nil
}

// Matches reports whether the event's schedule lands on t's civil minute.
func (e *Event) Matches(t time.Time) bool {
	if e.sched == nil {
		return false
	}
	minute := t.Truncate(time.Minute)
	return e.sched.Next(minute.Add(-time.Second)).Equal(minute)
}

// parseEventSpec accepts "HH:MM" shorthand for daily events or any
// standard 5-field cron spec.
func parseEventSpec(raw string) (cron.Schedule, error) {
	raw = strings.TrimSpace(raw)
	if h, m, err := parseHHMM(raw); err == nil {
		return eventParser.Parse(fmt.Sprintf("%d %d * * *", m, h))
	}
	s, err := eventParser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid event spec %q: %w", raw, err)
	}
	return s, nil
}

func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// Statics is a producer for a fixed list of prompt strings.
func Statics(strings ...string) Producer {
	out := append([]string(nil), strings...)
	return func(context.Context) []string { return out }
}
