// Package clock provides the scheduler's two time sources: a monotonic
// millisecond counter and timezone-aware civil time.
package clock

import (
	"strings"
	"sync/atomic"
	"time"

	"flapd/pkg/logx"
)

// Clock is what the scheduler consumes.
//
// NowMillis is monotonic and wraps after ~49.7 days; callers must compare
// instants with uint32 subtraction, never with <.
// Local is only meaningful once Synced reports true.
type Clock interface {
	NowMillis() uint32
	Local() time.Time
	Synced() bool
}

// System is the process clock. Millis are anchored at construction and
// derived from the runtime's monotonic reading, so NTP steps to the wall
// clock do not disturb interval math.
type System struct {
	start  time.Time
	loc    *time.Location
	synced atomic.Bool
}

// NewSystem builds the process clock for the given IANA timezone.
// An empty or invalid zone falls back to time.Local.
func NewSystem(timezone string, log logx.Logger) *System {
	return &System{start: time.Now(), loc: loadLocation(timezone, log)}
}

func loadLocation(tz string, log logx.Logger) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func (c *System) NowMillis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

func (c *System) Local() time.Time { return time.Now().In(c.loc) }

func (c *System) Synced() bool { return c.synced.Load() }

// MarkSynced is called once by bring-up after the NTP wait completes.
func (c *System) MarkSynced() { c.synced.Store(true) }

// Location exposes the zone rule for status formatting.
func (c *System) Location() *time.Location { return c.loc }
