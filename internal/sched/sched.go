// Package sched is the message-scheduling loop: a single cooperative
// ~1 Hz state machine reconciling wall-clock time, the pending-message
// queue, periodic network refresh, and the display driver.
//
// The loop is the sole writer of every piece of scheduler state and the
// sole caller of Driver.ShowString in this subsystem. Monotonic instants
// are uint32 milliseconds; deltas are always computed with uint32
// subtraction so counter wrap (~49.7 days) is harmless.
package sched

import (
	"context"
	"fmt"
	"time"

	"flapd/internal/clock"
	"flapd/internal/display"
	"flapd/internal/fetch"
	"flapd/internal/netmon"
	"flapd/internal/queue"
	"flapd/internal/storage"
	"flapd/internal/summary"
	"flapd/pkg/logx"
)

// Mode tracks where the loop is relative to quiet hours.
type Mode int

const (
	ModeActive Mode = iota
	ModeQuiet
	ModeNightEdge
)

func (m Mode) String() string {
	switch m {
	case ModeActive:
		return "active"
	case ModeQuiet:
		return "quiet"
	case ModeNightEdge:
		return "night-edge"
	default:
		return "unknown"
	}
}

// Config carries the loop's timing knobs. Zero fields take defaults.
type Config struct {
	// Modules is the character count of the physical display.
	Modules int

	MessageCycleInterval time.Duration // min gap between ShowString calls (5s)
	RequestInterval      time.Duration // weather refresh period (10m)
	StaleTime            time.Duration // data age before the stale marker (30m)
	EventDebounce        time.Duration // min gap between scheduled firings (60s)

	TickPeriod time.Duration // normal pause between ticks (1s)
	QuietPause time.Duration // pause while quiet (10s)
	NightPause time.Duration // one-shot pause after the night legend (60s)

	// QuietStartHour..QuietEndHour is the inclusive quiet window; it
	// wraps midnight when start > end. nil means the default (21 and 8),
	// so an explicit 0 is a real midnight boundary.
	QuietStartHour *int
	QuietEndHour   *int

	WeatherEnabled bool
	WeatherURL     string
}

func (c *Config) applyDefaults() {
	if c.Modules <= 0 {
		c.Modules = 5
	}
	if c.MessageCycleInterval <= 0 {
		c.MessageCycleInterval = 5 * time.Second
	}
	if c.RequestInterval <= 0 {
		c.RequestInterval = 10 * time.Minute
	}
	if c.StaleTime <= 0 {
		c.StaleTime = 30 * time.Minute
	}
	if c.EventDebounce <= 0 {
		c.EventDebounce = time.Minute
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = time.Second
	}
	if c.QuietPause <= 0 {
		c.QuietPause = 10 * time.Second
	}
	if c.NightPause <= 0 {
		c.NightPause = time.Minute
	}
	if c.QuietStartHour == nil {
		c.QuietStartHour = hourPtr(21)
	}
	if c.QuietEndHour == nil {
		c.QuietEndHour = hourPtr(8)
	}
}

func hourPtr(h int) *int { return &h }

// inQuietWindow reports whether hour h falls in the inclusive window
// start..end, wrapping midnight when start > end.
func inQuietWindow(h, start, end int) bool {
	if start <= end {
		return h >= start && h <= end
	}
	return h >= start || h <= end
}

// Deps are the collaborators the loop drives. Store may be nil.
type Deps struct {
	Clock   clock.Clock
	Queue   *queue.Queue
	Display display.Driver
	Fetcher fetch.Adapter
	Net     netmon.Monitor
	Store   storage.Store
	Log     logx.Logger
}

// Scheduler is the core state machine. Not safe for concurrent use; Run
// owns it for the process lifetime.
type Scheduler struct {
	cfg Config
	d   Deps

	events []Event

	// Monotonic instants; the has* flags stand in for "never".
	lastFetch  uint32
	hasFetched bool
	lastCycle  uint32
	lastFired  uint32
	hasFired   bool
	lastErrLog uint32
	hasErrLog  bool

	lastClock  string
	mode       Mode
	statusLine string // last "Data: ..." line, for the stale marker
	staleShown bool

	// Watchdog, when set, is kicked once per wake (systemd watchdog).
	Watchdog func()
}

func millis(d time.Duration) uint32 { return uint32(d / time.Millisecond) }

// New builds the scheduler. The event table keeps its given order;
// earlier rows win ties.
func New(cfg Config, deps Deps, events []Event) *Scheduler {
	cfg.applyDefaults()
	if deps.Log.IsZero() {
		deps.Log = logx.Nop()
	}
	return &Scheduler{cfg: cfg, d: deps, events: events}
}

// Run executes the cooperative loop until ctx is canceled. The loop
// never returns an error: everything inside a tick is recoverable.
func (s *Scheduler) Run(ctx context.Context) {
	s.lastCycle = s.d.Clock.NowMillis()
	s.d.Log.Info("scheduler started",
		logx.Int("modules", s.cfg.Modules),
		logx.Int("events", len(s.events)),
		logx.Duration("cycle", s.cfg.MessageCycleInterval),
		logx.Duration("refresh", s.cfg.RequestInterval))

	timer := time.NewTimer(0)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		pause := s.Tick(ctx)
		if s.Watchdog != nil {
			s.Watchdog()
		}
		timer.Reset(pause)
		select {
		case <-ctx.Done():
			s.d.Log.Info("scheduler stopped")
			return
		case <-timer.C:
		}
	}
}

// Tick runs one pass of the state machine and returns the pause before
// the next tick. Steps run strictly in order: quiet gate, scheduled
// events, weather refresh, connectivity, display cycling, status line.
func (s *Scheduler) Tick(ctx context.Context) time.Duration {
	now := s.d.Clock.NowMillis()
	lt := s.d.Clock.Local()
	h, m := lt.Hour(), lt.Minute()

	// (a) Quiet-hours gate.
	if h == *s.cfg.QuietStartHour && m == 0 && s.mode != ModeNightEdge {
		s.d.Display.ShowString(display.Pad("night", s.cfg.Modules), false)
		s.d.Display.DisableAll()
		s.mode = ModeNightEdge
		s.d.Log.Info("entering quiet hours")
		return s.cfg.NightPause
	}
	if inQuietWindow(h, *s.cfg.QuietStartHour, *s.cfg.QuietEndHour) {
		s.mode = ModeQuiet
		return s.cfg.QuietPause
	}
	if s.mode != ModeActive {
		s.d.Log.Info("leaving quiet hours")
	}
	s.mode = ModeActive

	// (b) Scheduled events. Civil-minute granularity with a sub-second
	// loop period would refire up to 60 times without the debounce.
	if !s.hasFired || now-s.lastFired > millis(s.cfg.EventDebounce) {
		s.fireScheduled(ctx, now, lt)
	}

	// (c) Network refresh.
	if s.cfg.WeatherEnabled && (!s.hasFetched || now-s.lastFetch > millis(s.cfg.RequestInterval)) {
		s.refreshWeather(ctx, now, lt)
	}

	// (d) Connectivity maintenance.
	if s.d.Net.Status() != netmon.StatusConnected {
		s.d.Net.Reconnect()
	}

	// (e) Display cycling.
	s.cycleDisplay(now, h, m)

	// (f) Status line.
	s.d.Display.SetMessage(1, "Wifi: "+s.d.Net.StatusLine())
	s.markStale(now)

	return s.cfg.TickPeriod
}

// fireScheduled scans the table in order and fires the first row whose
// schedule lands on this civil minute. Later matching rows lose the
// minute. Rows needing the network retry next tick (without consuming
// the debounce) while it is down.
func (s *Scheduler) fireScheduled(ctx context.Context, now uint32, lt time.Time) {
	for i := range s.events {
		ev := &s.events[i]
		if !ev.Matches(lt) {
			continue
		}
		if ev.NeedsNet && s.d.Net.Status() != netmon.StatusConnected {
			s.d.Net.Reconnect()
			if s.d.Net.Status() != netmon.StatusConnected {
				s.d.Log.Warn("scheduled event deferred, network down", logx.String("event", ev.Name))
				return
			}
		}
		if ev.Reset {
			s.d.Display.ResetAll()
		}
		msgs := ev.Produce(ctx)
		for _, msg := range msgs {
			s.d.Queue.Push(msg) // full queue drops the newest
		}
		s.lastFired, s.hasFired = now, true
		s.d.Log.Info("scheduled event fired",
			logx.String("event", ev.Name), logx.Int("strings", len(msgs)))
		return
	}
}

// refreshWeather performs one fetch attempt. Transport and HTTP errors
// leave the refresh timer alone so the next tick retries (retry pressure
// is already capped by the loop period); error logging is additionally
// capped to one line per RequestInterval. A readable body always
// advances the timer, even when it fails to parse, so a broken endpoint
// is not hot-looped.
func (s *Scheduler) refreshWeather(ctx context.Context, now uint32, lt time.Time) {
	res := s.d.Fetcher.Get(ctx, s.cfg.WeatherURL)
	if res.Kind() != fetch.KindBody {
		if !s.hasErrLog || now-s.lastErrLog > millis(s.cfg.RequestInterval) {
			s.d.Log.Warn("weather fetch failed", logx.String("result", res.String()))
			s.lastErrLog, s.hasErrLog = now, true
		}
		return
	}

	s.lastFetch, s.hasFetched = now, true
	s.staleShown = false

	w, err := summary.SummarizeWeather(res.Body, s.cfg.Modules, lt, s.d.Log)
	if err != nil {
		s.d.Log.Warn("weather parse failed", logx.Err(err))
		return
	}
	if len(w.Strings) == 0 {
		return
	}

	for _, msg := range w.Strings {
		s.d.Queue.Push(msg)
	}
	s.statusLine = w.StatusLine
	s.d.Display.SetMessage(0, w.StatusLine)
	s.d.Log.Info("weather refreshed",
		logx.Int("stations", w.Stations),
		logx.Float64("median_temp_f", w.MedianTempF),
		logx.Float64("median_wind_kn", w.MedianWindKn))

	if s.d.Store != nil {
		if err := s.d.Store.AppendRefresh(ctx, storage.RefreshEntry{
			At:           lt,
			Stations:     w.Stations,
			MedianTempF:  w.MedianTempF,
			MedianWindKn: w.MedianWindKn,
		}); err != nil && err != storage.ErrDisabled {
			s.d.Log.Debug("refresh history append failed", logx.Err(err))
		}
	}
}

// cycleDisplay advances the queue at most once per wake; a loop
// suspended past the cycle interval never bursts to catch up.
func (s *Scheduler) cycleDisplay(now uint32, h, m int) {
	if now-s.lastCycle <= millis(s.cfg.MessageCycleInterval) {
		return
	}
	if msg, ok := s.d.Queue.Pop(); ok {
		s.d.Log.Debug("cycling to next message", logx.String("text", msg))
		s.d.Display.ShowString(display.Pad(msg, s.cfg.Modules), false)
		s.lastCycle = now
		return
	}

	// Idle clock: redraw only on change so a quiet minute costs nothing.
	cs := fmt.Sprintf("t%02d%02d", h, m)
	if cs == s.lastClock {
		return
	}
	s.d.Display.ShowString(display.Pad(cs, s.cfg.Modules), false)
	s.lastClock = cs
	s.lastCycle = now
}

// markStale appends a marker to the data line once the last successful
// refresh is older than StaleTime.
func (s *Scheduler) markStale(now uint32) {
	if !s.hasFetched || s.staleShown || s.statusLine == "" {
		return
	}
	if now-s.lastFetch > millis(s.cfg.StaleTime) {
		s.d.Display.SetMessage(0, s.statusLine+" (stale)")
		s.staleShown = true
	}
}

// Mode exposes the current quiet-hours mode (status/debug only).
func (s *Scheduler) Mode() Mode { return s.mode }
