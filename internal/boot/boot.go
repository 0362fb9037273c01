// Package boot runs the bring-up sequence: wait for connectivity, sync
// wall-clock time over NTP, show the welcome string, seed the startup
// quote symbols, and signal readiness. Scheduling starts only after
// boot succeeds, so the loop never runs against an unsynced clock.
package boot

import (
	"context"
	"time"

	"github.com/beevik/ntp"

	"flapd/internal/display"
	"flapd/internal/netmon"
	"flapd/internal/queue"
	"flapd/internal/sched"
	logx "flapd/pkg/logx"
)

// NTP can report garbage (dead server, broken route); any time before
// this floor is rejected as unsynced.
var sanityFloor = time.Unix(1625099485, 0) // 2021-07-01

const defaultNTPServer = "pool.ntp.org"

type Config struct {
	// NTPServer defaults to pool.ntp.org.
	NTPServer string
	// Modules is the display width for the welcome string.
	Modules int
	// Welcome is shown once the clock is synced. Default "hi".
	Welcome string
}

type Deps struct {
	Net     netmon.Monitor
	Display display.Driver
	Queue   *queue.Queue
	Log     logx.Logger

	// MarkSynced flips the clock to synced once NTP passes the floor.
	MarkSynced func()

	// StartupQuotes, when set, produces the quote strings seeded into
	// the queue right after bring-up.
	StartupQuotes sched.Producer

	// Notify reports readiness to the service manager. Nil skips it.
	Notify func() error

	// QueryTime polls the NTP server. Nil uses the real client.
	QueryTime func(server string) (time.Time, error)
}

// Run executes bring-up. It returns only when boot completed or ctx
// ended; transient failures retry forever, the hardware has nowhere
// else to go.
func Run(ctx context.Context, cfg Config, d Deps) error {
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if cfg.NTPServer == "" {
		cfg.NTPServer = defaultNTPServer
	}
	if cfg.Modules <= 0 {
		cfg.Modules = 5
	}
	if cfg.Welcome == "" {
		cfg.Welcome = "hi"
	}
	queryTime := d.QueryTime
	if queryTime == nil {
		queryTime = ntp.Time
	}

	if err := waitConnected(ctx, d); err != nil {
		return err
	}

	d.Display.SetMessage(0, "Syncing NTP time via "+cfg.NTPServer)
	if err := syncTime(ctx, cfg.NTPServer, queryTime, d); err != nil {
		return err
	}

	d.Display.ShowString(display.Pad(cfg.Welcome, cfg.Modules), false)

	if d.StartupQuotes != nil {
		for _, msg := range d.StartupQuotes(ctx) {
			d.Queue.Push(msg)
		}
	}

	if d.Notify != nil {
		if err := d.Notify(); err != nil {
			d.Log.Warn("readiness notify failed", logx.Err(err))
		}
	}

	d.Log.Info("boot complete", logx.Int("queued", d.Queue.Len()))
	return nil
}

func waitConnected(ctx context.Context, d Deps) error {
	if d.Net.Status() == netmon.StatusConnected {
		return nil
	}
	d.Display.SetMessage(1, "Wifi: "+d.Net.StatusLine())
	d.Log.Info("waiting for network", logx.String("status", d.Net.Status().String()))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		d.Net.Reconnect()
		if d.Net.Status() == netmon.StatusConnected {
			d.Display.SetMessage(1, "Wifi: "+d.Net.StatusLine())
			d.Log.Info("network up", logx.String("status", d.Net.StatusLine()))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func syncTime(ctx context.Context, server string, queryTime func(string) (time.Time, error), d Deps) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		t, err := queryTime(server)
		switch {
		case err != nil:
			d.Log.Warn("ntp query failed", logx.String("server", server), logx.Err(err))
		case t.Before(sanityFloor):
			d.Log.Warn("ntp time below sanity floor, retrying", logx.Time("got", t))
		default:
			if d.MarkSynced != nil {
				d.MarkSynced()
			}
			d.Log.Info("time synced", logx.String("server", server), logx.Time("now", t))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
