// Package app wires the daemon together: config, logging, storage,
// connectivity, display, the scheduled-prompt table, and the boot plus
// display loop under one supervisor.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"flapd/internal/boot"
	"flapd/internal/clock"
	"flapd/internal/config"
	"flapd/internal/display"
	"flapd/internal/display/wsview"
	"flapd/internal/fetch"
	"flapd/internal/netmon"
	"flapd/internal/ota"
	"flapd/internal/queue"
	"flapd/internal/runtime/supervisor"
	"flapd/internal/sched"
	"flapd/internal/storage"
	logx "flapd/pkg/logx"
)

const defaultWSListen = "127.0.0.1:8613"

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	clk   *clock.System
	q     *queue.Queue
	dsp   display.Driver
	wsrv  *wsview.Server // nil unless the ws driver is selected
	net   netmon.Monitor
	store storage.Store
	loop  *sched.Scheduler

	bootCfg  boot.Config
	bootDeps boot.Deps
	update   config.UpdateConfig
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	modules := cfg.Display.Modules
	if modules <= 0 {
		modules = 5
	}

	clk := clock.NewSystem(cfg.Time.Timezone, log.With(logx.String("comp", "clock")))
	q := queue.New(queue.DefaultCapacity)

	// Storage (optional)
	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("history log enabled", logx.String("driver", sc.Driver))
	}

	// Display driver
	var dsp display.Driver
	var wsrv *wsview.Server
	switch cfg.Display.Driver {
	case "", "console":
		dsp = display.NewConsole(log.With(logx.String("comp", "display")))
	case "ws":
		listen := cfg.Display.Listen
		if listen == "" {
			listen = defaultWSListen
		}
		wsrv = wsview.New(wsview.Config{Listen: listen, Modules: modules},
			log.With(logx.String("comp", "display")))
		dsp = wsrv
	default:
		return nil, fmt.Errorf("display.driver: unknown driver %q", cfg.Display.Driver)
	}

	// Connectivity monitor
	var mon netmon.Monitor
	switch cfg.Network.Monitor {
	case "static":
		mon = netmon.Static{Line: cfg.Network.SSID}
	default:
		every, err := config.ParseDurationOrDefault("network.reconnect_every",
			cfg.Network.ReconnectEvery, 30*time.Second)
		if err != nil {
			return nil, err
		}
		mon = netmon.NewIface(netmon.Config{
			Interface:      cfg.Network.Interface,
			SSID:           cfg.Network.SSID,
			ReconnectCmd:   cfg.Network.ReconnectCmd,
			ReconnectEvery: every,
		}, log.With(logx.String("comp", "netmon")))
	}

	fetcher := fetch.NewHTTP(fetch.DefaultTimeout)

	schedCfg, err := mapSchedulerConfig(cfg, modules)
	if err != nil {
		return nil, err
	}
	events, err := buildEvents(cfg, fetcher, store, modules, log)
	if err != nil {
		return nil, err
	}

	loop := sched.New(schedCfg, sched.Deps{
		Clock:   clk,
		Queue:   q,
		Display: dsp,
		Fetcher: fetcher,
		Net:     mon,
		Store:   store,
		Log:     log.With(logx.String("comp", "sched")),
	}, events)

	var startupQuotes sched.Producer
	if len(cfg.Quotes.Startup) > 0 {
		startupQuotes = sched.Quotes(sched.QuoteConfig{
			URLTemplate: cfg.Quotes.URLTemplate,
			Token:       cfg.Quotes.Token,
			Symbols:     cfg.Quotes.Startup,
			Modules:     modules,
		}, fetcher, store, log.With(logx.String("comp", "quotes")))
	}

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		clk:     clk,
		q:       q,
		dsp:     dsp,
		wsrv:    wsrv,
		net:     mon,
		store:   store,
		loop:    loop,
		update:  cfg.Update,
		bootCfg: boot.Config{
			NTPServer: cfg.Time.NTPServer,
			Modules:   modules,
		},
	}
	a.bootDeps = boot.Deps{
		Net:           mon,
		Display:       dsp,
		Queue:         q,
		Log:           log.With(logx.String("comp", "boot")),
		MarkSynced:    clk.MarkSynced,
		StartupQuotes: startupQuotes,
		Notify: func() error {
			_, err := daemon.SdNotify(false, daemon.SdNotifyReady)
			return err
		},
	}
	return a, nil
}

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		// Validate() already ran in Parse; check what it can't see.
		if tz := strings.TrimSpace(cfg.Time.Timezone); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("time.timezone: invalid %q: %w", tz, err)
			}
		}
		for i, ev := range cfg.Schedule.Events {
			if _, err := sched.NewEvent(ev.At, ev.At, false, false, sched.Statics()); err != nil {
				return fmt.Errorf("schedule.events[%d]: %w", i, err)
			}
		}
		return nil
	})

	if a.wsrv != nil {
		a.sup.Go("display.ws", a.wsrv.Serve)
	}
	a.sup.GoRestart("config.watch", a.cfgm.Watch)

	if a.update.Enabled {
		w, err := ota.New(a.update.Path, a.log.With(logx.String("comp", "ota")), a.sup.Cancel)
		if err != nil {
			return err
		}
		a.sup.Go("ota.watch", w.Run)
	}

	// Hot reload applies logging only; everything else needs a restart.
	sub := a.cfgm.Subscribe(4)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				sections, attrs := config.SummarizeChange(last, cfg)
				last = cfg
				if len(sections) == 0 {
					continue
				}
				fields := append([]logx.Field{
					logx.String("changed", strings.Join(sections, ",")),
				}, attrs...)
				a.log.Info("config reloaded", fields...)

				for _, s := range sections {
					if s != "logging" {
						a.log.Warn("config section needs restart to apply", logx.String("section", s))
					}
				}
				a.logs.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
			}
		}
	})

	watchdog, _ := daemon.SdWatchdogEnabled(false)
	if watchdog > 0 {
		a.loop.Watchdog = func() { _, _ = daemon.SdNotify(false, "WATCHDOG=1") }
	}

	a.sup.Go("main", func(c context.Context) error {
		// The loop kicks the watchdog only once it runs; cover the boot
		// phase (network wait, NTP retries) separately.
		bootDone := make(chan struct{})
		if watchdog > 0 {
			go kickUntil(c, bootDone, watchdog/2)
		}
		err := boot.Run(c, a.bootCfg, a.bootDeps)
		close(bootDone)
		if err != nil {
			return err
		}
		a.loop.Run(c)
		return nil
	})

	a.log.Info("started", logx.String("config", a.cfgPath))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
	return err
}

func kickUntil(ctx context.Context, done <-chan struct{}, every time.Duration) {
	if every <= 0 {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-t.C:
			_, _ = daemon.SdNotify(false, "WATCHDOG=1")
		}
	}
}
