package app

import (
	"fmt"
	"strings"
	"time"

	"flapd/internal/config"
	"flapd/internal/fetch"
	"flapd/internal/sched"
	"flapd/internal/storage"
	logx "flapd/pkg/logx"
)

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: "sqlite", Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapSchedulerConfig(cfg *config.Config, modules int) (sched.Config, error) {
	sc := cfg.Schedule
	out := sched.Config{
		Modules:        modules,
		QuietStartHour: sc.QuietStartHour,
		QuietEndHour:   sc.QuietEndHour,
		WeatherEnabled: cfg.Weather.Enabled,
		WeatherURL:     strings.ReplaceAll(cfg.Weather.URL, "{token}", cfg.Weather.Token),
	}
	var err error
	if out.MessageCycleInterval, err = config.ParseDurationField(
		"schedule.message_cycle_interval", sc.MessageCycleInterval); err != nil {
		return sched.Config{}, err
	}
	if out.RequestInterval, err = config.ParseDurationField(
		"schedule.request_interval", sc.RequestInterval); err != nil {
		return sched.Config{}, err
	}
	if out.StaleTime, err = config.ParseDurationField(
		"schedule.stale_time", sc.StaleTime); err != nil {
		return sched.Config{}, err
	}
	if out.EventDebounce, err = config.ParseDurationField(
		"schedule.event_debounce", sc.EventDebounce); err != nil {
		return sched.Config{}, err
	}
	return out, nil
}

// buildEvents turns the config rows into the ordered event table. Rows
// with quote symbols get a combined producer (literal strings first,
// then symbol/price pairs) and are marked as needing the network.
func buildEvents(cfg *config.Config, fetcher fetch.Adapter, store storage.Store, modules int, log logx.Logger) ([]sched.Event, error) {
	events := make([]sched.Event, 0, len(cfg.Schedule.Events))
	for i, row := range cfg.Schedule.Events {
		name := row.Name
		if name == "" {
			name = row.At
		}

		var produce sched.Producer
		statics := sched.Statics(row.Strings...)
		if len(row.Quotes) > 0 {
			quotes := sched.Quotes(sched.QuoteConfig{
				URLTemplate: cfg.Quotes.URLTemplate,
				Token:       cfg.Quotes.Token,
				Symbols:     row.Quotes,
				Modules:     modules,
			}, fetcher, store, log.With(logx.String("comp", "quotes")))
			produce = sched.Chain(statics, quotes)
		} else {
			produce = statics
		}

		ev, err := sched.NewEvent(row.At, name, row.Reset, len(row.Quotes) > 0, produce)
		if err != nil {
			return nil, fmt.Errorf("schedule.events[%d]: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
