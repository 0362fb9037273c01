package config

import "fmt"

// Config is the full daemon configuration. YAML and JSON are both
// accepted; unknown keys are rejected so typos surface at load time.
//
// Schedule and display settings are read once at startup. Logging is
// the only section applied on hot reload.
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Display  DisplayConfig  `json:"display"`
	Network  NetworkConfig  `json:"network"`
	Time     TimeConfig     `json:"time"`
	Weather  WeatherConfig  `json:"weather"`
	Quotes   QuotesConfig   `json:"quotes"`
	Schedule ScheduleConfig `json:"schedule"`
	Storage  *StorageConfig `json:"storage,omitempty"`
	Update   UpdateConfig   `json:"update,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// DisplayConfig selects the display driver.
//
// Driver values:
//   - "console": log-only stand-in (default)
//   - "ws": websocket viewer, serving on Listen
type DisplayConfig struct {
	// Modules is the character count of the flap row. Default 5.
	Modules int    `json:"modules,omitempty"`
	Driver  string `json:"driver,omitempty"`
	Listen  string `json:"listen,omitempty"` // ws driver, default "127.0.0.1:8613"
}

// NetworkConfig selects the connectivity monitor.
//
// Monitor values:
//   - "iface": probe Interface for a global unicast address (default)
//   - "static": assume always connected (wired hosts, tests)
type NetworkConfig struct {
	Monitor   string `json:"monitor,omitempty"`
	Interface string `json:"interface,omitempty"` // e.g. "wlan0"
	SSID      string `json:"ssid,omitempty"`
	// ReconnectCmd, when set, runs via `sh -c` on reconnect attempts.
	ReconnectCmd string `json:"reconnect_cmd,omitempty"`
	// ReconnectEvery is a Go duration string capping reconnect attempts.
	ReconnectEvery string `json:"reconnect_every,omitempty"`
}

type TimeConfig struct {
	// Timezone is an IANA zone name, e.g. "America/Los_Angeles".
	Timezone string `json:"timezone,omitempty"`
	// NTPServer defaults to "pool.ntp.org".
	NTPServer string `json:"ntp_server,omitempty"`
}

// WeatherConfig controls the periodic observation refresh. URL may
// contain a "{token}" placeholder filled from Token so the secret stays
// out of the URL line.
type WeatherConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url,omitempty"`
	Token   string `json:"token,omitempty"`
}

// QuotesConfig controls stock-quote lookups. URLTemplate carries
// "{symbol}" and "{token}" placeholders.
type QuotesConfig struct {
	URLTemplate string `json:"url_template,omitempty"`
	Token       string `json:"token,omitempty"`
	// Startup symbols are enqueued once after bring-up.
	Startup []string `json:"startup,omitempty"`
}

// ScheduleConfig tunes the display loop. All durations are Go duration
// strings; zero values take the loop defaults.
type ScheduleConfig struct {
	MessageCycleInterval string `json:"message_cycle_interval,omitempty"` // default "5s"
	RequestInterval      string `json:"request_interval,omitempty"`       // default "10m"
	StaleTime            string `json:"stale_time,omitempty"`             // default "30m"
	EventDebounce        string `json:"event_debounce,omitempty"`         // default "1m"

	// QuietStartHour..QuietEndHour (inclusive, wrapping midnight when
	// start > end) keeps the actuators off. Omitted hours default to
	// 21 and 8; an explicit 0 is a midnight boundary.
	QuietStartHour *int `json:"quiet_start_hour,omitempty"`
	QuietEndHour   *int `json:"quiet_end_hour,omitempty"`

	// Events is the scheduled-prompt table, scanned in order.
	Events []EventConfig `json:"events,omitempty"`
}

// EventConfig is one scheduled-prompt row.
type EventConfig struct {
	// At is "HH:MM" shorthand for a daily event or a 5-field cron spec.
	At string `json:"at"`
	// Name appears in logs; defaults to At.
	Name string `json:"name,omitempty"`
	// Reset re-homes the display before enqueueing.
	Reset bool `json:"reset,omitempty"`
	// Strings are enqueued literally.
	Strings []string `json:"strings,omitempty"`
	// Quotes are stock symbols; each pushes the lowercased symbol
	// followed by its price. Rows with quotes require connectivity.
	Quotes []string `json:"quotes,omitempty"`
}

// StorageConfig controls the optional history log.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./flapd_history" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// UpdateConfig controls the binary-replacement watcher.
type UpdateConfig struct {
	Enabled bool `json:"enabled"`
	// Path overrides the watched executable path (tests).
	Path string `json:"path,omitempty"`
}

// Validate checks everything cheap to check statically. Event specs are
// validated where the table is built, so schedule errors carry the
// producer context.
func (c *Config) Validate() error {
	switch c.Display.Driver {
	case "", "console", "ws":
	default:
		return fmt.Errorf("display.driver: unknown driver %q", c.Display.Driver)
	}
	switch c.Network.Monitor {
	case "", "iface", "static":
	default:
		return fmt.Errorf("network.monitor: unknown monitor %q", c.Network.Monitor)
	}
	if c.Display.Modules < 0 {
		return fmt.Errorf("display.modules: must be >= 0")
	}
	if c.Weather.Enabled && c.Weather.URL == "" {
		return fmt.Errorf("weather.url: required when weather is enabled")
	}
	if h := c.Schedule.QuietStartHour; h != nil && (*h < 0 || *h > 23) {
		return fmt.Errorf("schedule.quiet_start_hour: out of range")
	}
	if h := c.Schedule.QuietEndHour; h != nil && (*h < 0 || *h > 23) {
		return fmt.Errorf("schedule.quiet_end_hour: out of range")
	}
	for _, pair := range []struct{ path, raw string }{
		{"schedule.message_cycle_interval", c.Schedule.MessageCycleInterval},
		{"schedule.request_interval", c.Schedule.RequestInterval},
		{"schedule.stale_time", c.Schedule.StaleTime},
		{"schedule.event_debounce", c.Schedule.EventDebounce},
		{"network.reconnect_every", c.Network.ReconnectEvery},
	} {
		if _, err := ParseDurationField(pair.path, pair.raw); err != nil {
			return err
		}
	}
	for i, ev := range c.Schedule.Events {
		if ev.At == "" {
			return fmt.Errorf("schedule.events[%d]: missing at", i)
		}
		if len(ev.Strings) == 0 && len(ev.Quotes) == 0 {
			return fmt.Errorf("schedule.events[%d] (%s): no strings or quotes", i, ev.At)
		}
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}
