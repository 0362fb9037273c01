package config

import (
	"reflect"
	"strings"

	logx "flapd/pkg/logx"
)

// SummarizeChange returns the changed top-level sections between two
// configs plus structured attrs safe to log (tokens never included).
// Used on reload so the log says what moved without dumping secrets.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Display != newCfg.Display {
		changed = append(changed, "display")
		attrs = append(attrs,
			logx.String("display.driver", newCfg.Display.Driver),
			logx.Int("display.modules", newCfg.Display.Modules),
		)
	}

	if oldCfg.Network != newCfg.Network {
		changed = append(changed, "network")
		attrs = append(attrs,
			logx.String("network.monitor", newCfg.Network.Monitor),
			logx.String("network.interface", newCfg.Network.Interface),
		)
	}

	if oldCfg.Time != newCfg.Time {
		changed = append(changed, "time")
		attrs = append(attrs, logx.String("time.timezone", newCfg.Time.Timezone))
	}

	// Weather and quotes carry tokens; log presence, not values.
	if oldCfg.Weather != newCfg.Weather {
		changed = append(changed, "weather")
		attrs = append(attrs,
			logx.Bool("weather.enabled", newCfg.Weather.Enabled),
			logx.Bool("weather.token_set", strings.TrimSpace(newCfg.Weather.Token) != ""),
		)
	}
	if !reflect.DeepEqual(oldCfg.Quotes, newCfg.Quotes) {
		changed = append(changed, "quotes")
		attrs = append(attrs,
			logx.Int("quotes.startup_count", len(newCfg.Quotes.Startup)),
			logx.Bool("quotes.token_set", strings.TrimSpace(newCfg.Quotes.Token) != ""),
		)
	}

	if !reflect.DeepEqual(oldCfg.Schedule, newCfg.Schedule) {
		changed = append(changed, "schedule")
		attrs = append(attrs, logx.Int("schedule.events", len(newCfg.Schedule.Events)))
	}

	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		driver := "none"
		if newCfg.Storage != nil {
			driver = newCfg.Storage.Driver
		}
		attrs = append(attrs, logx.String("storage.driver", driver))
	}

	if oldCfg.Update != newCfg.Update {
		changed = append(changed, "update")
		attrs = append(attrs, logx.Bool("update.enabled", newCfg.Update.Enabled))
	}

	return changed, attrs
}
