package config

import (
	"strings"

	logx "collectord/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections and safe
// structured attrs for logging the reload.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Collectors.Enabled != newCfg.Collectors.Enabled ||
		strings.TrimSpace(oldCfg.Collectors.Mode) != strings.TrimSpace(newCfg.Collectors.Mode) ||
		oldCfg.Collectors.ContentionMonitoring != newCfg.Collectors.ContentionMonitoring {
		changed = append(changed, "collectors")
		attrs = append(attrs,
			logx.Bool("collectors.enabled", newCfg.Collectors.Enabled),
			logx.String("collectors.mode", newCfg.Collectors.Mode),
			logx.Bool("collectors.contention_monitoring", newCfg.Collectors.ContentionMonitoring),
		)
	}

	if oldCfg.Stats.Enabled != newCfg.Stats.Enabled ||
		strings.TrimSpace(oldCfg.Stats.Addr) != strings.TrimSpace(newCfg.Stats.Addr) {
		changed = append(changed, "stats")
		attrs = append(attrs, logx.Bool("stats.enabled", newCfg.Stats.Enabled))
	}

	oh, nh := oldCfg.History, newCfg.History
	if (oh == nil) != (nh == nil) ||
		(oh != nil && nh != nil && *oh != *nh) {
		changed = append(changed, "history")
	}

	return changed, attrs
}
