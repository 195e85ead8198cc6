package module

import (
	"time"

	"guildaudit/internal/adapters/sources/armory"
	"guildaudit/internal/adapters/sources/oauth"
	"guildaudit/internal/adapters/sources/raiderio"
	"guildaudit/internal/adapters/sources/wclogs"
	"guildaudit/internal/core/reset"
	"guildaudit/internal/platform/config"
	"guildaudit/internal/services/roster/service"
)

// Options holds configuration settings for the roster module
type Options struct {
	Concurrency int
	StaleAfter  time.Duration
	DryRun      bool

	ResetWeekday time.Weekday
	ResetHour    int

	ZoneID int

	ArmoryBaseURL      string
	ArmoryNamespace    string
	ArmoryLocale       string
	ArmoryTokenURL     string
	ArmoryClientID     string
	ArmoryClientSecret string

	RaiderIOBaseURL string
	Region          string

	WCLogsBaseURL      string
	WCLogsTokenURL     string
	WCLogsClientID     string
	WCLogsClientSecret string

	SourceTimeout time.Duration
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	sf := cfg.Prefix("SYNC_")
	return Options{
		Concurrency: sf.MayInt("CONCURRENCY", 5),
		StaleAfter:  sf.MayDuration("STALE_AFTER", time.Hour),
		DryRun:      sf.MayBool("DRY_RUN", false),

		ResetWeekday: sf.MayWeekday("RESET_WEEKDAY", reset.DefaultWeekday),
		ResetHour:    sf.MayInt("RESET_HOUR", reset.DefaultHour),

		ZoneID: sf.MayInt("ZONE_ID", 0),

		ArmoryBaseURL:      sf.MayString("ARMORY_BASE_URL", "https://eu.api.blizzard.com"),
		ArmoryNamespace:    sf.MayString("ARMORY_NAMESPACE", "profile-eu"),
		ArmoryLocale:       sf.MayString("ARMORY_LOCALE", "en_GB"),
		ArmoryTokenURL:     sf.MayString("ARMORY_TOKEN_URL", "https://oauth.battle.net/token"),
		ArmoryClientID:     sf.MayString("ARMORY_CLIENT_ID", ""),
		ArmoryClientSecret: sf.MayString("ARMORY_CLIENT_SECRET", ""),

		RaiderIOBaseURL: sf.MayString("RAIDERIO_BASE_URL", "https://raider.io"),
		Region:          sf.MayString("REGION", "eu"),

		WCLogsBaseURL:      sf.MayString("WCLOGS_BASE_URL", "https://www.warcraftlogs.com/api"),
		WCLogsTokenURL:     sf.MayString("WCLOGS_TOKEN_URL", "https://www.warcraftlogs.com/oauth/token"),
		WCLogsClientID:     sf.MayString("WCLOGS_CLIENT_ID", ""),
		WCLogsClientSecret: sf.MayString("WCLOGS_CLIENT_SECRET", ""),

		SourceTimeout: sf.MayDuration("SOURCE_TIMEOUT", 10*time.Second),
	}
}

// serviceConfig lowers Options into the service runtime config
func (o Options) serviceConfig() service.Config {
	window := reset.Window{Weekday: o.ResetWeekday, Hour: o.ResetHour}
	return service.Config{
		Concurrency: o.Concurrency,
		StaleAfter:  o.StaleAfter,
		DryRun:      o.DryRun,
		Window:      window,
		Armory: armory.Options{
			BaseURL:   o.ArmoryBaseURL,
			Namespace: o.ArmoryNamespace,
			Locale:    o.ArmoryLocale,
			Timeout:   o.SourceTimeout,
		},
		ArmoryAuth: oauth.Config{
			TokenURL:     o.ArmoryTokenURL,
			ClientID:     o.ArmoryClientID,
			ClientSecret: o.ArmoryClientSecret,
			Timeout:      o.SourceTimeout,
		},
		RaiderIO: raiderio.Options{
			BaseURL: o.RaiderIOBaseURL,
			Region:  o.Region,
			Timeout: o.SourceTimeout,
		},
		WCLogs: wclogs.Options{
			BaseURL: o.WCLogsBaseURL,
			Window:  window,
			ZoneID:  o.ZoneID,
			Timeout: o.SourceTimeout,
		},
		WCLogsAuth: oauth.Config{
			TokenURL:     o.WCLogsTokenURL,
			ClientID:     o.WCLogsClientID,
			ClientSecret: o.WCLogsClientSecret,
			Timeout:      o.SourceTimeout,
		},
	}
}
