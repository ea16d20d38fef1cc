package config

const (
	defaultRawRoot             = "/groups/sandwich/05_production/.telemetry/raw"
	defaultDataRoot            = "/groups/sandwich/05_production/.telemetry"
	defaultSettleSeconds       = 120
	defaultQuarantineMaxPerDay = 1000
	defaultWorkers             = 4
	defaultClockSkewSeconds    = 3600
	defaultLogLevel            = "info"
	defaultLogFormat           = ""
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RawRoot:  defaultRawRoot,
			DataRoot: defaultDataRoot,
		},
		Ingest: Ingest{
			SettleSeconds:             defaultSettleSeconds,
			QuarantineMaxPerDay:       defaultQuarantineMaxPerDay,
			Workers:                   defaultWorkers,
			ClockSkewToleranceSeconds: defaultClockSkewSeconds,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
