package config

import "go.uber.org/zap/zapcore"

// LogEncoder defines a log encoder kind.
type LogEncoder = string

const (
	defaultLoggingLevel = zapcore.InfoLevel
	// ConsoleLogEncoder represents logging with plain text.
	ConsoleLogEncoder LogEncoder = "console"
	// JSONLogEncoder represents logging with JSON.
	JSONLogEncoder LogEncoder = "json"
)

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder          LogEncoder `mapstructure:"log-encoder"`
	AppLoggerLevel   string     `mapstructure:"app"`
	P2PLoggerLevel   string     `mapstructure:"p2p"`
	LeaseLoggerLevel string     `mapstructure:"lease"`
	StateLoggerLevel string     `mapstructure:"state"`
	ActorLoggerLevel string     `mapstructure:"actor"`
	StoreLoggerLevel string     `mapstructure:"store"`
}

// DefaultLoggingConfig logs every module at info level to the console.
func DefaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:          ConsoleLogEncoder,
		AppLoggerLevel:   defaultLoggingLevel.String(),
		P2PLoggerLevel:   defaultLoggingLevel.String(),
		LeaseLoggerLevel: defaultLoggingLevel.String(),
		StateLoggerLevel: zapcore.WarnLevel.String(),
		ActorLoggerLevel: defaultLoggingLevel.String(),
		StoreLoggerLevel: defaultLoggingLevel.String(),
	}
}

// Level returns the configured level of a named module. Unknown and unset
// modules use the app level.
func (cfg *LoggerConfig) Level(module string) zapcore.Level {
	var lvl string
	switch module {
	case "p2p":
		lvl = cfg.P2PLoggerLevel
	case "lease":
		lvl = cfg.LeaseLoggerLevel
	case "state":
		lvl = cfg.StateLoggerLevel
	case "actor":
		lvl = cfg.ActorLoggerLevel
	case "store":
		lvl = cfg.StoreLoggerLevel
	}
	if lvl == "" {
		lvl = cfg.AppLoggerLevel
	}
	if level, err := zapcore.ParseLevel(lvl); err == nil {
		return level
	}
	return defaultLoggingLevel
}
