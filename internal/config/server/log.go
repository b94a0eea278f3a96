package server

type LogServerConfig struct {
	Level      string                  `mapstructure:"level"       yaml:"level"`
	TimeFormat string                  `mapstructure:"time_format" yaml:"time_format"`
	File       string                  `mapstructure:"file"        yaml:"file"`
	NoColor    bool                    `mapstructure:"no_color"    yaml:"no_color"`
	JSON       bool                    `mapstructure:"json"        yaml:"json"`
	NoTerminal bool                    `mapstructure:"no_terminal" yaml:"no_terminal"`
	Rotation   LogServerRotationConfig `mapstructure:"rotation"    yaml:"rotation"`
}

type LogServerRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"    yaml:"max_size"    validate:"gte=0"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAge     int  `mapstructure:"max_age"     yaml:"max_age"     validate:"gte=0"`
	Compress   bool `mapstructure:"compress"    yaml:"compress"`
}

// Colored reports whether terminal output carries ANSI colour codes. Colour
// is disabled whenever a log file is written, since both share one writer.
func (c LogServerConfig) Colored() bool {
	return !c.NoTerminal && !c.NoColor && c.File == ""
}

// ForCommand returns a copy suited for one-shot commands: terminal output is
// forced on and the level replaced when one is given.
func (c LogServerConfig) ForCommand(level string) LogServerConfig {
	if level != "" {
		c.Level = level
	}
	c.NoTerminal = false
	return c
}
