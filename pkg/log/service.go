package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	config "github.com/mwantia/gocard/internal/config/server"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerService interface {
	Debug(msg string, args ...any)

	Info(msg string, args ...any)

	Warn(msg string, args ...any)

	Error(msg string, args ...any)

	Fatal(msg string, args ...any)

	Named(name string) LoggerService
}

type LoggerServiceImpl struct {
	LoggerService

	cfg    config.LogServerConfig
	name   string
	level  LogLevel
	out    *output
	closer io.Closer
}

// output serializes writes from every named logger sharing the same sink.
type output struct {
	mu     sync.Mutex
	writer io.Writer
	color  bool
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Message   string `json:"message"`
}

func NewLoggerService(name string, cfg config.LogServerConfig) LoggerService {
	impl := &LoggerServiceImpl{
		cfg:   cfg,
		name:  name,
		level: Parse(cfg.Level),
	}

	impl.setupWriter()
	return impl
}

// NewNopLogger returns a logger that discards everything. Used by tests and
// by components constructed without a logger.
func NewNopLogger() LoggerService {
	return &LoggerServiceImpl{
		level: Fatal + 1,
		out:   &output{writer: io.Discard},
	}
}

func (impl *LoggerServiceImpl) setupWriter() {
	var writers []io.Writer

	if !impl.cfg.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if impl.cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   impl.cfg.File,
			MaxSize:    impl.cfg.Rotation.MaxSize,
			MaxBackups: impl.cfg.Rotation.MaxBackups,
			MaxAge:     impl.cfg.Rotation.MaxAge,
			Compress:   impl.cfg.Rotation.Compress,
		}
		writers = append(writers, fileWriter)
		impl.closer = fileWriter
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	impl.out = &output{
		writer: io.MultiWriter(writers...),
		color:  impl.cfg.Colored(),
	}
}

func (impl *LoggerServiceImpl) log(level LogLevel, msg string, args ...any) {
	if level < impl.level {
		return
	}

	timeFormat := impl.cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	timestamp := time.Now().Format(timeFormat)
	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}

	impl.out.mu.Lock()
	if impl.cfg.JSON {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   impl.name,
			Message:   formattedMsg,
		}

		jsonBytes, _ := json.Marshal(entry)
		fmt.Fprintf(impl.out.writer, "%s\n", jsonBytes)
	} else {
		prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
		if impl.name != "" {
			prefix = fmt.Sprintf("%s [%s]", prefix, impl.name)
		}

		if impl.out.color {
			fmt.Fprintf(impl.out.writer, "%s%s %s\033[0m\n", Color(level), prefix, formattedMsg)
		} else {
			fmt.Fprintf(impl.out.writer, "%s %s\n", prefix, formattedMsg)
		}
	}
	impl.out.mu.Unlock()

	if level == Fatal {
		os.Exit(1)
	}
}

func (impl *LoggerServiceImpl) Debug(msg string, args ...any) {
	impl.log(Debug, msg, args...)
}

func (impl *LoggerServiceImpl) Info(msg string, args ...any) {
	impl.log(Info, msg, args...)
}

func (impl *LoggerServiceImpl) Warn(msg string, args ...any) {
	impl.log(Warn, msg, args...)
}

func (impl *LoggerServiceImpl) Error(msg string, args ...any) {
	impl.log(Error, msg, args...)
}

func (impl *LoggerServiceImpl) Fatal(msg string, args ...any) {
	impl.log(Fatal, msg, args...)
}

func (impl *LoggerServiceImpl) Named(name string) LoggerService {
	if impl.name != "" {
		name = fmt.Sprintf("%s/%s", impl.name, name)
	}
	return &LoggerServiceImpl{
		cfg:   impl.cfg,
		name:  name,
		level: impl.level,
		out:   impl.out, // Share the same sink
	}
}

// Cleanup closes the rotating log file, if any.
func (impl *LoggerServiceImpl) Cleanup() error {
	if impl.closer == nil {
		return nil
	}
	return impl.closer.Close()
}
