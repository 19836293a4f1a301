package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures the console + file logger.
type Config struct {
	Level   Level     // threshold, 1..5
	Lang    string    // "zh" or "en"
	Dir     string    // log directory; empty disables the file sink
	Console io.Writer // defaults to os.Stdout
	NoColor bool
}

// ZeroLogger writes colored console lines and JSON file lines through zerolog.
type ZeroLogger struct {
	level Level
	lang  string
	zl    zerolog.Logger
	file  *lumberjack.Logger
}

// New builds a ZeroLogger. Call Close to flush the file sink.
func New(cfg Config) (*ZeroLogger, error) {
	if cfg.Level == 0 {
		cfg.Level = Info
	}
	if cfg.Console == nil {
		cfg.Console = os.Stdout
	}

	console := zerolog.ConsoleWriter{
		Out:        cfg.Console,
		NoColor:    cfg.NoColor,
		TimeFormat: "15:04:05.000",
		FormatTimestamp: func(i any) string {
			return "[JustRobot][" + toString(i) + "]"
		},
	}

	writers := []io.Writer{console}
	var file *lumberjack.Logger
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, err
		}
		file = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "justrobot.log"),
			MaxSize:    20, // MB
			MaxBackups: 7,
			MaxAge:     30, // days
		}
		writers = append(writers, file)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()

	return &ZeroLogger{level: cfg.Level, lang: cfg.Lang, zl: zl, file: file}, nil
}

// Log implements Logger.
func (l *ZeroLogger) Log(level Level, msg Text) {
	if !l.level.Enabled(level) {
		return
	}
	// WithLevel never exits, even for Fatal.
	l.zl.WithLevel(toZerolog(level)).Msg(msg.In(l.lang))
}

// Lang returns the configured language.
func (l *ZeroLogger) Lang() string { return l.lang }

// Close flushes and closes the file sink.
func (l *ZeroLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func toZerolog(level Level) zerolog.Level {
	switch level {
	case Fatal:
		return zerolog.FatalLevel
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	case Info:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

func toString(i any) string {
	switch v := i.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.Format("15:04:05.000")
		}
		return v
	case time.Time:
		return v.Format("15:04:05.000")
	default:
		return ""
	}
}
