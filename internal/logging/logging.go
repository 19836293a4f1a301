// Package logging provides the narrow log(level, message) surface consumed by
// every component of the routing core.
//
// Levels keep the bot's numeric scale: a configured level of 4 prints
// Info, Warn, Error and Fatal but hides Debug. Messages are bilingual-capable:
// English is mandatory, Chinese is optional and chosen when the bot language
// is "zh".
package logging

import (
	"fmt"
	"strings"
)

// Level is a log severity. Lower is more severe.
type Level int

const (
	Fatal Level = 1
	Error Level = 2
	Warn  Level = 3
	Info  Level = 4
	Debug Level = 5
)

// String returns the upper-case level name used in log lines.
func (l Level) String() string {
	switch l {
	case Fatal:
		return "FATAL"
	case Error:
		return "ERROR"
	case Warn:
		return "WARN"
	case Info:
		return "INFO"
	case Debug:
		return "DEBUG"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Enabled reports whether a message at msg level passes the configured threshold.
func (l Level) Enabled(msg Level) bool {
	return l >= msg
}

// Text is a log message with an English body and an optional Chinese body.
type Text struct {
	EN string
	ZH string
}

// En builds an English-only message.
func En(format string, args ...any) Text {
	return Text{EN: sprintf(format, args...)}
}

// Zh returns a copy of t carrying a Chinese rendering.
func (t Text) Zh(format string, args ...any) Text {
	t.ZH = sprintf(format, args...)
	return t
}

// In renders the message in lang, falling back to English.
func (t Text) In(lang string) string {
	if strings.EqualFold(lang, "zh") && t.ZH != "" {
		return t.ZH
	}
	return t.EN
}

func (t Text) String() string { return t.EN }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Logger is the only logging contract components depend on.
type Logger interface {
	Log(level Level, msg Text)
}

// FirstLine returns the first line of an error's message, used when a
// multi-line diagnostic has to fit one log entry.
func FirstLine(err error) string {
	if err == nil {
		return ""
	}
	line, _, _ := strings.Cut(err.Error(), "\n")
	return strings.TrimSpace(line)
}

type nopLogger struct{}

func (nopLogger) Log(Level, Text) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }
