// Package logger is the process-wide leveled logger. Output is a zerolog
// console writer by default and JSON lines after SetOutput(w, true).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu    sync.RWMutex
	base  = console(os.Stdout, false)
	level = zerolog.InfoLevel
)

func console(w io.Writer, noColor bool) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: noColor}).With().Timestamp().Logger()
}

// Init sets the level from LOG_LEVEL-style text (debug, info, warn, error,
// fatal; case-insensitive). Anything else means info.
func Init(l string) {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	case "fatal":
		lvl = zerolog.FatalLevel
	}
	mu.Lock()
	level = lvl
	mu.Unlock()
}

// SetOutput redirects log output, as JSON lines when json is set.
func SetOutput(w io.Writer, json bool) {
	mu.Lock()
	defer mu.Unlock()
	if json {
		base = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	base = console(w, true)
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Level(level)
}

func Debugf(format string, v ...interface{}) {
	l := current()
	l.Debug().Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	l := current()
	l.Info().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	l := current()
	l.Warn().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	l := current()
	l.Error().Msgf(format, v...)
}

// Fatalf logs and exits with status 1.
func Fatalf(format string, v ...interface{}) {
	l := current()
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// Println logs at info.
func Println(v ...interface{}) {
	l := current()
	l.Info().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level.String()
}
