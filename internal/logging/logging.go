// Package logging provides the small, level-filtered logger used across the
// pipeline. The function-shaped API (Debugf/Warningf/Basicf/Errorf/Fatalf)
// is unchanged from the rest of the codebase's expectations; the
// implementation is backed by zerolog instead of a hand-rolled
// fmt.Fprintf-to-stderr wrapper.
package logging

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarning
	LogLevelBasic
	LogLevelDebug
)

var (
	level  = LogLevelBasic
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
)

func SetLevel(l LogLevel) {
	level = l
}

func GetLevel() LogLevel {
	return level
}

func FromString(s string) LogLevel {
	if numericLogLevel, err := strconv.Atoi(s); err == nil {
		return boundedLogLevel(numericLogLevel)
	}
	switch strings.ToLower(s) {
	case "error":
		return LogLevelError
	case "warning":
		return LogLevelWarning
	case "basic":
		return LogLevelBasic
	case "debug":
		return LogLevelDebug
	}

	return LogLevelBasic
}

func Debugf(format string, args ...any) {
	if level >= LogLevelDebug {
		logger.Debug().Msgf(format, args...)
	}
}

func Warningf(format string, args ...any) {
	if level >= LogLevelWarning {
		logger.Warn().Msgf(format, args...)
	}
}

func Basicf(format string, args ...any) {
	if level >= LogLevelBasic {
		logger.Info().Msgf(format, args...)
	}
}

func Errorf(format string, args ...any) {
	logger.Error().Msgf(format, args...)
}

func Fatalf(format string, args ...any) {
	logger.Fatal().Msgf(format, args...)
}

func boundedLogLevel(numericLevel int) LogLevel {
	if numericLevel < 0 {
		return LogLevelError
	}
	if numericLevel > 3 {
		return LogLevelDebug
	}
	return LogLevel(numericLevel)
}
