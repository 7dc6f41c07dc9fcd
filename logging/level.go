package logging

import (
	"strconv"
	"strings"

	"github.com/leeforge/logfactory/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap/zapcore"
)

// Monolog-compatible severity codes, accepted anywhere a level is configured.
const (
	codeDebug     = 100
	codeInfo      = 200
	codeNotice    = 250
	codeWarning   = 300
	codeError     = 400
	codeCritical  = 500
	codeAlert     = 550
	codeEmergency = 600
)

// ParseLevel converts a configured level into a zap level. It accepts zap
// names (debug, info, warn, error, dpanic, panic, fatal), the syslog-style
// names (notice, warning, critical, alert, emergency) and their numeric
// codes (100..600). notice folds into info; critical, alert and emergency
// map onto dpanic, panic and fatal.
func ParseLevel(v any) (zapcore.Level, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return zapcore.InvalidLevel, errors.NewInvalid("level", v, "not a level name or code")
	}
	s = strings.ToLower(strings.TrimSpace(s))

	if code, err := strconv.Atoi(s); err == nil {
		return levelFromCode(code)
	}

	switch s {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "notice":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "dpanic", "critical":
		return zapcore.DPanicLevel, nil
	case "panic", "alert":
		return zapcore.PanicLevel, nil
	case "fatal", "emergency":
		return zapcore.FatalLevel, nil
	}
	return zapcore.InvalidLevel, errors.NewInvalid("level", v, "unknown level")
}

func levelFromCode(code int) (zapcore.Level, error) {
	switch code {
	case codeDebug:
		return zapcore.DebugLevel, nil
	case codeInfo, codeNotice:
		return zapcore.InfoLevel, nil
	case codeWarning:
		return zapcore.WarnLevel, nil
	case codeError:
		return zapcore.ErrorLevel, nil
	case codeCritical:
		return zapcore.DPanicLevel, nil
	case codeAlert:
		return zapcore.PanicLevel, nil
	case codeEmergency:
		return zapcore.FatalLevel, nil
	}
	return zapcore.InvalidLevel, errors.NewInvalid("level", code, "unknown level code")
}

// LevelName is the name %level_name% renders for l.
func LevelName(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.InfoLevel:
		return "INFO"
	case zapcore.WarnLevel:
		return "WARNING"
	case zapcore.ErrorLevel:
		return "ERROR"
	case zapcore.DPanicLevel:
		return "CRITICAL"
	case zapcore.PanicLevel:
		return "ALERT"
	case zapcore.FatalLevel:
		return "EMERGENCY"
	}
	return l.CapitalString()
}

// LevelCode is the numeric code %level% renders for l.
func LevelCode(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return codeDebug
	case zapcore.InfoLevel:
		return codeInfo
	case zapcore.WarnLevel:
		return codeWarning
	case zapcore.ErrorLevel:
		return codeError
	case zapcore.DPanicLevel:
		return codeCritical
	case zapcore.PanicLevel:
		return codeAlert
	case zapcore.FatalLevel:
		return codeEmergency
	}
	return 0
}

// syslogSeverity maps l to an RFC 5424 severity.
func syslogSeverity(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 7
	case zapcore.InfoLevel:
		return 6
	case zapcore.WarnLevel:
		return 4
	case zapcore.ErrorLevel:
		return 3
	case zapcore.DPanicLevel:
		return 2
	case zapcore.PanicLevel:
		return 1
	case zapcore.FatalLevel:
		return 0
	}
	return 5
}
