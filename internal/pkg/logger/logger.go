package logger

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// redactPII is process-wide; recipients and owners are customer data and
// stay masked unless explicitly disabled for local debugging.
var redactPII = true

// SetRedactPII enables or disables PII redaction for Email fields.
func SetRedactPII(r bool) { redactPII = r }

// New builds a production JSON logger at the given level ("debug", "info",
// "warn", "error"). An empty level means info.
func New(level string, redact bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	SetRedactPII(redact)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// ParseLevel maps a config string to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
}

// Email returns a field holding an address, masked when redaction is on.
func Email(key, addr string) zap.Field {
	if redactPII {
		addr = RedactEmail(addr)
	}
	return zap.String(key, addr)
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Text returns a free-text field with any embedded addresses masked.
// Transport errors often echo the recipient back.
func Text(key, val string) zap.Field {
	if redactPII {
		val = emailRegex.ReplaceAllStringFunc(val, RedactEmail)
	}
	return zap.String(key, val)
}
