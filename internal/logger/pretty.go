// internal/logger/pretty.go
package logger

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

func prettyEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		CallerKey:      "",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// customLevelEncoder formats log levels with colors
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(fmt.Sprintf("%s[DEBUG]%s", ColorCyan, ColorReset))
	case zapcore.InfoLevel:
		enc.AppendString(fmt.Sprintf("%s[INFO]%s", ColorGreen, ColorReset))
	case zapcore.WarnLevel:
		enc.AppendString(fmt.Sprintf("%s[WARN]%s", ColorYellow, ColorReset))
	case zapcore.ErrorLevel:
		enc.AppendString(fmt.Sprintf("%s[ERROR]%s", ColorRed, ColorReset))
	case zapcore.FatalLevel:
		enc.AppendString(fmt.Sprintf("%s[FATAL]%s", ColorRed+ColorBold, ColorReset))
	default:
		enc.AppendString(fmt.Sprintf("[%s]", level.CapitalString()))
	}
}

// customTimeEncoder formats time in a readable way
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

func levelFor(debug bool) zapcore.Level {
	if debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

func prettyCore(debug bool) zapcore.Core {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(prettyEncoderConfig()),
		zapcore.AddSync(zapcore.Lock(os.Stdout)),
		levelFor(debug),
	)
	return &FieldFilterCore{core: core}
}

// FormatMessage creates user-friendly log messages
func FormatMessage(msg string, fields ...zap.Field) string {
	switch {
	case strings.Contains(msg, "Loaded journal"):
		count := extractField(fields, "count")
		skipped := extractField(fields, "skipped")
		if skipped != "" && skipped != "0" {
			return fmt.Sprintf("%s📋 Loaded %s positions (%s skipped)%s", ColorBlue, count, skipped, ColorReset)
		}
		return fmt.Sprintf("%s📋 Loaded %s positions%s", ColorBlue, count, ColorReset)

	case strings.Contains(msg, "Position added"):
		symbol := extractField(fields, "symbol")
		dir := extractField(fields, "direction")
		return fmt.Sprintf("%s➕ %s %s added%s", ColorCyan, symbol, dir, ColorReset)

	case strings.Contains(msg, "Positions exported"):
		file := extractField(fields, "file")
		count := extractField(fields, "count")
		return fmt.Sprintf("%s✅ Exported %s positions to %s%s", ColorGreen, count, file, ColorReset)

	case strings.Contains(msg, "Export file unavailable"):
		file := extractField(fields, "file")
		return fmt.Sprintf("%s⏳ %s is locked, retrying...%s", ColorYellow, file, ColorReset)

	case strings.Contains(msg, "Skipping invalid journal entry"):
		symbol := extractField(fields, "symbol")
		reason := extractField(fields, "error")
		return fmt.Sprintf("%s⚠ Skipped %s: %s%s", ColorYellow, symbol, reason, ColorReset)

	default:
		if reason := extractField(fields, "error"); reason != "" {
			return msg + ": " + reason
		}
		return msg
	}
}

// Helper functions
func extractField(fields []zap.Field, key string) string {
	for _, field := range fields {
		if field.Key != key {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.ErrorType:
			if err, ok := field.Interface.(error); ok {
				return err.Error()
			}
		case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
			return fmt.Sprintf("%d", field.Integer)
		case zapcore.Float64Type:
			return fmt.Sprintf("%g", math.Float64frombits(uint64(field.Integer)))
		case zapcore.DurationType:
			return time.Duration(field.Integer).String()
		default:
			if field.Interface != nil {
				return fmt.Sprintf("%v", field.Interface)
			}
			return fmt.Sprintf("%d", field.Integer)
		}
	}
	return ""
}

// FieldFilterCore wraps a zapcore.Core and replaces structured fields with
// a readable one-line message.
type FieldFilterCore struct {
	core   zapcore.Core
	fields []zapcore.Field
}

func (c *FieldFilterCore) Enabled(level zapcore.Level) bool {
	return c.core.Enabled(level)
}

func (c *FieldFilterCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &FieldFilterCore{core: c.core, fields: merged}
}

func (c *FieldFilterCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *FieldFilterCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := append(append([]zapcore.Field{}, c.fields...), fields...)

	cleanEntry := entry
	cleanEntry.Message = FormatMessage(entry.Message, all...)
	return c.core.Write(cleanEntry, nil)
}

func (c *FieldFilterCore) Sync() error {
	return c.core.Sync()
}
