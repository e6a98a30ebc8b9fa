// internal/logger/pretty.go
package logger

import (
	"fmt"
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
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorBold   = "\033[1m"
)

// prettyFields are the only fields kept on console output.
var prettyFields = map[string]bool{
	"id":        true,
	"symbol":    true,
	"direction": true,
	"leverage":  true,
	"price":     true,
	"pnl":       true,
	"error":     true,
	"file":      true,
	"interval":  true,
	"addr":      true,
}

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
		EncodeCaller:   customCallerEncoder,
	}
}

// PrettyEncoder creates a user-friendly console encoder
func PrettyEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(prettyEncoderConfig())
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

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

func customCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {}

// CreatePrettyLogger creates a colored console logger for headless runs.
func CreatePrettyLogger(debug bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		PrettyEncoder(),
		zapcore.AddSync(zapcore.Lock(os.Stdout)),
		level,
	)

	return zap.New(&FieldFilterCore{core: core}), nil
}

// FormatMessage decorates well-known messages for console output.
func FormatMessage(msg string) string {
	switch {
	case strings.HasPrefix(msg, "Position opened"):
		return fmt.Sprintf("%s▲ %s%s", ColorGreen, msg, ColorReset)
	case strings.HasPrefix(msg, "Position closed"):
		return fmt.Sprintf("%s■ %s%s", ColorBlue, msg, ColorReset)
	case strings.HasPrefix(msg, "Position liquidated"):
		return fmt.Sprintf("%s✖ %s%s", ColorRed+ColorBold, msg, ColorReset)
	case strings.HasPrefix(msg, "Liquidation level reached"):
		return fmt.Sprintf("%s⚠ %s%s", ColorYellow, msg, ColorReset)
	case strings.HasPrefix(msg, "Price update failed"):
		return fmt.Sprintf("%s⟳ %s%s", ColorYellow, msg, ColorReset)
	case strings.HasPrefix(msg, "Starting"):
		return fmt.Sprintf("%s🚀 %s%s", ColorCyan, msg, ColorReset)
	default:
		return msg
	}
}

// FieldFilterCore wraps a zapcore.Core, drops fields outside prettyFields
// and decorates messages.
type FieldFilterCore struct {
	core zapcore.Core
}

func (c *FieldFilterCore) Enabled(level zapcore.Level) bool {
	return c.core.Enabled(level)
}

func (c *FieldFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &FieldFilterCore{core: c.core.With(filterFields(fields))}
}

func (c *FieldFilterCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *FieldFilterCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = FormatMessage(entry.Message)
	return c.core.Write(entry, filterFields(fields))
}

func (c *FieldFilterCore) Sync() error {
	return c.core.Sync()
}

func filterFields(fields []zapcore.Field) []zapcore.Field {
	kept := fields[:0:0]
	for _, f := range fields {
		if prettyFields[f.Key] {
			kept = append(kept, f)
		}
	}
	return kept
}

// CreateTUILogger creates a logger that writes JSON lines only into buffer,
// so nothing is printed over the terminal UI.
func CreateTUILogger(debug bool, buffer *LogBuffer) (*zap.Logger, error) {
	if buffer == nil {
		return nil, fmt.Errorf("buffer is required for TUI logger")
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	bufferCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buffer),
		level,
	)

	return zap.New(bufferCore), nil
}
