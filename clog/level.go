package clog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ceyewan/leaseflake/xerrors"
)

// Level 日志级别，数值与 slog.Level 对齐
type Level int

const (
	DebugLevel = Level(slog.LevelDebug)
	InfoLevel  = Level(slog.LevelInfo)
	WarnLevel  = Level(slog.LevelWarn)
	ErrorLevel = Level(slog.LevelError)
	FatalLevel = Level(slog.LevelError + 4) // slog 没有 Fatal，取 Error 之上
)

// String 返回小写级别名
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func (l Level) slog() slog.Level {
	return slog.Level(l)
}

// ParseLevel 将字符串（不区分大小写）解析为 Level，无法解析时返回 InfoLevel 和错误
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown log level %q", s)
	}
}

// levelName 用于输出时的大写级别名
func levelName(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return "DEBUG"
	case l <= slog.LevelInfo:
		return "INFO"
	case l <= slog.LevelWarn:
		return "WARN"
	case l <= slog.LevelError:
		return "ERROR"
	default:
		return "FATAL"
	}
}
