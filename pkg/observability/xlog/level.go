package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，与 slog.Level 兼容
type Level slog.Level

// 日志级别常量
//
// LevelVerbose 位于 Debug 与 Info 之间，对应 slog 的 -2。
const (
	LevelDebug   = Level(slog.LevelDebug)
	LevelVerbose = Level(-2)
	LevelInfo    = Level(slog.LevelInfo)
	LevelWarn    = Level(slog.LevelWarn)
	LevelError   = Level(slog.LevelError)
)

// OTLP 日志严重级别编号
const (
	severityTrace = 1
	severityDebug = 5
	severityInfo  = 9
	severityWarn  = 13
	severityError = 17
)

// String 返回级别的字符串表示
//
// 非标准级别委托给 slog.Level.String()（如 "INFO+2"）。
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelVerbose:
		return "VERBOSE"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return slog.Level(l).String()
	}
}

// Severity 返回远端日志记录使用的严重级别编号
//
// error=17, warn=13, info=9, verbose/debug=5，更低的级别为 1。
func (l Level) Severity() int {
	switch {
	case l >= LevelError:
		return severityError
	case l >= LevelWarn:
		return severityWarn
	case l >= LevelInfo:
		return severityInfo
	case l >= LevelDebug:
		return severityDebug
	default:
		return severityTrace
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析字符串为日志级别
//
// 支持 debug/verbose/info/log/warn/warning/error（大小写不敏感，自动 TrimSpace）。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "verbose":
		return LevelVerbose, nil
	case "info", "log":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("xlog: unknown level %q", s)
	}
}

// levelNames 把输出中的 level 字段替换为 [Level.String]，
// 使 VERBOSE 不显示为 "DEBUG+2"。
func levelNames(next ReplaceAttrFunc) ReplaceAttrFunc {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.LevelKey {
			if lv, ok := a.Value.Any().(slog.Level); ok {
				a.Value = slog.StringValue(Level(lv).String())
			}
		}
		if next != nil {
			return next(groups, a)
		}
		return a
	}
}
