package clog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ceyewan/leaseflake/xerrors"
)

// clogHandler 包装 slog.Handler，持有 LevelVar 以支持动态级别
type clogHandler struct {
	slog.Handler
	levelVar *slog.LevelVar
	file     *os.File // Output 为文件路径时非空
}

// newHandler 构造顺序：writer -> handler options -> json/text handler
func newHandler(config *Config, o *options) (*clogHandler, error) {
	w, file, err := resolveWriter(config, o)
	if err != nil {
		return nil, err
	}

	level, _ := ParseLevel(config.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level.slog())

	opts := &slog.HandlerOptions{
		AddSource:   config.AddSource,
		Level:       levelVar,
		ReplaceAttr: replaceAttr(config.SourceRoot),
	}

	var h slog.Handler
	if strings.EqualFold(config.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return &clogHandler{Handler: h, levelVar: levelVar, file: file}, nil
}

func resolveWriter(config *Config, o *options) (io.Writer, *os.File, error) {
	if o.writer != nil {
		return o.writer, nil, nil
	}
	switch strings.ToLower(config.Output) {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, xerrors.Wrapf(err, "clog: open log file %s", config.Output)
	}
	return f, f, nil
}

// replaceAttr 统一级别名、时间格式，并把 source 改写为 caller=file:line
func replaceAttr(sourceRoot string) func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return a
		}
		switch a.Key {
		case slog.LevelKey:
			if lvl, ok := a.Value.Any().(slog.Level); ok {
				a.Value = slog.StringValue(levelName(lvl))
			}
		case slog.TimeKey:
			if a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().Format(timeFormat))
			}
		case slog.SourceKey:
			if src, ok := a.Value.Any().(*slog.Source); ok {
				return slog.String("caller", fmt.Sprintf("%s:%d", trimSource(src.File, sourceRoot), src.Line))
			}
		}
		return a
	}
}

func trimSource(file, root string) string {
	if root == "" {
		return filepath.Base(file)
	}
	if rel, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return filepath.Base(file)
}

func (h *clogHandler) setLevel(level Level) {
	h.levelVar.Set(level.slog())
}

func (h *clogHandler) flush() {
	if h.file != nil {
		_ = h.file.Sync()
	}
}
