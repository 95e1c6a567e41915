// Package logging は設定に応じた slog.Logger を構築します。
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/ogurasousui/worker-chronology/internal/platform/config"
)

// New は log 設定から Logger を生成します。w が nil の場合は出力を破棄します。
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With(slog.String("service", "worker-chronology"))
}

// ParseLevel は文字列のログレベルを slog.Level に変換します。不明な値は info です。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
