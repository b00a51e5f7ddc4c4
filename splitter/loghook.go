package splitter

import (
	"log/slog"

	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/watcher"
)

// LogHook writes what the splitter does to a structured logger. State
// changes and commands are logged at info level, read failures at debug
// level.
type LogHook struct {
	logger *slog.Logger
}

// NewLogHook creates a hook that writes into logger.
func NewLogHook(logger *slog.Logger) *LogHook {
	return &LogHook{logger: logger}
}

// Func logs one hook invocation.
func (h *LogHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosStateChange:
		t, ok := hooking.ItemAs[Transition](ctx)
		if !ok {
			return
		}

		args := []any{"from", t.From.String(), "to", t.To.String()}
		if t.SessionID != "" {
			args = append(args, "session_id", t.SessionID)
		}
		if t.Err != nil {
			args = append(args, "error", t.Err)
		}
		h.logger.Info("state change", args...)
	case HookPosCommand:
		e, ok := hooking.ItemAs[CommandEvent](ctx)
		if !ok || (e.Repeat && e.Err == nil) {
			return
		}

		if e.Err != nil {
			h.logger.Warn("timer command failed",
				"session_id", e.SessionID, "tick", e.Tick,
				"command", e.Command.String(), "error", e.Err)
			return
		}
		h.logger.Debug("timer command",
			"session_id", e.SessionID, "tick", e.Tick,
			"command", e.Command.String())
	case HookPosTimerError:
		h.logger.Warn("timer unreachable", "error", ctx.Item)
	case HookPosRefresh:
		res, ok := hooking.ItemAs[watcher.RefreshResult](ctx)
		if ok && len(res.Failed) > 0 {
			h.logger.Debug("read failed", "cells", res.Failed)
		}
	case HookPosCadence:
		if rate, ok := hooking.ItemAs[Freq](ctx); ok {
			h.logger.Info("tick rate changed", "hz", float64(rate))
		}
	}
}
