package console

import (
	"context"
	"fmt"
	"log/slog"
)

// Handler is a slog.Handler that frames log records as console transcript
// lines. Info and above print at Lvl0; Debug prints at Lvl1 so it stays
// hidden until the operator raises the lvl1 command.
type Handler struct {
	con   *Console
	attrs []slog.Attr
	group string
}

// NewLogger returns a slog.Logger writing through the console.
func NewLogger(con *Console) *slog.Logger {
	return slog.New(&Handler{con: con})
}

// Enabled reports whether the handler handles records at the given level.
// Debug records are accepted and gated at print time, so raising the lvl1
// command mid-run takes effect immediately.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle writes the record as one framed console line.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	lvl := Lvl0
	if r.Level < slog.LevelInfo {
		lvl = Lvl1
	}

	msg := r.Message
	if h.group != "" {
		msg = h.group + "." + msg
	}

	line := make([]byte, 0, 96)
	line = append(line, "\r\n>> "...)
	line = append(line, msg...)
	for _, a := range h.attrs {
		line = appendAttr(line, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		line = appendAttr(line, a)
		return true
	})

	return h.con.Print(lvl, "%s", line)
}

func appendAttr(line []byte, a slog.Attr) []byte {
	line = append(line, ' ')
	line = append(line, a.Key...)
	line = append(line, '=')
	return fmt.Append(line, a.Value.Resolve().Any())
}

// WithAttrs returns a new Handler with the given attributes added.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &Handler{con: h.con, attrs: newAttrs, group: h.group}
}

// WithGroup returns a new Handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}

	return &Handler{con: h.con, attrs: h.attrs, group: newGroup}
}
