package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler sends every record to a primary handler and to a copy. Each side
// filters at its own level, so a log file can keep debug records that the
// console drops.
type teeHandler struct {
	primary slog.Handler
	mirror  slog.Handler
}

func newTeeHandler(primary, mirror slog.Handler) *teeHandler {
	return &teeHandler{primary: primary, mirror: mirror}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level) || h.mirror.Enabled(ctx, level)
}

// Handle writes r to each side that accepts its level. A failing side does
// not stop the other; both errors are returned.
func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if h.primary.Enabled(ctx, r.Level) {
		errs = append(errs, h.primary.Handle(ctx, r.Clone()))
	}
	if h.mirror.Enabled(ctx, r.Level) {
		errs = append(errs, h.mirror.Handle(ctx, r.Clone()))
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newTeeHandler(h.primary.WithAttrs(attrs), h.mirror.WithAttrs(attrs))
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return newTeeHandler(h.primary.WithGroup(name), h.mirror.WithGroup(name))
}
