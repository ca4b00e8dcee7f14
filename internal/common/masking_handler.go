package common

import (
	"context"
	"log/slog"
)

// MaskingHandler wraps a slog.Handler and masks sensitive attribute values and
// messages before they reach the underlying handler.
type MaskingHandler struct {
	next   slog.Handler
	masker *Masker
}

// NewMaskingHandler wraps next. A nil masker uses the global one.
func NewMaskingHandler(next slog.Handler, masker *Masker) *MaskingHandler {
	if masker == nil {
		masker = GetGlobalMasker()
	}
	return &MaskingHandler{next: next, masker: masker}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.masker.MaskString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.maskAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		masked = append(masked, h.maskAttr(a))
	}
	return &MaskingHandler{next: h.next.WithAttrs(masked), masker: h.masker}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name), masker: h.masker}
}

func (h *MaskingHandler) maskAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		masked := make([]any, 0, len(group))
		for _, ga := range group {
			masked = append(masked, h.maskAttr(ga))
		}
		return slog.Group(a.Key, masked...)
	case slog.KindString:
		return slog.String(a.Key, h.masker.MaskValue(a.Key, v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok && err != nil {
			return slog.String(a.Key, h.masker.MaskString(err.Error()))
		}
		if h.masker.IsSensitiveKey(a.Key) {
			return slog.String(a.Key, maskedValue)
		}
		return a
	default:
		if h.masker.IsSensitiveKey(a.Key) {
			return slog.String(a.Key, maskedValue)
		}
		return a
	}
}
