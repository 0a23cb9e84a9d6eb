package log

import (
	"context"
	"log/slog"
	"regexp"
)

// Токены Bot API имеют форму bot<ID>:<ключ>; в логи они попадать не должны.
var telegramTokenRegex = regexp.MustCompile(`\bbot\d+:[A-Za-z0-9_-]{35,}`)

func maskTokens(text string) string {
	return telegramTokenRegex.ReplaceAllString(text, "bot***:***masked-token***")
}

// TokenMaskerHandler — обертка для slog.Handler, маскирующая токен бота
// в сообщениях и атрибутах записей.
type TokenMaskerHandler struct {
	handler slog.Handler
}

// NewTokenMaskerHandler создает новый обработчик с маскировкой токенов
func NewTokenMaskerHandler(handler slog.Handler) *TokenMaskerHandler {
	return &TokenMaskerHandler{handler: handler}
}

// NewMaskedLogger создает slog.Logger с маскировкой токенов
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewTokenMaskerHandler(handler))
}

func (h *TokenMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TokenMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	// Собираем новую запись: атрибуты исходной нельзя править на месте.
	r := slog.NewRecord(record.Time, record.Level, maskTokens(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{Key: a.Key, Value: maskValue(a.Value)})
		return true
	})

	return h.handler.Handle(ctx, r)
}

func (h *TokenMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = slog.Attr{Key: a.Key, Value: maskValue(a.Value)}
	}
	return &TokenMaskerHandler{handler: h.handler.WithAttrs(masked)}
}

func (h *TokenMaskerHandler) WithGroup(name string) slog.Handler {
	return &TokenMaskerHandler{handler: h.handler.WithGroup(name)}
}

// maskValue рекурсивно маскирует значение атрибута. Ошибки приводятся
// к строке: их текст тоже может содержать URL с токеном.
func maskValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskTokens(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		masked := make([]slog.Attr, len(group))
		for i, a := range group {
			masked[i] = slog.Attr{Key: a.Key, Value: maskValue(a.Value)}
		}
		return slog.GroupValue(masked...)
	default:
		return value
	}
}
