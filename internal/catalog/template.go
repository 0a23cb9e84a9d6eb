package catalog

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"telegram-catalog-bot/internal/cache"
	"telegram-catalog-bot/internal/domain"
)

// templateAPI — срез клиента каталога, нужный сервису шаблонов.
type templateAPI interface {
	TemplatesByType(ctx context.Context, typ domain.TemplateType) ([]domain.Template, error)
}

// Templates читает серверные шаблоны экранов по схеме «кэш, иначе запрос».
type Templates struct {
	api    templateAPI
	cache  *cache.Store
	ttl    time.Duration
	sf     singleflight.Group
	logger *slog.Logger
}

// NewTemplates создает сервис шаблонов.
func NewTemplates(api templateAPI, store *cache.Store, ttl time.Duration, logger *slog.Logger) *Templates {
	return &Templates{
		api:    api,
		cache:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// ByType возвращает шаблон указанного типа. API отдает коллекцию,
// используется первый элемент. Отсутствие шаблона — штатный исход,
// а не ошибка: возвращается nil.
func (s *Templates) ByType(ctx context.Context, typ domain.TemplateType) *domain.Template {
	key := templateKeyPrefix + string(typ)

	if t, ok := cache.GetAs[*domain.Template](s.cache, key); ok {
		return t
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		templates, err := s.api.TemplatesByType(ctx, typ)
		if err != nil {
			return nil, err
		}
		if len(templates) == 0 {
			return (*domain.Template)(nil), nil
		}
		t := &templates[0]
		s.cache.Set(key, t, s.ttl)
		return t, nil
	})
	if err != nil {
		s.logger.Error("failed to fetch template",
			slog.String("template_type", string(typ)),
			slog.String("error", err.Error()))
		return nil
	}

	t := v.(*domain.Template)
	if t == nil {
		s.logger.Warn("no template found", slog.String("template_type", string(typ)))
	}
	return t
}

// Invalidate сбрасывает кэш шаблона одного типа.
func (s *Templates) Invalidate(typ domain.TemplateType) {
	s.cache.Delete(templateKeyPrefix + string(typ))
}

// InvalidateAll сбрасывает кэш всех шаблонов и возвращает число
// удаленных записей.
func (s *Templates) InvalidateAll() int {
	keys := s.cache.Keys(templateKeyPrefix)
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return len(keys)
}
