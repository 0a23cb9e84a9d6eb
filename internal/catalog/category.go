package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"telegram-catalog-bot/internal/cache"
	"telegram-catalog-bot/internal/domain"
)

// Ключи кэша каталога.
const (
	categoryKeyPrefix = "category:"
	categoryListKey   = "category:list"
	productKeyPrefix  = "product:"
	templateKeyPrefix = "template:"
)

// categoryAPI — срез клиента каталога, нужный сервису категорий.
type categoryAPI interface {
	Categories(ctx context.Context) ([]domain.CategoryListItem, error)
	CategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	SaveCategoryImageFileID(ctx context.Context, id int64, fileID string) error
}

// Categories читает категории по схеме «кэш, иначе запрос». Любая ошибка
// API гасится здесь: вызывающий получает пустой список или nil и никогда
// не обязан обрабатывать сетевые ошибки.
type Categories struct {
	api    categoryAPI
	cache  *cache.Store
	ttl    time.Duration
	sf     singleflight.Group
	logger *slog.Logger
}

// NewCategories создает сервис категорий.
func NewCategories(api categoryAPI, store *cache.Store, ttl time.Duration, logger *slog.Logger) *Categories {
	return &Categories{
		api:    api,
		cache:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// List возвращает список всех категорий. Список кэшируется целиком
// под одним ключом. При ошибке API возвращается пустой список.
func (s *Categories) List(ctx context.Context) []domain.CategoryListItem {
	if items, ok := cache.GetAs[[]domain.CategoryListItem](s.cache, categoryListKey); ok {
		return items
	}

	v, err, _ := s.sf.Do(categoryListKey, func() (any, error) {
		items, err := s.api.Categories(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(categoryListKey, items, s.ttl)
		return items, nil
	})
	if err != nil {
		s.logger.Error("failed to fetch category list", slog.String("error", err.Error()))
		return nil
	}
	return v.([]domain.CategoryListItem)
}

// ByID возвращает категорию по идентификатору либо nil,
// если она не найдена или API недоступен.
func (s *Categories) ByID(ctx context.Context, id int64) *domain.Category {
	key := categoryKeyPrefix + strconv.FormatInt(id, 10)

	if c, ok := cache.GetAs[*domain.Category](s.cache, key); ok {
		return c
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		c, err := s.api.CategoryByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, c, s.ttl)
		return c, nil
	})
	if err != nil {
		s.logger.Error("failed to fetch category",
			slog.Int64("category_id", id),
			slog.String("error", err.Error()))
		return nil
	}
	return v.(*domain.Category)
}

// SaveImageFileID сохраняет file_id изображения категории в API.
// Кэшированная копия не правится: свежий промах кэша увидит новое значение.
func (s *Categories) SaveImageFileID(ctx context.Context, id int64, fileID string) error {
	return s.api.SaveCategoryImageFileID(ctx, id, fileID)
}
