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

// productAPI — срез клиента каталога, нужный сервису товаров.
type productAPI interface {
	ProductByID(ctx context.Context, id int64) (*domain.Product, error)
	SaveProductImageFileID(ctx context.Context, id int64, fileID string) error
}

// Products читает товары по схеме «кэш, иначе запрос».
type Products struct {
	api    productAPI
	cache  *cache.Store
	ttl    time.Duration
	sf     singleflight.Group
	logger *slog.Logger
}

// NewProducts создает сервис товаров.
func NewProducts(api productAPI, store *cache.Store, ttl time.Duration, logger *slog.Logger) *Products {
	return &Products{
		api:    api,
		cache:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// ByID возвращает товар по идентификатору либо nil при отсутствии или
// ошибке API. Товар кэшируется только когда у него уже есть file_id
// изображения: иначе закэшировалось бы неразрешенное состояние медиа,
// и file_id, сохраненный конвейером, не был бы замечен до истечения TTL.
func (s *Products) ByID(ctx context.Context, id int64) *domain.Product {
	key := productKeyPrefix + strconv.FormatInt(id, 10)

	if p, ok := cache.GetAs[*domain.Product](s.cache, key); ok {
		return p
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		p, err := s.api.ProductByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.ImageFileID != "" {
			s.cache.Set(key, p, s.ttl)
		}
		return p, nil
	})
	if err != nil {
		s.logger.Error("failed to fetch product",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()))
		return nil
	}
	return v.(*domain.Product)
}

// SaveImageFileID сохраняет file_id изображения товара в API.
func (s *Products) SaveImageFileID(ctx context.Context, id int64, fileID string) error {
	return s.api.SaveProductImageFileID(ctx, id, fileID)
}
