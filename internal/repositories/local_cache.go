package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"equipment-manager/internal/entities"
	apperrors "equipment-manager/pkg/errors"

	"go.uber.org/zap"
)

const DefaultLocalCacheKey = "equipments"

// LocalCacheInterface - один сериализованный список оборудования под
// фиксированным ключом. Используется как запасной источник для чтения.
type LocalCacheInterface interface {
	Load(ctx context.Context) ([]entities.Equipment, error)
	Save(ctx context.Context, list []entities.Equipment) error
}

type LocalCache struct {
	cache  CacheRepositoryInterface
	key    string
	logger *zap.Logger
}

func NewLocalCache(cache CacheRepositoryInterface, key string, logger *zap.Logger) LocalCacheInterface {
	if key == "" {
		key = DefaultLocalCacheKey
	}
	return &LocalCache{cache: cache, key: key, logger: logger}
}

// Load возвращает пустой список, если в кеше ничего нет.
func (c *LocalCache) Load(ctx context.Context) ([]entities.Equipment, error) {
	raw, err := c.cache.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, apperrors.ErrCacheMiss) {
			return []entities.Equipment{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения локального кеша: %w", err)
	}
	var list []entities.Equipment
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("локальный кеш поврежден: %w", err)
	}
	if list == nil {
		list = []entities.Equipment{}
	}
	return list, nil
}

func (c *LocalCache) Save(ctx context.Context, list []entities.Equipment) error {
	if list == nil {
		list = []entities.Equipment{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := c.cache.Set(ctx, c.key, string(payload), 0); err != nil {
		return fmt.Errorf("ошибка записи локального кеша: %w", err)
	}
	rev, err := c.cache.Incr(ctx, c.key+":rev")
	if err != nil {
		c.logger.Warn("Не удалось увеличить ревизию локального кеша", zap.Error(err))
		return nil
	}
	c.logger.Debug("Локальный кеш обновлен", zap.Int("records", len(list)), zap.Int64("rev", rev))
	return nil
}
