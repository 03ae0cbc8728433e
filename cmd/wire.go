package cmd

import (
	"context"
	"fmt"

	"equipment-manager/internal/listeners"
	"equipment-manager/internal/repositories"
	"equipment-manager/internal/repositories/memory"
	"equipment-manager/internal/services"
	"equipment-manager/pkg/config"
	"equipment-manager/pkg/database/postgresql"
	"equipment-manager/pkg/eventbus"
	"equipment-manager/pkg/filestorage"
	"equipment-manager/pkg/metrics"
	"equipment-manager/pkg/thumbnail"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// components - собранные зависимости приложения.
type components struct {
	equipments repositories.EquipmentRepositoryInterface
	metas      repositories.EquipmentMetaRepositoryInterface
	assets     repositories.AssetRepositoryInterface
	bus        *eventbus.Bus
	files      *filestorage.LocalFileStorage
	metrics    *metrics.Metrics
	service    *services.EquipmentService
	closers    []func()
}

func (c *components) Close() {
	if c.bus != nil {
		c.bus.Wait()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// buildComponents собирает хранилища и сервисы по конфигурации. Недоступная
// база не останавливает запуск: сервис работает из локального кеша.
func buildComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("Используется хранилище в памяти, данные не сохраняются между запусками")
		c.equipments = memory.NewEquipmentStore()
		c.metas = memory.NewMetaStore()
		c.assets = memory.NewAssetStore()
	case "postgres":
		pool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
		if err != nil {
			logger.Error("Основное хранилище недоступно, работа из локального кеша", zap.Error(err))
			c.assets = memory.NewAssetStore()
			break
		}
		c.closers = append(c.closers, pool.Close)
		c.equipments = repositories.NewEquipmentRepository(pool, logger)
		c.metas = repositories.NewEquipmentMetaRepository(pool)
		c.assets = repositories.NewAssetRepository(pool)
	default:
		return nil, fmt.Errorf("неизвестный STORAGE_DRIVER: %q", cfg.Storage.Driver)
	}

	cacheRepo, err := buildCache(ctx, cfg, logger, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	localCache := repositories.NewLocalCache(cacheRepo, cfg.Cache.Key, logger)

	source := thumbnail.NewSchemeSource()
	files, err := filestorage.NewLocalFileStorage(cfg.Uploads.Dir)
	if err != nil {
		logger.Warn("Каталог загрузок недоступен, загрузка фотографий отключена", zap.Error(err))
	} else {
		c.files = files
		source.Register("file", files)
	}
	if cfg.PhotoStore.S3Bucket != "" {
		s3src, err := thumbnail.NewS3Source(ctx, thumbnail.S3Config{
			Region:          cfg.PhotoStore.S3Region,
			Endpoint:        cfg.PhotoStore.S3Endpoint,
			AccessKeyID:     cfg.PhotoStore.S3AccessKey,
			SecretAccessKey: cfg.PhotoStore.S3SecretKey,
			PathStyle:       cfg.PhotoStore.S3PathStyle,
			Bucket:          cfg.PhotoStore.S3Bucket,
		})
		if err != nil {
			logger.Warn("Источник фотографий S3 не подключен", zap.Error(err))
		} else {
			source.Register("s3", s3src)
		}
	}
	builder := services.NewMetaBuilder(thumbnail.NewImagingGenerator(source), services.ThumbOptions{
		MaxWidth:  cfg.Thumbnail.MaxWidth,
		MaxHeight: cfg.Thumbnail.MaxHeight,
		Quality:   cfg.Thumbnail.Quality,
	}, logger)

	gateway := services.NewAssetGateway(c.assets, logger)
	cascade := services.NewLocationCascade(gateway, logger)
	c.metrics = metrics.New()
	cascade.UseMetrics(c.metrics)

	c.bus = eventbus.New(logger, cfg.Cascade.Timeout)
	listeners.NewCascadeListener(cascade, logger).Register(c.bus)

	reconciler := services.NewReconciler(c.equipments, c.metas, localCache, builder, c.bus, logger)
	reconciler.UseMetrics(c.metrics)
	c.service = services.NewEquipmentService(reconciler, gateway, c.metas, services.NewExportService(logger), logger)
	return c, nil
}

func buildCache(ctx context.Context, cfg *config.Config, logger *zap.Logger, c *components) (repositories.CacheRepositoryInterface, error) {
	switch cfg.Cache.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			c.closers = append(c.closers, func() { _ = client.Close() })
			return repositories.NewRedisCacheRepository(client), nil
		}
		logger.Warn("Redis недоступен, локальный кеш переключен на SQLite",
			zap.String("address", cfg.Redis.Address), zap.Error(err))
		_ = client.Close()
		fallthrough
	case "sqlite":
		repo, err := repositories.NewSQLiteCacheRepository(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("открытие локального кеша SQLite: %w", err)
		}
		c.closers = append(c.closers, func() { _ = repo.Close() })
		return repo, nil
	case "memory":
		return memory.NewCache(), nil
	default:
		return nil, fmt.Errorf("неизвестный CACHE_DRIVER: %q", cfg.Cache.Driver)
	}
}
