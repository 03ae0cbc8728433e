package services

import (
	"context"
	"sync"
	"time"

	"equipment-manager/internal/entities"
	"equipment-manager/pkg/thumbnail"

	"go.uber.org/zap"
)

type ThumbOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   float64
}

var DefaultThumbOptions = ThumbOptions{MaxWidth: 240, MaxHeight: 180, Quality: 0.75}

type thumbEntry struct {
	photoCode string
	dataURL   string
}

// MetaBuilder строит сводную запись и кеширует миниатюру по ключу записи
// и PhotoCode: пока фотографии не менялись, генератор повторно не вызывается.
type MetaBuilder struct {
	generator thumbnail.Generator
	opts      ThumbOptions
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]thumbEntry
}

// NewMetaBuilder: generator может быть nil, тогда thumbUrl = исходный URL.
func NewMetaBuilder(generator thumbnail.Generator, opts ThumbOptions, logger *zap.Logger) *MetaBuilder {
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		opts = DefaultThumbOptions
	}
	return &MetaBuilder{
		generator: generator,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		cache:     make(map[string]thumbEntry),
	}
}

func (b *MetaBuilder) Build(ctx context.Context, eq *entities.Equipment) *entities.EquipmentMeta {
	photo := representativePhoto(eq)

	thumbURL, desc := "", ""
	if photo != nil {
		thumbURL, desc = photo.URL, photo.Desc
		if photo.URL != "" {
			thumbURL = b.thumbnail(ctx, eq, photo.URL)
		}
	}

	return &entities.EquipmentMeta{
		ID:              eq.ID,
		InternalID:      eq.ID,
		SerialNo:        eq.SerialNo,
		Model:           eq.Model,
		CodeNo:          eq.CodeNo,
		Category:        eq.Category,
		InstallDate:     eq.InstallDate,
		CalibrationDate: eq.CalibrationDate,
		Location:        eq.Location,
		Status:          eq.Status,
		PhotoCode:       eq.PhotoCode,
		ThumbURL:        thumbURL,
		ThumbDesc:       desc,
		UpdatedAt:       b.now().UTC().Format(time.RFC3339),
	}
}

func (b *MetaBuilder) thumbnail(ctx context.Context, eq *entities.Equipment, src string) string {
	key := eq.ID
	if key == "" {
		key = eq.SerialNo
	}

	b.mu.Lock()
	cached, ok := b.cache[key]
	b.mu.Unlock()
	if ok && cached.photoCode == eq.PhotoCode && cached.dataURL != "" {
		return cached.dataURL
	}

	if b.generator == nil {
		return src
	}
	dataURL, err := b.generator.Generate(ctx, src, b.opts.MaxWidth, b.opts.MaxHeight, b.opts.Quality)
	if err != nil || dataURL == "" {
		b.logger.Warn("Не удалось построить миниатюру, используется исходный URL",
			zap.String("equipmentID", eq.ID), zap.Error(err))
		return src
	}

	b.mu.Lock()
	b.cache[key] = thumbEntry{photoCode: eq.PhotoCode, dataURL: dataURL}
	b.mu.Unlock()
	return dataURL
}

// representativePhoto: отмеченное фото, иначе первое.
func representativePhoto(eq *entities.Equipment) *entities.Photo {
	if eq == nil || len(eq.Photos) == 0 {
		return nil
	}
	if eq.RepresentativePhoto.Valid {
		if i := eq.RepresentativePhoto.Int; i >= 0 && i < len(eq.Photos) {
			return &eq.Photos[i]
		}
	}
	return &eq.Photos[0]
}
