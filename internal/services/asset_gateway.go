package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"equipment-manager/internal/entities"
	"equipment-manager/internal/repositories"
	apperrors "equipment-manager/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssetGateway - доступ к внешней инвентарной коллекции с кешем в памяти.
// Кеш общий для всех сессий процесса.
type AssetGateway struct {
	repo   repositories.AssetRepositoryInterface
	logger *zap.Logger

	mu     sync.RWMutex
	cache  []entities.Asset
	loaded bool
}

func NewAssetGateway(repo repositories.AssetRepositoryInterface, logger *zap.Logger) *AssetGateway {
	return &AssetGateway{repo: repo, logger: logger}
}

// FetchAll возвращает копию кеша; force или пустой кеш вызывают чтение коллекции.
func (g *AssetGateway) FetchAll(ctx context.Context, force bool) ([]entities.Asset, error) {
	if !force {
		g.mu.RLock()
		if g.loaded {
			out := cloneAssets(g.cache)
			g.mu.RUnlock()
			return out, nil
		}
		g.mu.RUnlock()
	}

	list, err := g.repo.FindAll(ctx)
	if err != nil {
		g.logger.Error("Не удалось загрузить инвентарную коллекцию", zap.Error(err))
		return nil, fmt.Errorf("загрузка активов: %w", err)
	}
	for i := range list {
		normalizeAsset(&list[i])
	}

	g.mu.Lock()
	g.cache = list
	g.loaded = true
	out := cloneAssets(g.cache)
	g.mu.Unlock()

	g.logger.Debug("Инвентарная коллекция загружена", zap.Int("count", len(list)))
	return out, nil
}

// LinkedBySerial - активы, чья обратная ссылка указывает на серийный номер.
func (g *AssetGateway) LinkedBySerial(ctx context.Context, serial string) ([]entities.Asset, error) {
	all, err := g.FetchAll(ctx, false)
	if err != nil {
		return nil, err
	}
	target := NormalizeSerial(serial)
	if target == "" {
		return []entities.Asset{}, nil
	}
	out := make([]entities.Asset, 0)
	for _, a := range all {
		if a.LinkedEquipment != nil && NormalizeSerial(a.LinkedEquipment.SerialNo) == target {
			out = append(out, a)
		}
	}
	return out, nil
}

func (g *AssetGateway) cached(assetNo string) (entities.Asset, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, a := range g.cache {
		if a.AssetNo == assetNo {
			return cloneAsset(a), true
		}
	}
	return entities.Asset{}, false
}

// lookup ищет актив в кеше, затем после принудительной перезагрузки.
func (g *AssetGateway) lookup(ctx context.Context, assetNo string) (entities.Asset, error) {
	if a, ok := g.cached(assetNo); ok {
		return a, nil
	}
	all, err := g.FetchAll(ctx, true)
	if err != nil {
		return entities.Asset{}, err
	}
	for _, a := range all {
		if a.AssetNo == assetNo {
			return a, nil
		}
	}
	return entities.Asset{}, apperrors.ErrAssetNotFound
}

func (g *AssetGateway) updateCached(assetNo string, fn func(a *entities.Asset)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.cache {
		if g.cache[i].AssetNo == assetNo {
			fn(&g.cache[i])
			return
		}
	}
}

// Link привязывает актив к текущей записи сессии: переносит место установки
// оборудования на актив и добавляет строку комплектующих.
func (g *AssetGateway) Link(ctx context.Context, s *Session, assetNo string) (*entities.Accessory, error) {
	eq := s.Current()
	if eq == nil {
		return nil, apperrors.ErrNoEquipmentSelected
	}
	assetNo = strings.TrimSpace(assetNo)
	if assetNo == "" {
		return nil, apperrors.ErrInvalidAssetNo
	}
	for _, row := range eq.Accessories {
		if row.AssetNo == assetNo {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAssetAlreadyLinked, assetNo)
		}
	}

	asset, err := g.lookup(ctx, assetNo)
	if err != nil {
		return nil, err
	}

	loc := ToAssetLocation(ParseLocation(eq.Location), linkSubLabel(eq.Model))
	link := &entities.LinkedEquipment{SerialNo: eq.SerialNo, EquipmentID: eq.ID, Model: eq.Model}
	patch := map[string]interface{}{
		"location":        loc,
		"linkedEquipment": link,
	}
	if err := g.repo.Update(ctx, docKeyOf(asset), patch); err != nil {
		g.logger.Error("Ошибка обновления актива при привязке",
			zap.String("assetNo", assetNo), zap.String("equipmentID", eq.ID), zap.Error(err))
		return nil, fmt.Errorf("обновление актива %s: %w", assetNo, err)
	}
	g.updateCached(assetNo, func(a *entities.Asset) {
		a.Location = loc
		a.LinkedEquipment = link
	})

	eq.Accessories = append(eq.Accessories, entities.Accessory{
		ID:        uuid.NewString(),
		AssetNo:   assetNo,
		Category:  LinkedAccessoryKind,
		AssetCode: asset.MkcCode,
		Name:      asset.Name,
		Code:      asset.CodeNo,
		Serial:    asset.SerialNo,
		Qty:       1,
	})
	s.MarkDirty()

	g.logger.Info("Актив привязан к оборудованию",
		zap.String("assetNo", assetNo), zap.String("equipmentID", eq.ID))
	return &eq.Accessories[len(eq.Accessories)-1], nil
}

// Unlink записывает в актив переданное место хранения, снимает обратную ссылку
// и только после успешной записи удаляет строку комплектующих.
func (g *AssetGateway) Unlink(ctx context.Context, s *Session, rowID, assetNo string, loc entities.AssetLocation) error {
	eq := s.Current()
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	assetNo = strings.TrimSpace(assetNo)
	if assetNo == "" {
		return apperrors.ErrInvalidAssetNo
	}
	idx := -1
	for i := range eq.Accessories {
		if eq.Accessories[i].ID == rowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.ErrAccessoryNotFound
	}
	if eq.Accessories[idx].AssetNo != assetNo {
		return apperrors.NewInvalidInputError("строка %s не связана с активом %s", rowID, assetNo)
	}

	loc = entities.AssetLocation{
		Region: strings.TrimSpace(loc.Region),
		Major:  strings.TrimSpace(loc.Major),
		Middle: strings.TrimSpace(loc.Middle),
		Sub:    strings.TrimSpace(loc.Sub),
	}
	patch := map[string]interface{}{
		"location":        loc,
		"linkedEquipment": nil,
	}
	key := assetNo
	if a, ok := g.cached(assetNo); ok {
		key = docKeyOf(a)
	}
	if err := g.repo.Update(ctx, key, patch); err != nil {
		g.logger.Error("Ошибка обновления актива при отвязке, строка сохранена",
			zap.String("assetNo", assetNo), zap.String("rowID", rowID), zap.Error(err))
		return fmt.Errorf("обновление актива %s: %w", assetNo, err)
	}
	g.updateCached(assetNo, func(a *entities.Asset) {
		a.Location = loc
		a.LinkedEquipment = nil
	})

	eq.Accessories = append(eq.Accessories[:idx], eq.Accessories[idx+1:]...)
	s.MarkDirty()

	g.logger.Info("Актив отвязан от оборудования",
		zap.String("assetNo", assetNo), zap.String("equipmentID", eq.ID))
	return nil
}

// docKeyOf - ключ документа актива; у старых документов он может
// отличаться от номера актива.
func docKeyOf(a entities.Asset) string {
	if a.DocKey != "" {
		return a.DocKey
	}
	return a.AssetNo
}

func normalizeAsset(a *entities.Asset) {
	a.AssetNo = strings.TrimSpace(a.AssetNo)
	if a.AssetNo == "" {
		a.AssetNo = a.DocKey
	}
	if strings.TrimSpace(a.Status) == "" {
		a.Status = entities.AssetStatusNormal
	}
	if a.LinkedEquipment != nil && strings.TrimSpace(a.LinkedEquipment.SerialNo) == "" {
		a.LinkedEquipment = nil
	}
}

func cloneAsset(a entities.Asset) entities.Asset {
	if a.LinkedEquipment != nil {
		link := *a.LinkedEquipment
		a.LinkedEquipment = &link
	}
	return a
}

func cloneAssets(list []entities.Asset) []entities.Asset {
	out := make([]entities.Asset, len(list))
	for i := range list {
		out[i] = cloneAsset(list[i])
	}
	return out
}
