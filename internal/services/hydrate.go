package services

import (
	"context"
	"strings"
	"time"

	"equipment-manager/internal/entities"
	apperrors "equipment-manager/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HydrateResult описывает, откуда и в каком виде загружен рабочий набор.
type HydrateResult struct {
	Scope     Scope
	FromCache bool
	Imported  bool
	Migrated  bool
	Persisted bool
}

// Hydrate загружает рабочий набор в сессию. С equipmentID загружается одна
// запись (scope single), если она найдена; иначе вся коллекция (scope all).
// При недоступном хранилище используется локальный кеш.
func (r *Reconciler) Hydrate(ctx context.Context, s *Session, equipmentID string) (*HydrateResult, error) {
	equipmentID = strings.TrimSpace(equipmentID)
	res := &HydrateResult{Scope: ScopeAll}

	list, err := r.loadFromPrimary(ctx, equipmentID, res)
	if err != nil {
		r.logger.Warn("Основное хранилище недоступно, загрузка из локального кеша", zap.Error(err))
		res.Scope = ScopeAll
		res.FromCache = true
		if list, err = r.loadFromCache(ctx); err != nil {
			return nil, err
		}
	} else if len(list) == 0 && res.Scope == ScopeAll {
		cached, cacheErr := r.loadFromCache(ctx)
		if cacheErr != nil {
			r.logger.Warn("Не удалось прочитать локальный кеш для импорта", zap.Error(cacheErr))
		} else if len(cached) > 0 {
			r.logger.Info("Основное хранилище пусто, импорт из локального кеша", zap.Int("count", len(cached)))
			list = cached
			res.Imported = true
		}
	}

	now := time.Now()
	ptrs := make([]*entities.Equipment, 0, len(list))
	for i := range list {
		eq := list[i]
		if migrateLegacy(&eq, now) {
			res.Migrated = true
		}
		ptrs = append(ptrs, &eq)
	}
	if rekeyLegacyIDs(ptrs) {
		res.Migrated = true
	}
	if renames := ResolveIDs(ptrs); len(renames) > 0 {
		res.Migrated = true
	}

	s.Load(ptrs, res.Scope)
	selectRequested(s, equipmentID)

	var failed map[string]error
	if (res.Migrated || res.Imported) && !res.FromCache && r.equipments != nil {
		report, err := r.Persist(ctx, s)
		if err != nil {
			r.logger.Warn("Сохранение после миграции завершилось с ошибкой", zap.Error(err))
		}
		if report != nil {
			failed = report.Failed
			res.Persisted = true
		}
	} else if !res.FromCache {
		r.mirror(ctx, s, nil)
	}

	if len(s.equipments) == 0 {
		s.Load([]*entities.Equipment{NewEquipment()}, res.Scope)
	}
	s.SeedExcept(failed)

	r.logger.Info("Рабочий набор загружен",
		zap.String("scope", string(res.Scope)),
		zap.Int("count", len(s.equipments)),
		zap.Bool("fromCache", res.FromCache),
		zap.Bool("migrated", res.Migrated))
	return res, nil
}

func (r *Reconciler) loadFromPrimary(ctx context.Context, equipmentID string, res *HydrateResult) ([]entities.Equipment, error) {
	if r.equipments == nil {
		return nil, apperrors.ErrBackendUnavailable
	}
	if equipmentID != "" {
		list, err := r.equipments.FindByEquipmentID(ctx, equipmentID)
		if err != nil {
			return nil, err
		}
		if len(list) > 0 {
			res.Scope = ScopeSingle
			return list, nil
		}
		r.logger.Info("Запись не найдена по id, загружается вся коллекция", zap.String("equipmentID", equipmentID))
	}
	res.Scope = ScopeAll
	return r.equipments.FindAll(ctx)
}

func (r *Reconciler) loadFromCache(ctx context.Context) ([]entities.Equipment, error) {
	if r.cache == nil {
		return []entities.Equipment{}, nil
	}
	return r.cache.Load(ctx)
}

// selectRequested: по ключу, затем по производному ключу или сырому
// серийному номеру, иначе первая запись.
func selectRequested(s *Session, requested string) {
	if requested == "" {
		return
	}
	if s.Select(requested) {
		return
	}
	derived := DeriveID(requested)
	for _, eq := range s.equipments {
		if eq.ID == derived || eq.SerialNo == requested {
			s.current = eq
			return
		}
	}
}

// migrateLegacy приводит старые документы к текущей форме. Возвращает true,
// если изменилось сохраняемое содержимое.
func migrateLegacy(eq *entities.Equipment, now time.Time) bool {
	changed := false

	if eq.LegacyPhoto != nil {
		if len(eq.Photos) == 0 && eq.LegacyPhoto.URL != "" {
			eq.Photos = []entities.Photo{*eq.LegacyPhoto}
			changed = true
		}
		eq.LegacyPhoto = nil
	}
	if len(eq.Photos) > 0 && eq.PhotoCode == "" {
		eq.PhotoCode = now.UTC().Format(time.RFC3339Nano)
		changed = true
	}
	if eq.RepresentativePhoto.Valid {
		if i := eq.RepresentativePhoto.Int; i < 0 || i >= len(eq.Photos) {
			eq.RepresentativePhoto = null.Int{}
			changed = true
		}
	}

	for i := range eq.Accessories {
		row := &eq.Accessories[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
			changed = true
		}
		if trimmed := strings.TrimSpace(row.AssetNo); trimmed != row.AssetNo {
			row.AssetNo = trimmed
			changed = true
		}
		if row.Qty <= 0 {
			row.Qty = 1
			changed = true
		}
	}

	if eq.Tags == nil {
		eq.Tags = []string{}
	}
	if eq.Photos == nil {
		eq.Photos = []entities.Photo{}
	}
	if eq.Specs == nil {
		eq.Specs = []entities.Spec{}
	}
	if eq.Accessories == nil {
		eq.Accessories = []entities.Accessory{}
	}
	if eq.History == nil {
		eq.History = []entities.HistoryEntry{}
	}
	if eq.Tasks == nil {
		eq.Tasks = []entities.Task{}
	}
	return changed
}

// rekeyLegacyIDs переводит записи со старыми ключами (не SERIAL_...) на
// производный ключ, если он свободен.
func rekeyLegacyIDs(list []*entities.Equipment) bool {
	used := make(map[string]struct{}, len(list))
	for _, eq := range list {
		used[eq.ID] = struct{}{}
	}
	changed := false
	for _, eq := range list {
		derived := DeriveID(eq.SerialNo)
		if derived == "" || eq.ID == derived || strings.HasPrefix(eq.ID, serialKeyPrefix) {
			continue
		}
		if _, taken := used[derived]; taken {
			continue
		}
		delete(used, eq.ID)
		eq.ID = derived
		used[derived] = struct{}{}
		changed = true
	}
	return changed
}
