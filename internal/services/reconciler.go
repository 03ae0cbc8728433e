package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"equipment-manager/internal/entities"
	"equipment-manager/internal/events"
	"equipment-manager/internal/repositories"
	apperrors "equipment-manager/pkg/errors"
	"equipment-manager/pkg/eventbus"
	"equipment-manager/pkg/metrics"

	"go.uber.org/zap"
)

// EventPublisher - асинхронная доставка событий (eventbus.Bus).
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

// PersistReport - итог одного цикла сохранения.
type PersistReport struct {
	Written        []string
	Skipped        []string // записи без серийного номера
	Unchanged      []string
	Failed         map[string]error
	Renamed        map[string]string
	CascadesQueued int
}

func (r *PersistReport) failed(id string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]error)
	}
	r.Failed[id] = err
}

// Reconciler синхронизирует рабочий набор сессии с основным хранилищем,
// хранилищем сводок и локальным кешем.
type Reconciler struct {
	equipments repositories.EquipmentRepositoryInterface
	metas      repositories.EquipmentMetaRepositoryInterface
	cache      repositories.LocalCacheInterface
	builder    *MetaBuilder
	publisher  EventPublisher
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewReconciler: equipments == nil означает, что основное хранилище недоступно.
// metas, cache и publisher необязательны.
func NewReconciler(
	equipments repositories.EquipmentRepositoryInterface,
	metas repositories.EquipmentMetaRepositoryInterface,
	cache repositories.LocalCacheInterface,
	builder *MetaBuilder,
	publisher EventPublisher,
	logger *zap.Logger,
) *Reconciler {
	if builder == nil {
		builder = NewMetaBuilder(nil, DefaultThumbOptions, logger)
	}
	return &Reconciler{
		equipments: equipments,
		metas:      metas,
		cache:      cache,
		builder:    builder,
		publisher:  publisher,
		logger:     logger,
	}
}

// UseMetrics подключает счетчики сохранения; nil отключает их.
func (r *Reconciler) UseMetrics(m *metrics.Metrics) { r.metrics = m }

// CheckSerial проверяет по основному хранилищу, что новый серийный номер
// текущей записи не занят другой записью. Нужна в области single: рабочий
// набор содержит только одну запись, и SetSerial не видит остальные.
func (r *Reconciler) CheckSerial(ctx context.Context, s *Session, serial string) error {
	eq := s.current
	if eq == nil || s.scope != ScopeSingle || r.equipments == nil {
		return nil
	}
	newID := DeriveID(serial)
	if newID == "" || newID == eq.ID {
		return nil
	}

	owners, err := r.equipments.FindByEquipmentID(ctx, newID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	}
	if len(owners) > 0 {
		return fmt.Errorf("%w: серийный номер %q уже используется", apperrors.ErrIdentityConflict, serial)
	}

	docID := SanitizeForDocID(serial)
	if docID == s.savedDoc[eq.ID] {
		return nil
	}
	other, err := r.equipments.FindByDocID(ctx, docID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	case other.ID != eq.ID:
		return fmt.Errorf("%w: документ %q принадлежит записи %s", apperrors.ErrIdentityConflict, docID, other.ID)
	}
	return nil
}

// Save - ручное сохранение. Повторный вызов во время выполнения
// возвращает ErrSaveInProgress.
func (r *Reconciler) Save(ctx context.Context, s *Session) (*PersistReport, error) {
	if !s.beginSave() {
		return nil, apperrors.ErrSaveInProgress
	}
	defer s.endSave()

	report, err := r.Persist(ctx, s)
	if err == nil {
		s.dirty = false
	}
	return report, err
}

// Persist записывает изменившиеся записи области сохранения. Ошибка записи
// одной записи не прерывает обработку остальных. В области single ошибка
// текущей записи возвращается вызывающему.
func (r *Reconciler) Persist(ctx context.Context, s *Session) (*PersistReport, error) {
	if r.equipments == nil {
		r.logger.Warn("Сохранение невозможно: основное хранилище не подключено")
		return nil, apperrors.ErrBackendUnavailable
	}

	report := &PersistReport{Renamed: ResolveIDs(s.equipments)}
	for from, to := range report.Renamed {
		r.logger.Info("Ключ оборудования изменен", zap.String("from", from), zap.String("to", to))
		// Состояние старого ключа остается за записью, которая его сохранила.
		if s.Find(from) == nil {
			s.rekey(from, to)
		}
	}

	prevSerials := make(map[string]string, len(s.prevSerial))
	for k, v := range s.prevSerial {
		prevSerials[k] = v
	}

	for _, eq := range s.candidates() {
		if eq == nil {
			continue
		}
		r.persistOne(ctx, s, eq, prevSerials, report)
	}

	r.mirror(ctx, s, prevSerials)
	r.metrics.ObservePersist(len(report.Written), len(report.Unchanged), len(report.Skipped),
		len(report.Failed), len(report.Renamed))

	if s.scope == ScopeSingle && s.current != nil {
		if err, failed := report.Failed[s.current.ID]; failed {
			return report, fmt.Errorf("%w: %v", apperrors.ErrSaveFailed, err)
		}
	}
	return report, nil
}

func (r *Reconciler) persistOne(ctx context.Context, s *Session, eq *entities.Equipment, prevSerials map[string]string, report *PersistReport) {
	serial := strings.TrimSpace(eq.SerialNo)
	if serial == "" {
		report.Skipped = append(report.Skipped, eq.ID)
		return
	}

	prevSerial := prevSerials[eq.ID]
	serialChanged := prevSerial != serial
	snap := Snapshot(eq)
	last, seen := s.lastSaved[eq.ID]
	contentChanged := !seen || snap != last
	if !serialChanged && !contentChanged {
		report.Unchanged = append(report.Unchanged, eq.ID)
		return
	}

	docID := DocKeyFor(eq)
	log := r.logger.With(zap.String("equipmentID", eq.ID), zap.String("docID", docID))

	// Документ пишет первая запись набора с этим ключом; остальные не сливаются с ней.
	if owner := docOwner(s, docID); owner != nil && owner != eq {
		log.Error("Ключ документа занят другой записью", zap.String("owner", owner.ID))
		report.failed(eq.ID, fmt.Errorf("%w: документ %q принадлежит записи %s",
			apperrors.ErrIdentityConflict, docID, owner.ID))
		return
	}

	if err := r.equipments.Upsert(ctx, docID, eq); err != nil {
		log.Error("Ошибка записи оборудования", zap.Error(err))
		report.failed(eq.ID, err)
		return
	}

	// Без сводки запись считается несохраненной: следующее сохранение повторит обе.
	if r.metas != nil {
		if err := r.metas.Upsert(ctx, docID, r.builder.Build(ctx, eq)); err != nil {
			log.Error("Ошибка записи сводки оборудования", zap.Error(err))
			report.failed(eq.ID, err)
			return
		}
	}

	if serialChanged && prevSerial != "" {
		r.removeStale(ctx, s, eq, docID, prevSerial)
	}

	s.markSaved(eq, snap)
	report.Written = append(report.Written, eq.ID)
	log.Info("Оборудование сохранено",
		zap.Bool("serialChanged", serialChanged),
		zap.Bool("contentChanged", contentChanged))

	renamed := serialChanged && prevSerial != "" && NormalizeSerial(prevSerial) != NormalizeSerial(serial)
	located := contentChanged && strings.TrimSpace(eq.Location) != ""
	if (located || renamed) && r.publisher != nil {
		ev := events.EquipmentLocationChangedEvent{
			EquipmentID: eq.ID,
			SerialNo:    serial,
			Model:       eq.Model,
			Location:    eq.Location,
			Actor:       s.user,
		}
		if renamed {
			ev.PreviousSerialNo = prevSerial
		}
		r.publisher.Publish(ctx, ev)
		report.CascadesQueued++
	}
}

func docOwner(s *Session, docID string) *entities.Equipment {
	for _, other := range s.equipments {
		if other != nil && strings.TrimSpace(other.SerialNo) != "" && DocKeyFor(other) == docID {
			return other
		}
	}
	return nil
}

// removeStale удаляет документы по прежнему ключу. Ошибки не критичны:
// устаревший документ лишь занимает место.
func (r *Reconciler) removeStale(ctx context.Context, s *Session, eq *entities.Equipment, docID, prevSerial string) {
	oldDoc, ok := s.savedDoc[eq.ID]
	if !ok {
		oldDoc = SanitizeForDocID(prevSerial)
	}
	if oldDoc == "" || oldDoc == docID {
		return
	}
	for _, other := range s.equipments {
		if other != nil && other != eq && strings.TrimSpace(other.SerialNo) != "" && DocKeyFor(other) == oldDoc {
			return
		}
	}

	if err := r.equipments.Delete(ctx, oldDoc); err != nil {
		r.logger.Warn("Не удалось удалить документ по старому ключу", zap.String("docID", oldDoc), zap.Error(err))
	}
	if r.metas != nil {
		if err := r.metas.Delete(ctx, oldDoc); err != nil {
			r.logger.Warn("Не удалось удалить сводку по старому ключу", zap.String("docID", oldDoc), zap.Error(err))
		}
	}
}

// mirror копирует область сохранения в локальный кеш.
func (r *Reconciler) mirror(ctx context.Context, s *Session, prevSerials map[string]string) {
	if r.cache == nil {
		return
	}

	if s.scope != ScopeSingle {
		if err := r.cache.Save(ctx, derefAll(s.equipments)); err != nil {
			r.logger.Warn("Не удалось обновить локальный кеш", zap.Error(err))
		}
		return
	}

	eq := s.current
	if eq == nil {
		return
	}
	list, err := r.cache.Load(ctx)
	if err != nil {
		r.logger.Warn("Локальный кеш не прочитан, будет перезаписан", zap.Error(err))
		list = nil
	}
	list = upsertCached(list, *eq, prevSerials[eq.ID])
	if err := r.cache.Save(ctx, list); err != nil {
		r.logger.Warn("Не удалось обновить локальный кеш", zap.Error(err))
	}
}

// upsertCached заменяет запись в списке кеша: по ключу, затем по новому
// серийному номеру, затем по прежнему. Иначе добавляет в конец.
func upsertCached(list []entities.Equipment, eq entities.Equipment, prevSerial string) []entities.Equipment {
	match := func(pred func(c entities.Equipment) bool) int {
		for i := range list {
			if pred(list[i]) {
				return i
			}
		}
		return -1
	}
	idx := match(func(c entities.Equipment) bool { return c.ID == eq.ID })
	if idx < 0 && eq.SerialNo != "" {
		idx = match(func(c entities.Equipment) bool { return c.SerialNo == eq.SerialNo })
	}
	if idx < 0 && prevSerial != "" {
		idx = match(func(c entities.Equipment) bool { return c.SerialNo == prevSerial })
	}
	if idx < 0 {
		return append(list, eq)
	}
	list[idx] = eq
	return list
}

func derefAll(list []*entities.Equipment) []entities.Equipment {
	out := make([]entities.Equipment, 0, len(list))
	for _, eq := range list {
		if eq != nil {
			out = append(out, *eq)
		}
	}
	return out
}
