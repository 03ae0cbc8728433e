package services

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"equipment-manager/internal/entities"
	apperrors "equipment-manager/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

const MaxPhotos = 12

// Scope определяет, какие записи являются кандидатами на сохранение.
// Задается при загрузке рабочего набора.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeAll    Scope = "all"
)

// Session - рабочий набор оборудования одного редактора.
// Не потокобезопасна: одна сессия обслуживает одного вызывающего.
type Session struct {
	equipments []*entities.Equipment
	current    *entities.Equipment
	scope      Scope

	// ключ записи -> серийный номер / снимок / ключ документа
	// на момент последнего сохранения
	prevSerial map[string]string
	lastSaved  map[string]string
	savedDoc   map[string]string

	dirty  bool
	saving atomic.Bool

	user string
	now  func() time.Time
}

func NewSession(user string) *Session {
	return &Session{
		scope:      ScopeAll,
		prevSerial: make(map[string]string),
		lastSaved:  make(map[string]string),
		savedDoc:   make(map[string]string),
		user:       user,
		now:        time.Now,
	}
}

func (s *Session) Equipments() []*entities.Equipment { return s.equipments }
func (s *Session) Current() *entities.Equipment      { return s.current }
func (s *Session) Scope() Scope                      { return s.scope }
func (s *Session) Dirty() bool                       { return s.dirty }
func (s *Session) User() string                      { return s.user }
func (s *Session) MarkDirty()                        { s.dirty = true }

// Load заменяет рабочий набор. Текущей становится первая запись.
func (s *Session) Load(list []*entities.Equipment, scope Scope) {
	s.equipments = list
	s.scope = scope
	s.current = nil
	if len(list) > 0 {
		s.current = list[0]
	}
}

// Select делает текущей запись с ключом id.
func (s *Session) Select(id string) bool {
	if eq := s.Find(id); eq != nil {
		s.current = eq
		return true
	}
	return false
}

func (s *Session) Find(id string) *entities.Equipment {
	for _, eq := range s.equipments {
		if eq != nil && eq.ID == id {
			return eq
		}
	}
	return nil
}

// Add добавляет новую пустую запись и делает ее текущей.
func (s *Session) Add() *entities.Equipment {
	eq := NewEquipment()
	s.equipments = append(s.equipments, eq)
	s.current = eq
	s.dirty = true
	return eq
}

// NewEquipment - пустая запись со случайным ключом.
func NewEquipment() *entities.Equipment {
	return &entities.Equipment{
		ID:          uuid.NewString(),
		Tags:        []string{},
		Photos:      []entities.Photo{},
		Specs:       []entities.Spec{},
		Accessories: []entities.Accessory{},
		History:     []entities.HistoryEntry{},
		Tasks:       []entities.Task{},
	}
}

// Seed запоминает текущее состояние всех записей как сохраненное.
func (s *Session) Seed() {
	s.SeedExcept(nil)
}

// SeedExcept - как Seed, но записи из skip остаются несохраненными.
func (s *Session) SeedExcept(skip map[string]error) {
	s.prevSerial = make(map[string]string, len(s.equipments))
	s.lastSaved = make(map[string]string, len(s.equipments))
	s.savedDoc = make(map[string]string, len(s.equipments))
	for _, eq := range s.equipments {
		if eq == nil {
			continue
		}
		if _, failed := skip[eq.ID]; failed {
			continue
		}
		s.markSaved(eq, Snapshot(eq))
	}
	s.dirty = false
}

func (s *Session) markSaved(eq *entities.Equipment, snap string) {
	serial := strings.TrimSpace(eq.SerialNo)
	s.prevSerial[eq.ID] = serial
	s.lastSaved[eq.ID] = snap
	if serial != "" {
		s.savedDoc[eq.ID] = DocKeyFor(eq)
	}
}

func (s *Session) beginSave() bool { return s.saving.CompareAndSwap(false, true) }
func (s *Session) endSave()        { s.saving.Store(false) }

// candidates - записи, которые участвуют в сохранении и проверке изменений.
func (s *Session) candidates() []*entities.Equipment {
	if s.scope == ScopeSingle {
		if s.current == nil {
			return nil
		}
		return []*entities.Equipment{s.current}
	}
	return s.equipments
}

func (s *Session) HasUnsavedChanges() bool {
	for _, eq := range s.candidates() {
		if eq == nil {
			continue
		}
		last, ok := s.lastSaved[eq.ID]
		if !ok || Snapshot(eq) != last {
			return true
		}
	}
	return false
}

// SetSerial меняет серийный номер текущей записи и переключает ключ.
// Если ключ уже принадлежит другой записи, поле возвращается назад.
// Очистка номера оставляет прежний ключ.
func (s *Session) SetSerial(serial string) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	serial = strings.TrimSpace(serial)
	prevSerial := eq.SerialNo
	eq.SerialNo = serial
	s.dirty = true

	newID := DeriveID(serial)
	if newID == "" || newID == eq.ID {
		return nil
	}
	for _, other := range s.equipments {
		if other != nil && other != eq && other.ID == newID {
			eq.SerialNo = prevSerial
			return fmt.Errorf("%w: серийный номер %q уже используется", apperrors.ErrIdentityConflict, serial)
		}
	}

	oldID := eq.ID
	eq.ID = newID
	s.rekey(oldID, newID)
	return nil
}

// rekey переносит сохраненное состояние записи на новый ключ.
func (s *Session) rekey(oldID, newID string) {
	for _, m := range []map[string]string{s.prevSerial, s.lastSaved, s.savedDoc} {
		if v, ok := m[oldID]; ok {
			m[newID] = v
			delete(m, oldID)
		}
	}
}

// Field - редактируемые простые поля записи.
type Field string

const (
	FieldModel           Field = "model"
	FieldCodeNo          Field = "codeNo"
	FieldCategory        Field = "category"
	FieldInstallDate     Field = "installDate"
	FieldCalibrationDate Field = "calibrationDate"
	FieldNote            Field = "note"
	FieldManufacturer    Field = "manufacturer"
)

func (s *Session) SetField(field Field, value string) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	switch field {
	case FieldModel:
		eq.Model = value
	case FieldCodeNo:
		eq.CodeNo = value
	case FieldCategory:
		eq.Category = value
	case FieldInstallDate:
		eq.InstallDate = value
	case FieldCalibrationDate:
		eq.CalibrationDate = value
	case FieldNote:
		eq.Note = value
	case FieldManufacturer:
		eq.Manufacturer = value
	default:
		return apperrors.NewInvalidInputError("неизвестное поле %q", field)
	}
	s.dirty = true
	return nil
}

func (s *Session) SetLocation(p LocationParts) error {
	if s.current == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	s.current.Location = BuildLocation(p)
	s.dirty = true
	return nil
}

func (s *Session) SetStatus(status string) error {
	if s.current == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	if status != "" && !isEquipmentStatus(status) {
		return apperrors.NewInvalidInputError("неизвестный статус %q", status)
	}
	s.current.Status = status
	s.dirty = true
	return nil
}

func (s *Session) SetTags(tags []string) error {
	if s.current == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	s.current.Tags = out
	s.dirty = true
	return nil
}

func (s *Session) SetSpecs(specs []entities.Spec) error {
	if s.current == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	out := make([]entities.Spec, 0, len(specs))
	for _, sp := range specs {
		if sp.ID == "" {
			sp.ID = uuid.NewString()
		}
		out = append(out, sp)
	}
	s.current.Specs = out
	s.dirty = true
	return nil
}

func (s *Session) touchPhotos() {
	s.current.PhotoCode = s.now().UTC().Format(time.RFC3339Nano)
	s.dirty = true
}

func (s *Session) AddPhoto(url, desc string) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	if strings.TrimSpace(url) == "" {
		return apperrors.NewInvalidInputError("пустой URL фотографии")
	}
	if len(eq.Photos) >= MaxPhotos {
		return apperrors.NewInvalidInputError("можно добавить не более %d фотографий", MaxPhotos)
	}
	eq.Photos = append(eq.Photos, entities.Photo{
		URL:       url,
		Desc:      desc,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		CreatedBy: s.user,
	})
	s.touchPhotos()
	return nil
}

// RemovePhoto удаляет фото и сдвигает индекс представительного фото.
func (s *Session) RemovePhoto(idx int) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	if idx < 0 || idx >= len(eq.Photos) {
		return apperrors.NewInvalidInputError("нет фотографии с индексом %d", idx)
	}
	eq.Photos = append(eq.Photos[:idx], eq.Photos[idx+1:]...)
	if eq.RepresentativePhoto.Valid {
		switch rep := eq.RepresentativePhoto.Int; {
		case rep == idx:
			eq.RepresentativePhoto = null.Int{}
		case rep > idx:
			eq.RepresentativePhoto = null.IntFrom(rep - 1)
		}
	}
	s.touchPhotos()
	return nil
}

// SetRepresentativePhoto: повторный выбор того же индекса снимает отметку.
func (s *Session) SetRepresentativePhoto(idx int) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	if idx < 0 || idx >= len(eq.Photos) {
		return apperrors.NewInvalidInputError("нет фотографии с индексом %d", idx)
	}
	if eq.RepresentativePhoto.Valid && eq.RepresentativePhoto.Int == idx {
		eq.RepresentativePhoto = null.Int{}
	} else {
		eq.RepresentativePhoto = null.IntFrom(idx)
	}
	s.dirty = true
	return nil
}

func (s *Session) AddHistory(entry entities.HistoryEntry) (*entities.HistoryEntry, error) {
	eq := s.current
	if eq == nil {
		return nil, apperrors.ErrNoEquipmentSelected
	}
	if !isHistoryType(entry.Type) {
		return nil, apperrors.NewInvalidInputError("неизвестный тип записи истории %q", entry.Type)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date == "" {
		entry.Date = s.now().Format(dateLayout)
	}
	if entry.User == "" {
		entry.User = s.user
	}
	eq.History = append(eq.History, entry)
	s.dirty = true
	return &eq.History[len(eq.History)-1], nil
}

func (s *Session) UpdateHistory(entry entities.HistoryEntry) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	if entry.Type != "" && !isHistoryType(entry.Type) {
		return apperrors.NewInvalidInputError("неизвестный тип записи истории %q", entry.Type)
	}
	for i := range eq.History {
		if eq.History[i].ID != entry.ID {
			continue
		}
		h := &eq.History[i]
		if entry.Date != "" {
			h.Date = entry.Date
		}
		if entry.Type != "" {
			h.Type = entry.Type
		}
		h.Desc = entry.Desc
		if entry.User != "" {
			h.User = entry.User
		}
		s.dirty = true
		return nil
	}
	return apperrors.ErrNotFound
}

func (s *Session) DeleteHistory(id string) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	for i := range eq.History {
		if eq.History[i].ID == id {
			eq.History = append(eq.History[:i], eq.History[i+1:]...)
			s.dirty = true
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// UpsertTask добавляет или заменяет задачу и пересчитывает дату следующей проверки.
func (s *Session) UpsertTask(task entities.Task) (*entities.Task, error) {
	eq := s.current
	if eq == nil {
		return nil, apperrors.ErrNoEquipmentSelected
	}
	if task.PeriodYear < 0 || task.PeriodMonth < 0 || task.PeriodDay < 0 {
		return nil, apperrors.NewInvalidInputError("период проверки не может быть отрицательным")
	}
	task.NextCheck = CalculateNextCheck(task.LastCheck, task.PeriodYear, task.PeriodMonth, task.PeriodDay)
	s.dirty = true

	if task.ID != "" {
		for i := range eq.Tasks {
			if eq.Tasks[i].ID == task.ID {
				eq.Tasks[i] = task
				return &eq.Tasks[i], nil
			}
		}
	} else {
		task.ID = uuid.NewString()
	}
	eq.Tasks = append(eq.Tasks, task)
	return &eq.Tasks[len(eq.Tasks)-1], nil
}

func (s *Session) DeleteTask(id string) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	for i := range eq.Tasks {
		if eq.Tasks[i].ID == id {
			eq.Tasks = append(eq.Tasks[:i], eq.Tasks[i+1:]...)
			s.dirty = true
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// UpsertAccessory добавляет или заменяет ручную строку комплектующих.
// Связанные строки так изменить нельзя.
func (s *Session) UpsertAccessory(row entities.Accessory) (*entities.Accessory, error) {
	eq := s.current
	if eq == nil {
		return nil, apperrors.ErrNoEquipmentSelected
	}
	if row.AssetNo != "" {
		return nil, apperrors.ErrLinkedRowReadOnly
	}
	s.dirty = true
	if row.ID != "" {
		for i := range eq.Accessories {
			if eq.Accessories[i].ID != row.ID {
				continue
			}
			if eq.Accessories[i].IsLinked() {
				return nil, apperrors.ErrLinkedRowReadOnly
			}
			eq.Accessories[i] = row
			return &eq.Accessories[i], nil
		}
	} else {
		row.ID = uuid.NewString()
	}
	eq.Accessories = append(eq.Accessories, row)
	return &eq.Accessories[len(eq.Accessories)-1], nil
}

// DeleteAccessory удаляет ручную строку. Связанные строки снимаются через Unlink.
func (s *Session) DeleteAccessory(id string) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	for i := range eq.Accessories {
		if eq.Accessories[i].ID != id {
			continue
		}
		if eq.Accessories[i].IsLinked() {
			return apperrors.ErrLinkedRowReadOnly
		}
		eq.Accessories = append(eq.Accessories[:i], eq.Accessories[i+1:]...)
		s.dirty = true
		return nil
	}
	return apperrors.ErrAccessoryNotFound
}

// UpdateAccessoryNote - единственное редактируемое поле связанной строки.
func (s *Session) UpdateAccessoryNote(rowID, note string) error {
	eq := s.current
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	for i := range eq.Accessories {
		if eq.Accessories[i].ID == rowID {
			eq.Accessories[i].Note = note
			s.dirty = true
			return nil
		}
	}
	return apperrors.ErrAccessoryNotFound
}

func isEquipmentStatus(status string) bool {
	for _, st := range entities.EquipmentStatuses {
		if st == status {
			return true
		}
	}
	return false
}

func isHistoryType(t string) bool {
	for _, ht := range entities.HistoryTypes {
		if ht == t {
			return true
		}
	}
	return false
}
