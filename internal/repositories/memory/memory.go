// Package memory содержит хранилища в памяти с теми же контрактами, что и
// репозитории Postgres/Redis. Используются в режиме STORAGE_DRIVER=memory и в тестах.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"equipment-manager/internal/entities"
	apperrors "equipment-manager/pkg/errors"
)

var errInjected = fmt.Errorf("искусственная ошибка хранилища")

// mergeJSON сливает верхний уровень ключей, как оператор jsonb ||.
func mergeJSON(existing []byte, doc interface{}) ([]byte, error) {
	patch, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return patch, nil
	}
	var base, upd map[string]json.RawMessage
	if err := json.Unmarshal(existing, &base); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, &upd); err != nil {
		return nil, err
	}
	for k, v := range upd {
		base[k] = v
	}
	return json.Marshal(base)
}

type docStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	writes   int
	deletes  int
	failKeys map[string]bool
	down     bool
}

func newDocStore() docStore {
	return docStore{docs: make(map[string][]byte), failKeys: make(map[string]bool)}
}

func (s *docStore) upsert(key string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down || s.failKeys[key] {
		return errInjected
	}
	merged, err := mergeJSON(s.docs[key], doc)
	if err != nil {
		return err
	}
	s.docs[key] = merged
	s.writes++
	return nil
}

func (s *docStore) delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down || s.failKeys[key] {
		return errInjected
	}
	delete(s.docs, key)
	s.deletes++
	return nil
}

func (s *docStore) sortedKeys() []string {
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Writes - число успешных записей.
func (s *docStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *docStore) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

func (s *docStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[key]
	return ok
}

func (s *docStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedKeys()
}

// FailOn заставляет запись и удаление по ключу завершаться ошибкой.
func (s *docStore) FailOn(key string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKeys[key] = fail
}

// SetDown имитирует недоступность хранилища целиком.
func (s *docStore) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// EquipmentStore - основное хранилище оборудования в памяти.
type EquipmentStore struct{ docStore }

func NewEquipmentStore() *EquipmentStore {
	return &EquipmentStore{docStore: newDocStore()}
}

func (s *EquipmentStore) FindByEquipmentID(ctx context.Context, id string) ([]entities.Equipment, error) {
	all, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []entities.Equipment
	for _, eq := range all {
		if eq.ID == id {
			out = append(out, eq)
		}
	}
	return out, nil
}

func (s *EquipmentStore) FindAll(ctx context.Context) ([]entities.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errInjected
	}
	out := make([]entities.Equipment, 0, len(s.docs))
	for _, k := range s.sortedKeys() {
		var eq entities.Equipment
		if err := json.Unmarshal(s.docs[k], &eq); err != nil {
			return nil, err
		}
		out = append(out, eq)
	}
	return out, nil
}

func (s *EquipmentStore) FindByDocID(ctx context.Context, docID string) (*entities.Equipment, error) {
	s.mu.Lock()
	down := s.down
	s.mu.Unlock()
	if down {
		return nil, errInjected
	}
	eq, ok := s.Get(docID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return eq, nil
}

func (s *EquipmentStore) Upsert(ctx context.Context, docID string, eq *entities.Equipment) error {
	return s.upsert(docID, eq)
}

func (s *EquipmentStore) Delete(ctx context.Context, docID string) error {
	return s.delete(docID)
}

// Get возвращает сохраненный документ по ключу.
func (s *EquipmentStore) Get(docID string) (*entities.Equipment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[docID]
	if !ok {
		return nil, false
	}
	var eq entities.Equipment
	if err := json.Unmarshal(raw, &eq); err != nil {
		return nil, false
	}
	return &eq, true
}

// MetaStore - производное хранилище сводок в памяти.
type MetaStore struct{ docStore }

func NewMetaStore() *MetaStore {
	return &MetaStore{docStore: newDocStore()}
}

func (s *MetaStore) Upsert(ctx context.Context, docID string, meta *entities.EquipmentMeta) error {
	return s.upsert(docID, meta)
}

func (s *MetaStore) Delete(ctx context.Context, docID string) error {
	return s.delete(docID)
}

func (s *MetaStore) FindAll(ctx context.Context) ([]entities.EquipmentMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.EquipmentMeta, 0, len(s.docs))
	for _, k := range s.sortedKeys() {
		var m entities.EquipmentMeta
		if err := json.Unmarshal(s.docs[k], &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// AssetStore - инвентарная коллекция в памяти.
type AssetStore struct {
	docStore
	reads int
}

func NewAssetStore(assets ...entities.Asset) *AssetStore {
	s := &AssetStore{docStore: newDocStore()}
	for i := range assets {
		_ = s.upsert(assets[i].AssetNo, assets[i])
	}
	s.writes = 0
	return s
}

func (s *AssetStore) FindAll(ctx context.Context) ([]entities.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errInjected
	}
	s.reads++
	out := make([]entities.Asset, 0, len(s.docs))
	for _, k := range s.sortedKeys() {
		var a entities.Asset
		if err := json.Unmarshal(s.docs[k], &a); err != nil {
			return nil, err
		}
		a.DocKey = k
		out = append(out, a)
	}
	return out, nil
}

func (s *AssetStore) FindByAssetNo(ctx context.Context, assetNo string) (*entities.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[assetNo]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	var a entities.Asset
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	a.DocKey = assetNo
	return &a, nil
}

func (s *AssetStore) Update(ctx context.Context, assetNo string, patch map[string]interface{}) error {
	return s.upsert(assetNo, patch)
}

func (s *AssetStore) UpsertMany(ctx context.Context, assets []entities.Asset) error {
	for i := range assets {
		if err := s.upsert(assets[i].AssetNo, assets[i]); err != nil {
			return err
		}
	}
	return nil
}

// Reads - число полных чтений коллекции.
func (s *AssetStore) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// PutRaw кладет документ без учета счетчиков (имитация внешнего изменения).
func (s *AssetStore) PutRaw(key string, doc interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, _ := json.Marshal(doc)
	s.docs[key] = raw
}

// Cache - реализация CacheRepositoryInterface в памяти.
type Cache struct {
	mu     sync.Mutex
	values map[string]string
	down   bool
}

func NewCache() *Cache {
	return &Cache{values: make(map[string]string)}
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errInjected
	}
	switch v := value.(type) {
	case string:
		c.values[key] = v
	case []byte:
		c.values[key] = string(v)
	default:
		c.values[key] = fmt.Sprint(v)
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return "", errInjected
	}
	v, ok := c.values[key]
	if !ok {
		return "", apperrors.ErrCacheMiss
	}
	return v, nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *Cache) SetDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}
