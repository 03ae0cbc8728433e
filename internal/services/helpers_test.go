package services

import (
	"context"
	"sync"
	"testing"

	"equipment-manager/internal/entities"
	"equipment-manager/internal/repositories"
	"equipment-manager/internal/repositories/memory"
	"equipment-manager/pkg/eventbus"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventbus.Event(nil), p.events...)
}

type fixture struct {
	store      *memory.EquipmentStore
	metas      *memory.MetaStore
	assets     *memory.AssetStore
	cacheRepo  *memory.Cache
	cache      repositories.LocalCacheInterface
	publisher  *recordingPublisher
	gateway    *AssetGateway
	reconciler *Reconciler
}

func newFixture(t *testing.T, assets ...entities.Asset) *fixture {
	t.Helper()
	logger := zap.NewNop()
	f := &fixture{
		store:     memory.NewEquipmentStore(),
		metas:     memory.NewMetaStore(),
		assets:    memory.NewAssetStore(assets...),
		cacheRepo: memory.NewCache(),
		publisher: &recordingPublisher{},
	}
	f.cache = repositories.NewLocalCache(f.cacheRepo, "", logger)
	f.gateway = NewAssetGateway(f.assets, logger)
	f.reconciler = NewReconciler(f.store, f.metas, f.cache, nil, f.publisher, logger)
	return f
}

func record(serial string) *entities.Equipment {
	eq := NewEquipment()
	eq.ID = DeriveID(serial)
	eq.SerialNo = serial
	eq.Model = "M-200"
	eq.CodeNo = "C-1"
	eq.Category = "Press"
	eq.InstallDate = "2024-01-10"
	eq.CalibrationDate = "2024-06-01"
	eq.Location = "Plant A/Line 2/Bay 3"
	eq.Status = entities.StatusNormal
	return eq
}

// stored кладет записи в основное хранилище под их ключами документов.
func (f *fixture) stored(t *testing.T, list ...*entities.Equipment) {
	t.Helper()
	for _, eq := range list {
		require.NoError(t, f.store.Upsert(context.Background(), DocKeyFor(eq), eq))
	}
}

// hydrated загружает рабочий набор так же, как это делает HTTP-слой.
func (f *fixture) hydrated(t *testing.T, id string) *Session {
	t.Helper()
	s := NewSession("tester")
	_, err := f.reconciler.Hydrate(context.Background(), s, id)
	require.NoError(t, err)
	return s
}
