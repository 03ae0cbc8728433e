package services

import (
	"context"
	"testing"

	"equipment-manager/internal/entities"
	"equipment-manager/internal/events"
	apperrors "equipment-manager/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPersist_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.stored(t, record("A"), record("B"))
	s := f.hydrated(t, "")
	writes := f.store.Writes()

	report, err := f.reconciler.Persist(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, report.Written)
	assert.ElementsMatch(t, []string{"SERIAL_A", "SERIAL_B"}, report.Unchanged)
	assert.Equal(t, writes, f.store.Writes())

	require.True(t, s.Select("SERIAL_A"))
	require.NoError(t, s.SetField(FieldNote, "после поверки"))

	report, err = f.reconciler.Persist(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"SERIAL_A"}, report.Written)
	assert.Equal(t, writes+1, f.store.Writes())

	report, err = f.reconciler.Persist(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, report.Written)
	assert.Equal(t, writes+1, f.store.Writes())
}

func TestPersist_SkipsRecordsWithoutSerial(t *testing.T) {
	f := newFixture(t)
	s := NewSession("tester")
	s.Load(nil, ScopeAll)
	blank := s.Add()

	report, err := f.reconciler.Persist(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{blank.ID}, report.Skipped)
	assert.Empty(t, f.store.Keys())
}

func TestPersist_RenameRemovesOldDocument(t *testing.T) {
	f := newFixture(t)
	f.stored(t, record("A"))
	s := f.hydrated(t, "SERIAL_A")
	require.NoError(t, f.metas.Upsert(context.Background(), "A", f.reconciler.builder.Build(context.Background(), s.Current())))

	require.NoError(t, s.SetSerial("B"))
	report, err := f.reconciler.Save(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"SERIAL_B"}, report.Written)
	assert.Equal(t, []string{"B"}, f.store.Keys())
	assert.Equal(t, []string{"B"}, f.metas.Keys())

	eq, ok := f.store.Get("B")
	require.True(t, ok)
	assert.Equal(t, "SERIAL_B", eq.ID)
	assert.Equal(t, "B", eq.SerialNo)
}

func TestPersist_RenameKeepsDocumentOwnedByAnotherRecord(t *testing.T) {
	f := newFixture(t)
	a := record("A")
	f.stored(t, a)
	s := f.hydrated(t, "")

	// вторая запись получает серийный номер A после того, как первая ушла на C
	require.True(t, s.Select("SERIAL_A"))
	require.NoError(t, s.SetSerial("C"))
	s.Add()
	require.NoError(t, s.SetSerial("A"))
	require.NoError(t, s.SetField(FieldModel, "M-9"))

	_, err := f.reconciler.Save(context.Background(), s)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "C"}, f.store.Keys())
}

func TestPersist_DuplicateSerialsGetSeparateDocuments(t *testing.T) {
	f := newFixture(t)
	first := record("X1")
	second := record("X1")
	second.Model = "M-201"

	s := NewSession("tester")
	s.Load([]*entities.Equipment{first, second}, ScopeAll)

	report, err := f.reconciler.Persist(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "SERIAL_X1", first.ID)
	assert.Equal(t, "SERIAL_X1_2", second.ID)
	assert.Equal(t, map[string]string{"SERIAL_X1": "SERIAL_X1_2"}, report.Renamed)
	assert.ElementsMatch(t, []string{"X1", "X1_2"}, f.store.Keys())

	dup, ok := f.store.Get("X1_2")
	require.True(t, ok)
	assert.Equal(t, "M-201", dup.Model)
	orig, ok := f.store.Get("X1")
	require.True(t, ok)
	assert.Equal(t, "M-200", orig.Model)
}

func TestPersist_SerialsSharingDocumentKeyGetSeparateDocuments(t *testing.T) {
	f := newFixture(t)
	plain := record("A_B")
	doubled := record("A__B")
	doubled.Model = "M-201"

	s := NewSession("tester")
	s.Load([]*entities.Equipment{plain, doubled}, ScopeAll)

	report, err := f.reconciler.Persist(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, report.Failed)

	assert.Equal(t, "SERIAL_A_B", plain.ID)
	assert.Equal(t, "SERIAL_A_B_2", doubled.ID)
	assert.ElementsMatch(t, []string{"A_B", "A_B_2"}, f.store.Keys())

	got, ok := f.store.Get("A_B")
	require.True(t, ok)
	assert.Equal(t, "M-200", got.Model)
	got, ok = f.store.Get("A_B_2")
	require.True(t, ok)
	assert.Equal(t, "M-201", got.Model)
}

func TestPersist_LegacyKeyDoesNotOverwriteForeignDocument(t *testing.T) {
	f := newFixture(t)
	owner := record("A_B")
	legacy := record("A__B")
	legacy.ID = "legacy-7"
	legacy.Model = "M-201"

	s := NewSession("tester")
	s.Load([]*entities.Equipment{owner, legacy}, ScopeAll)

	report, err := f.reconciler.Persist(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"SERIAL_A_B"}, report.Written)
	require.Contains(t, report.Failed, "legacy-7")
	assert.ErrorIs(t, report.Failed["legacy-7"], apperrors.ErrIdentityConflict)

	got, ok := f.store.Get("A_B")
	require.True(t, ok)
	assert.Equal(t, "M-200", got.Model)
}

func TestPersist_RenamePublishesPreviousSerial(t *testing.T) {
	f := newFixture(t)
	eq := record("A")
	eq.Location = ""
	f.stored(t, eq)
	s := f.hydrated(t, "SERIAL_A")

	require.NoError(t, s.SetSerial("B"))
	report, err := f.reconciler.Save(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CascadesQueued)

	evs := f.publisher.Events()
	require.Len(t, evs, 1)
	ev := evs[0].(events.EquipmentLocationChangedEvent)
	assert.Equal(t, "B", ev.SerialNo)
	assert.Equal(t, "A", ev.PreviousSerialNo)
	assert.Equal(t, "SERIAL_B", ev.EquipmentID)
}

func TestPersist_MetaFailureCountsAsFailure(t *testing.T) {
	f := newFixture(t)
	f.stored(t, record("A"))
	s := f.hydrated(t, "SERIAL_A")
	require.NoError(t, s.SetField(FieldNote, "x"))

	f.metas.FailOn("A", true)
	_, err := f.reconciler.Save(context.Background(), s)
	require.ErrorIs(t, err, apperrors.ErrSaveFailed)
	assert.True(t, s.HasUnsavedChanges())

	f.metas.FailOn("A", false)
	report, err := f.reconciler.Save(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"SERIAL_A"}, report.Written)
	assert.False(t, s.HasUnsavedChanges())
	assert.True(t, f.metas.Has("A"))
}

func TestPersist_SingleScopeReturnsCurrentFailure(t *testing.T) {
	f := newFixture(t)
	f.stored(t, record("A"))
	s := f.hydrated(t, "SERIAL_A")
	require.Equal(t, ScopeSingle, s.Scope())
	require.NoError(t, s.SetField(FieldNote, "x"))

	f.store.FailOn("A", true)
	report, err := f.reconciler.Save(context.Background(), s)
	require.ErrorIs(t, err, apperrors.ErrSaveFailed)
	require.NotNil(t, report)
	assert.Contains(t, report.Failed, "SERIAL_A")
	assert.True(t, s.Dirty())
}

func TestPersist_AllScopeContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.stored(t, record("A"), record("B"))
	s := f.hydrated(t, "")
	for _, eq := range s.Equipments() {
		eq.Note = "обход"
	}

	f.store.FailOn("A", true)
	report, err := f.reconciler.Persist(context.Background(), s)
	require.NoError(t, err)
	assert.Contains(t, report.Failed, "SERIAL_A")
	assert.Equal(t, []string{"SERIAL_B"}, report.Written)
}

func TestSave_RejectsConcurrentSave(t *testing.T) {
	f := newFixture(t)
	s := f.hydrated(t, "")
	require.True(t, s.beginSave())
	defer s.endSave()

	_, err := f.reconciler.Save(context.Background(), s)
	assert.ErrorIs(t, err, apperrors.ErrSaveInProgress)
}

func TestPersist_WithoutBackend(t *testing.T) {
	r := NewReconciler(nil, nil, nil, nil, nil, zap.NewNop())
	_, err := r.Persist(context.Background(), NewSession(""))
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

func TestPersist_PublishesLocationChange(t *testing.T) {
	f := newFixture(t)
	f.stored(t, record("A"))
	s := f.hydrated(t, "SERIAL_A")

	require.NoError(t, s.SetLocation(LocationParts{Major: "Plant B", Middle: "Line 1"}))
	report, err := f.reconciler.Save(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CascadesQueued)

	evs := f.publisher.Events()
	require.Len(t, evs, 1)
	ev, ok := evs[0].(events.EquipmentLocationChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "A", ev.SerialNo)
	assert.Equal(t, "M-200", ev.Model)
	assert.Equal(t, "Plant B/Line 1", ev.Location)
	assert.Equal(t, "tester", ev.Actor)

	// без изменений событие не публикуется
	_, err = f.reconciler.Save(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, f.publisher.Events(), 1)
}

func TestPersist_NoCascadeWithoutLocation(t *testing.T) {
	f := newFixture(t)
	eq := record("A")
	eq.Location = ""
	f.stored(t, eq)
	s := f.hydrated(t, "SERIAL_A")
	require.NoError(t, s.SetField(FieldNote, "x"))

	_, err := f.reconciler.Save(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, f.publisher.Events())
}

func TestPersist_MirrorsSingleScopeIntoCache(t *testing.T) {
	f := newFixture(t)
	f.stored(t, record("A"), record("B"))
	_ = f.hydrated(t, "") // кеш получает полный список

	s := f.hydrated(t, "SERIAL_A")
	require.NoError(t, s.SetSerial("A2"))
	_, err := f.reconciler.Save(context.Background(), s)
	require.NoError(t, err)

	cached, err := f.cache.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, cached, 2)
	ids := []string{cached[0].ID, cached[1].ID}
	assert.ElementsMatch(t, []string{"SERIAL_A2", "SERIAL_B"}, ids)
}

func TestUpsertCached(t *testing.T) {
	a := *record("A")
	b := *record("B")
	list := []entities.Equipment{a, b}

	renamed := *record("A")
	renamed.ID = "SERIAL_A2"
	renamed.SerialNo = "A2"
	list = upsertCached(list, renamed, "A")
	require.Len(t, list, 2)
	assert.Equal(t, "SERIAL_A2", list[0].ID)

	list = upsertCached(list, *record("C"), "")
	assert.Len(t, list, 3)
}
