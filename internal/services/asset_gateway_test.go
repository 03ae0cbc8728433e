package services

import (
	"context"
	"testing"

	"equipment-manager/internal/entities"
	apperrors "equipment-manager/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pump(no string) entities.Asset {
	return entities.Asset{
		AssetNo:  no,
		Name:     "Насос",
		CodeNo:   "P-1",
		SerialNo: "PS-" + no,
		MkcCode:  "MKC-1",
		Status:   entities.AssetStatusNormal,
		Location: entities.AssetLocation{Region: "Склад", Major: "Стеллаж 1"},
	}
}

func linkedTo(a entities.Asset, serial string) entities.Asset {
	a.LinkedEquipment = &entities.LinkedEquipment{SerialNo: serial}
	return a
}

func TestAssetGateway_FetchAllUsesCache(t *testing.T) {
	f := newFixture(t, pump("A-1"))
	ctx := context.Background()

	_, err := f.gateway.FetchAll(ctx, false)
	require.NoError(t, err)
	_, err = f.gateway.FetchAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.assets.Reads())

	_, err = f.gateway.FetchAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.assets.Reads())
}

func TestAssetGateway_NormalizesDocuments(t *testing.T) {
	f := newFixture(t)
	f.assets.PutRaw("DOC-7", map[string]interface{}{
		"name":            "Старый актив",
		"linkedEquipment": map[string]string{"serialNo": "  "},
	})

	list, err := f.gateway.FetchAll(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "DOC-7", list[0].AssetNo)
	assert.Equal(t, entities.AssetStatusNormal, list[0].Status)
	assert.Nil(t, list[0].LinkedEquipment)
}

func TestAssetGateway_LinkedBySerial(t *testing.T) {
	f := newFixture(t, linkedTo(pump("A-1"), "x1"), linkedTo(pump("A-2"), "X1 "), linkedTo(pump("A-3"), "Y"), pump("A-4"))

	list, err := f.gateway.LinkedBySerial(context.Background(), "X1")
	require.NoError(t, err)
	nos := make([]string, 0, len(list))
	for _, a := range list {
		nos = append(nos, a.AssetNo)
	}
	assert.ElementsMatch(t, []string{"A-1", "A-2"}, nos)

	list, err = f.gateway.LinkedBySerial(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAssetGateway_Link(t *testing.T) {
	f := newFixture(t, pump("A-1"))
	ctx := context.Background()
	s := loadedSession(record("X1"))

	row, err := f.gateway.Link(ctx, s, " A-1 ")
	require.NoError(t, err)
	assert.NotEmpty(t, row.ID)
	assert.Equal(t, "A-1", row.AssetNo)
	assert.Equal(t, LinkedAccessoryKind, row.Category)
	assert.Equal(t, "Насос", row.Name)
	assert.Equal(t, "PS-A-1", row.Serial)
	assert.Equal(t, 1, row.Qty)
	assert.True(t, s.Dirty())

	asset, err := f.assets.FindByAssetNo(ctx, "A-1")
	require.NoError(t, err)
	require.NotNil(t, asset.LinkedEquipment)
	assert.Equal(t, "X1", asset.LinkedEquipment.SerialNo)
	assert.Equal(t, "SERIAL_X1", asset.LinkedEquipment.EquipmentID)
	assert.Equal(t, entities.AssetLocation{
		Region: "Plant A", Major: "Line 2", Middle: "Bay 3", Sub: "M-200 에 설치",
	}, asset.Location)
	assert.Equal(t, "Насос", asset.Name)

	linked, err := f.gateway.LinkedBySerial(ctx, "X1")
	require.NoError(t, err)
	assert.Len(t, linked, 1)
}

func TestAssetGateway_LinkRejectsDuplicate(t *testing.T) {
	f := newFixture(t, pump("A-1"))
	s := loadedSession(record("X1"))

	_, err := f.gateway.Link(context.Background(), s, "A-1")
	require.NoError(t, err)
	writes := f.assets.Writes()

	_, err = f.gateway.Link(context.Background(), s, "A-1")
	assert.ErrorIs(t, err, apperrors.ErrAssetAlreadyLinked)
	assert.Len(t, s.Current().Accessories, 1)
	assert.Equal(t, writes, f.assets.Writes())
}

func TestAssetGateway_LinkErrors(t *testing.T) {
	f := newFixture(t, pump("A-1"))
	ctx := context.Background()

	_, err := f.gateway.Link(ctx, NewSession("tester"), "A-1")
	assert.ErrorIs(t, err, apperrors.ErrNoEquipmentSelected)

	s := loadedSession(record("X1"))
	_, err = f.gateway.Link(ctx, s, "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssetNo)

	_, err = f.gateway.Link(ctx, s, "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)

	f.assets.FailOn("A-1", true)
	_, err = f.gateway.Link(ctx, s, "A-1")
	assert.Error(t, err)
	assert.Empty(t, s.Current().Accessories)
}

func TestAssetGateway_Unlink(t *testing.T) {
	f := newFixture(t, pump("A-1"))
	ctx := context.Background()
	s := loadedSession(record("X1"))
	row, err := f.gateway.Link(ctx, s, "A-1")
	require.NoError(t, err)
	rowID := row.ID

	target := entities.AssetLocation{Region: " Склад ", Major: "Стеллаж 4"}
	require.NoError(t, f.gateway.Unlink(ctx, s, rowID, "A-1", target))

	assert.Empty(t, s.Current().Accessories)
	asset, err := f.assets.FindByAssetNo(ctx, "A-1")
	require.NoError(t, err)
	assert.Nil(t, asset.LinkedEquipment)
	assert.Equal(t, entities.AssetLocation{Region: "Склад", Major: "Стеллаж 4"}, asset.Location)
}

func TestAssetGateway_UnlinkKeepsRowOnWriteFailure(t *testing.T) {
	f := newFixture(t, pump("A-1"))
	ctx := context.Background()
	s := loadedSession(record("X1"))
	row, err := f.gateway.Link(ctx, s, "A-1")
	require.NoError(t, err)
	rowID := row.ID

	f.assets.FailOn("A-1", true)
	err = f.gateway.Unlink(ctx, s, rowID, "A-1", entities.AssetLocation{Region: "Склад"})
	require.Error(t, err)

	require.Len(t, s.Current().Accessories, 1)
	assert.Equal(t, rowID, s.Current().Accessories[0].ID)
	linked, err := f.gateway.LinkedBySerial(ctx, "X1")
	require.NoError(t, err)
	assert.Len(t, linked, 1)
}

func TestAssetGateway_UnlinkValidatesRow(t *testing.T) {
	f := newFixture(t, pump("A-1"), pump("A-2"))
	ctx := context.Background()
	s := loadedSession(record("X1"))
	row, err := f.gateway.Link(ctx, s, "A-1")
	require.NoError(t, err)
	rowID := row.ID

	assert.ErrorIs(t, f.gateway.Unlink(ctx, s, "missing", "A-1", entities.AssetLocation{}), apperrors.ErrAccessoryNotFound)

	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, f.gateway.Unlink(ctx, s, rowID, "A-2", entities.AssetLocation{}), &invalid)
	assert.ErrorIs(t, f.gateway.Unlink(ctx, s, rowID, "", entities.AssetLocation{}), apperrors.ErrInvalidAssetNo)
	assert.Len(t, s.Current().Accessories, 1)
}
