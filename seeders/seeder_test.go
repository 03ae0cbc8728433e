package seeders

import (
	"context"
	"path/filepath"
	"testing"

	"equipment-manager/internal/entities"
	"equipment-manager/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeAssetBook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "assets.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportAssetsXLSX(t *testing.T) {
	path := writeAssetBook(t, [][]interface{}{
		{"assetNo", "name", "code", "serial", "mkc", "status", "type", "region", "major", "middle", "sub"},
		{"A-1", "Pump", "P", "S-1", "M-1", "", "option", "Store", "Rack 1"},
		{"", "no key"},
		{" A-2 ", "Fan", "F", "S-2", "M-2", "damage"},
	})

	assets, err := ImportAssetsXLSX(path)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assert.Equal(t, "A-1", assets[0].AssetNo)
	assert.Equal(t, entities.AssetStatusNormal, assets[0].Status)
	assert.Equal(t, "Rack 1", assets[0].Location.Major)
	assert.Equal(t, "A-2", assets[1].AssetNo)
	assert.Equal(t, entities.AssetStatusDamage, assets[1].Status)
}

func TestSeedAssetsKeepsLinks(t *testing.T) {
	store := memory.NewAssetStore()
	store.PutRaw("AST-0001", map[string]interface{}{
		"assetNo":         "AST-0001",
		"linkedEquipment": map[string]string{"serialNo": "X1"},
	})

	require.NoError(t, SeedAssets(context.Background(), store, zap.NewNop()))

	all, err := store.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(assetsData))

	a, err := store.FindByAssetNo(context.Background(), "AST-0001")
	require.NoError(t, err)
	require.NotNil(t, a.LinkedEquipment)
	assert.Equal(t, "X1", a.LinkedEquipment.SerialNo)
}
