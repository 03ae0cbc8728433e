package seeders

import (
	"context"
	"fmt"
	"strings"

	"equipment-manager/internal/entities"
	"equipment-manager/internal/repositories"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Колонки листа импорта активов: номер, наименование, код, серийный, МКС,
// статус, тип, регион, большой, средний, малый.
const assetImportColumns = 11

// SeedAssets записывает стартовую инвентарную коллекцию. Уже существующие
// активы пропускаются, чтобы не затереть их место хранения и привязку.
func SeedAssets(ctx context.Context, repo repositories.AssetRepositoryInterface, logger *zap.Logger) error {
	logger.Info("▶️  Наполнение инвентарной коллекции", zap.Int("count", len(assetsData)))
	if err := seedMissing(ctx, repo, assetsData, logger); err != nil {
		return fmt.Errorf("наполнение коллекции активов: %w", err)
	}
	logger.Info("✅ Инвентарная коллекция наполнена")
	return nil
}

func seedMissing(ctx context.Context, repo repositories.AssetRepositoryInterface, assets []entities.Asset, logger *zap.Logger) error {
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		known[a.AssetNo] = struct{}{}
		known[a.DocKey] = struct{}{}
	}
	missing := make([]entities.Asset, 0, len(assets))
	for _, a := range assets {
		if _, ok := known[a.AssetNo]; ok {
			logger.Debug("Актив уже существует. Пропускаем.", zap.String("assetNo", a.AssetNo))
			continue
		}
		missing = append(missing, a)
	}
	if len(missing) == 0 {
		return nil
	}
	return repo.UpsertMany(ctx, missing)
}

// ImportAssetsXLSX читает активы с первого листа книги. Первая строка - заголовок,
// строки без номера актива пропускаются.
func ImportAssetsXLSX(path string) ([]entities.Asset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("открытие %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("в книге %s нет листов", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("чтение листа %s: %w", sheets[0], err)
	}

	out := make([]entities.Asset, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cells := make([]string, assetImportColumns)
		for j := 0; j < assetImportColumns && j < len(row); j++ {
			cells[j] = strings.TrimSpace(row[j])
		}
		if cells[0] == "" {
			continue
		}
		status := cells[5]
		if status == "" {
			status = entities.AssetStatusNormal
		}
		out = append(out, entities.Asset{
			AssetNo:   cells[0],
			Name:      cells[1],
			CodeNo:    cells[2],
			SerialNo:  cells[3],
			MkcCode:   cells[4],
			Status:    status,
			AssetType: cells[6],
			Location: entities.AssetLocation{
				Region: cells[7],
				Major:  cells[8],
				Middle: cells[9],
				Sub:    cells[10],
			},
		})
	}
	return out, nil
}

// SeedAssetsFromXLSX - импорт из книги вместо встроенного набора. Строки книги
// перезаписывают описание существующих активов, кроме привязки к оборудованию.
func SeedAssetsFromXLSX(ctx context.Context, repo repositories.AssetRepositoryInterface, path string, logger *zap.Logger) error {
	assets, err := ImportAssetsXLSX(path)
	if err != nil {
		return err
	}
	logger.Info("▶️  Импорт активов из xlsx", zap.String("path", path), zap.Int("count", len(assets)))
	for i := range assets {
		patch := map[string]interface{}{
			"assetNo":   assets[i].AssetNo,
			"name":      assets[i].Name,
			"codeNo":    assets[i].CodeNo,
			"serialNo":  assets[i].SerialNo,
			"mkcCode":   assets[i].MkcCode,
			"status":    assets[i].Status,
			"assetType": assets[i].AssetType,
			"location":  assets[i].Location,
		}
		if err := repo.Update(ctx, assets[i].AssetNo, patch); err != nil {
			return fmt.Errorf("импорт актива %s: %w", assets[i].AssetNo, err)
		}
	}
	logger.Info("✅ Импорт активов завершен")
	return nil
}
