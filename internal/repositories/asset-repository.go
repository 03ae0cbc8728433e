package repositories

import (
	"context"
	"encoding/json"

	"equipment-manager/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var assetTable = documentTable{name: "assets", keyCol: "asset_no"}

type AssetRepositoryInterface interface {
	FindAll(ctx context.Context) ([]entities.Asset, error)
	FindByAssetNo(ctx context.Context, assetNo string) (*entities.Asset, error)
	// Update сливает patch с документом актива.
	Update(ctx context.Context, assetNo string, patch map[string]interface{}) error
	UpsertMany(ctx context.Context, assets []entities.Asset) error
}

type AssetRepository struct {
	pool    *pgxpool.Pool
	storage querier
}

func NewAssetRepository(storage *pgxpool.Pool) AssetRepositoryInterface {
	return &AssetRepository{pool: storage, storage: storage}
}

func (r *AssetRepository) FindAll(ctx context.Context) ([]entities.Asset, error) {
	docs, err := assetTable.list(ctx, r.storage, nil)
	if err != nil {
		return nil, err
	}
	list := make([]entities.Asset, 0, len(docs))
	for _, doc := range docs {
		asset, err := decodeAsset(doc)
		if err != nil {
			return nil, err
		}
		list = append(list, asset)
	}
	return list, nil
}

func (r *AssetRepository) FindByAssetNo(ctx context.Context, assetNo string) (*entities.Asset, error) {
	doc, err := assetTable.get(ctx, r.storage, assetNo)
	if err != nil {
		return nil, err
	}
	asset, err := decodeAsset(doc)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *AssetRepository) Update(ctx context.Context, assetNo string, patch map[string]interface{}) error {
	return assetTable.upsertMerge(ctx, r.storage, assetNo, patch)
}

// UpsertMany пишет все активы в одной транзакции (используется сидером).
func (r *AssetRepository) UpsertMany(ctx context.Context, assets []entities.Asset) error {
	return WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for i := range assets {
			if err := assetTable.upsertMerge(ctx, tx, assets[i].AssetNo, assets[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeAsset(doc rawDocument) (entities.Asset, error) {
	var asset entities.Asset
	if err := json.Unmarshal(doc.Data, &asset); err != nil {
		return entities.Asset{}, err
	}
	asset.DocKey = doc.Key
	return asset, nil
}
