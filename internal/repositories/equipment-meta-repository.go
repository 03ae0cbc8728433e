package repositories

import (
	"context"
	"encoding/json"

	"equipment-manager/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

var equipmentMetaTable = documentTable{name: "equipment_meta", keyCol: "doc_id"}

type EquipmentMetaRepositoryInterface interface {
	Upsert(ctx context.Context, docID string, meta *entities.EquipmentMeta) error
	Delete(ctx context.Context, docID string) error
	FindAll(ctx context.Context) ([]entities.EquipmentMeta, error)
}

type EquipmentMetaRepository struct {
	storage querier
}

func NewEquipmentMetaRepository(storage *pgxpool.Pool) EquipmentMetaRepositoryInterface {
	return &EquipmentMetaRepository{storage: storage}
}

func (r *EquipmentMetaRepository) Upsert(ctx context.Context, docID string, meta *entities.EquipmentMeta) error {
	return equipmentMetaTable.upsertMerge(ctx, r.storage, docID, meta)
}

func (r *EquipmentMetaRepository) Delete(ctx context.Context, docID string) error {
	return equipmentMetaTable.delete(ctx, r.storage, docID)
}

func (r *EquipmentMetaRepository) FindAll(ctx context.Context) ([]entities.EquipmentMeta, error) {
	docs, err := equipmentMetaTable.list(ctx, r.storage, nil)
	if err != nil {
		return nil, err
	}
	list := make([]entities.EquipmentMeta, 0, len(docs))
	for _, doc := range docs {
		var meta entities.EquipmentMeta
		if err := json.Unmarshal(doc.Data, &meta); err != nil {
			return nil, err
		}
		list = append(list, meta)
	}
	return list, nil
}
