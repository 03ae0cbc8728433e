package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"equipment-manager/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var equipmentTable = documentTable{name: "equipments", keyCol: "doc_id"}

type EquipmentRepositoryInterface interface {
	// FindByEquipmentID ищет документы по полю id (не по ключу документа).
	FindByEquipmentID(ctx context.Context, id string) ([]entities.Equipment, error)
	// FindByDocID возвращает документ по ключу или ErrNotFound.
	FindByDocID(ctx context.Context, docID string) (*entities.Equipment, error)
	FindAll(ctx context.Context) ([]entities.Equipment, error)
	Upsert(ctx context.Context, docID string, eq *entities.Equipment) error
	Delete(ctx context.Context, docID string) error
}

type EquipmentRepository struct {
	storage querier
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{
		storage: storage,
		logger:  logger,
	}
}

func (r *EquipmentRepository) FindByEquipmentID(ctx context.Context, id string) ([]entities.Equipment, error) {
	docs, err := equipmentTable.list(ctx, r.storage, sq.Expr("data->>'id' = ?", id))
	if err != nil {
		return nil, err
	}
	return r.decode(docs)
}

func (r *EquipmentRepository) FindByDocID(ctx context.Context, docID string) (*entities.Equipment, error) {
	doc, err := equipmentTable.get(ctx, r.storage, docID)
	if err != nil {
		return nil, err
	}
	var eq entities.Equipment
	if err := json.Unmarshal(doc.Data, &eq); err != nil {
		return nil, fmt.Errorf("документ оборудования %s поврежден: %w", docID, err)
	}
	return &eq, nil
}

func (r *EquipmentRepository) FindAll(ctx context.Context) ([]entities.Equipment, error) {
	docs, err := equipmentTable.list(ctx, r.storage, nil)
	if err != nil {
		return nil, err
	}
	return r.decode(docs)
}

func (r *EquipmentRepository) Upsert(ctx context.Context, docID string, eq *entities.Equipment) error {
	return equipmentTable.upsertMerge(ctx, r.storage, docID, eq)
}

func (r *EquipmentRepository) Delete(ctx context.Context, docID string) error {
	return equipmentTable.delete(ctx, r.storage, docID)
}

func (r *EquipmentRepository) decode(docs []rawDocument) ([]entities.Equipment, error) {
	list := make([]entities.Equipment, 0, len(docs))
	for _, doc := range docs {
		var eq entities.Equipment
		if err := json.Unmarshal(doc.Data, &eq); err != nil {
			r.logger.Error("Поврежденный документ оборудования пропущен",
				zap.String("docID", doc.Key), zap.Error(err))
			continue
		}
		list = append(list, eq)
	}
	if len(docs) > 0 && len(list) == 0 {
		return nil, fmt.Errorf("ни один из %d документов оборудования не удалось разобрать", len(docs))
	}
	return list, nil
}
