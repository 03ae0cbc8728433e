package services

import (
	"context"
	"strings"

	"equipment-manager/internal/entities"
	"equipment-manager/pkg/metrics"

	"go.uber.org/zap"
)

// AssetOutcome - результат обновления одного актива.
type AssetOutcome struct {
	AssetNo  string
	Location entities.AssetLocation
	Err      error
}

type CascadeResult struct {
	Updated  int
	Outcomes []AssetOutcome
}

// Failed - число активов, которые не удалось обновить.
func (r *CascadeResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// LocationCascade переносит место установки оборудования на все
// привязанные к нему активы и перевешивает их обратные ссылки при смене
// серийного номера. Запись оборудования не меняется.
type LocationCascade struct {
	gateway *AssetGateway
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewLocationCascade(gateway *AssetGateway, logger *zap.Logger) *LocationCascade {
	return &LocationCascade{gateway: gateway, logger: logger}
}

func (c *LocationCascade) UseMetrics(m *metrics.Metrics) { c.metrics = m }

// Apply обновляет каждый привязанный актив отдельно. Ошибка по одному
// активу логируется и попадает в результат, остальные продолжают обновляться.
// Ошибка возвращается, только если не удалось загрузить коллекцию.
func (c *LocationCascade) Apply(ctx context.Context, serial, model, location string) (*CascadeResult, error) {
	result := &CascadeResult{}
	if strings.TrimSpace(serial) == "" {
		return result, nil
	}

	linked, err := c.gateway.LinkedBySerial(ctx, serial)
	if err != nil {
		return result, err
	}

	parts := ParseLocation(location)
	for _, asset := range linked {
		loc := ToAssetLocation(parts, cascadeSubLabel(model, asset.Location.Sub))
		outcome := AssetOutcome{AssetNo: asset.AssetNo, Location: loc}

		err := c.gateway.repo.Update(ctx, docKeyOf(asset), map[string]interface{}{"location": loc})
		if err != nil {
			c.logger.Error("Не удалось обновить место хранения актива",
				zap.String("assetNo", asset.AssetNo),
				zap.String("serial", serial),
				zap.Error(err))
			outcome.Err = err
		} else {
			c.gateway.updateCached(asset.AssetNo, func(a *entities.Asset) { a.Location = loc })
			result.Updated++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	c.metrics.ObserveCascade(result.Updated, result.Failed())
	c.logger.Info("Каскад места установки выполнен",
		zap.String("serial", serial),
		zap.Int("linked", len(linked)),
		zap.Int("updated", result.Updated))
	return result, nil
}

// Repoint переводит обратные ссылки активов со старого серийного номера на
// новый. Без этого каскад по новому номеру не нашел бы ни одного актива.
func (c *LocationCascade) Repoint(ctx context.Context, fromSerial, toSerial, equipmentID, model string) (*CascadeResult, error) {
	result := &CascadeResult{}
	if strings.TrimSpace(fromSerial) == "" || strings.TrimSpace(toSerial) == "" {
		return result, nil
	}

	linked, err := c.gateway.LinkedBySerial(ctx, fromSerial)
	if err != nil {
		return result, err
	}

	link := &entities.LinkedEquipment{SerialNo: toSerial, EquipmentID: equipmentID, Model: model}
	for _, asset := range linked {
		outcome := AssetOutcome{AssetNo: asset.AssetNo, Location: asset.Location}
		err := c.gateway.repo.Update(ctx, docKeyOf(asset), map[string]interface{}{"linkedEquipment": link})
		if err != nil {
			c.logger.Error("Не удалось обновить обратную ссылку актива",
				zap.String("assetNo", asset.AssetNo),
				zap.String("from", fromSerial),
				zap.String("to", toSerial),
				zap.Error(err))
			outcome.Err = err
		} else {
			c.gateway.updateCached(asset.AssetNo, func(a *entities.Asset) {
				l := *link
				a.LinkedEquipment = &l
			})
			result.Updated++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	c.metrics.ObserveCascade(result.Updated, result.Failed())
	c.logger.Info("Обратные ссылки активов перенесены",
		zap.String("from", fromSerial),
		zap.String("to", toSerial),
		zap.Int("updated", result.Updated))
	return result, nil
}
