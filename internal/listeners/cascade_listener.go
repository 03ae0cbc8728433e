package listeners

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"equipment-manager/internal/events"
	"equipment-manager/internal/services"
	"equipment-manager/pkg/eventbus"
)

// CascadeListener запускает каскад места установки после сохранения оборудования.
type CascadeListener struct {
	cascade *services.LocationCascade
	logger  *zap.Logger
}

func NewCascadeListener(cascade *services.LocationCascade, logger *zap.Logger) *CascadeListener {
	return &CascadeListener{cascade: cascade, logger: logger}
}

func (l *CascadeListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.EquipmentLocationChanged, l.handleLocationChanged)
	l.logger.Info("CascadeListener подписан на событие", zap.String("event", events.EquipmentLocationChanged))
}

func (l *CascadeListener) handleLocationChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.EquipmentLocationChangedEvent)
	if !ok {
		return nil
	}

	if e.PreviousSerialNo != "" {
		result, err := l.cascade.Repoint(ctx, e.PreviousSerialNo, e.SerialNo, e.EquipmentID, e.Model)
		if err != nil {
			return fmt.Errorf("перенос ссылок %s -> %s: %w", e.PreviousSerialNo, e.SerialNo, err)
		}
		l.warnPartial(e, result)
	}
	if strings.TrimSpace(e.Location) == "" {
		return nil
	}

	result, err := l.cascade.Apply(ctx, e.SerialNo, e.Model, e.Location)
	if err != nil {
		return fmt.Errorf("каскад для %s: %w", e.SerialNo, err)
	}
	l.warnPartial(e, result)
	return nil
}

func (l *CascadeListener) warnPartial(e events.EquipmentLocationChangedEvent, result *services.CascadeResult) {
	if failed := result.Failed(); failed > 0 {
		l.logger.Warn("Каскад выполнен частично",
			zap.String("equipmentID", e.EquipmentID),
			zap.Int("updated", result.Updated),
			zap.Int("failed", failed))
	}
}
