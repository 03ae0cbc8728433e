package services

import (
	"fmt"
	"io"
	"time"

	"equipment-manager/internal/entities"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Реестр оборудования"

var exportHeaders = []interface{}{
	"Ключ", "Серийный №", "Модель", "Код", "Категория", "Производитель",
	"Дата установки", "Дата поверки", "Место установки", "Статус",
	"Фото", "Комплектующие", "Записей истории", "Ближайшая проверка", "D-Day",
}

type ExportService struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewExportService(logger *zap.Logger) *ExportService {
	return &ExportService{logger: logger, now: time.Now}
}

// WriteXLSX пишет реестр оборудования в формате xlsx.
func (s *ExportService) WriteXLSX(w io.Writer, list []*entities.Equipment) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(exportSheet, "A1", "O1", style)
	}

	today := s.now()
	n := 1
	for _, eq := range list {
		if eq == nil {
			continue
		}
		n++
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		row := exportRow(eq, today)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("строка %d: %w", n, err)
		}
	}
	_ = f.SetColWidth(exportSheet, "A", "C", 22)
	_ = f.SetColWidth(exportSheet, "I", "I", 36)

	s.logger.Info("Реестр оборудования выгружен", zap.Int("rows", n-1))
	return f.Write(w)
}

func exportRow(eq *entities.Equipment, today time.Time) []interface{} {
	next := nearestCheck(eq.Tasks)
	dday := ""
	if d, ok := DDay(next, today); ok {
		dday = fmt.Sprintf("%d", d)
	}
	return []interface{}{
		eq.ID, eq.SerialNo, eq.Model, eq.CodeNo, eq.Category, eq.Manufacturer,
		eq.InstallDate, eq.CalibrationDate, eq.Location, eq.Status,
		len(eq.Photos), len(eq.Accessories), len(eq.History), next, dday,
	}
}

// nearestCheck - самая ранняя дата следующей проверки среди задач.
func nearestCheck(tasks []entities.Task) string {
	best := ""
	for _, t := range tasks {
		if t.NextCheck == "" {
			continue
		}
		if best == "" || t.NextCheck < best {
			best = t.NextCheck
		}
	}
	return best
}
