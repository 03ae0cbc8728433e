package services

import (
	"strings"

	"equipment-manager/internal/entities"
	apperrors "equipment-manager/pkg/errors"
)

// RequiredFieldsError перечисляет незаполненные обязательные поля.
type RequiredFieldsError struct {
	Missing []string
}

func (e *RequiredFieldsError) Error() string {
	return "не заполнены обязательные поля: " + strings.Join(e.Missing, ", ")
}

// ValidateRequired проверяет обязательные поля перед ручным сохранением.
// Примечание необязательно; из места установки обязателен только верхний уровень.
func ValidateRequired(eq *entities.Equipment) error {
	if eq == nil {
		return apperrors.ErrNoEquipmentSelected
	}
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("model", eq.Model)
	check("serialNo", eq.SerialNo)
	check("codeNo", eq.CodeNo)
	check("category", eq.Category)
	check("installDate", eq.InstallDate)
	check("calibrationDate", eq.CalibrationDate)
	check("location.major", ParseLocation(eq.Location).Major)

	if len(missing) > 0 {
		return &RequiredFieldsError{Missing: missing}
	}
	return nil
}
