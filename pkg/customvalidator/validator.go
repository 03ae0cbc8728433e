package customvalidator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"equipment-manager/internal/entities"

	"github.com/go-playground/validator/v10"
)

const maxLocationSegment = 100

var assetNoRegex = regexp.MustCompile(`^[^/\s][^/]*$`)

// RegisterCustomValidations регистрирует правила, используемые в DTO.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("equipment_status", isEquipmentStatus); err != nil {
		return err
	}
	if err := v.RegisterValidation("location_path", isLocationPath); err != nil {
		return err
	}
	if err := v.RegisterValidation("asset_no", isAssetNo); err != nil {
		return err
	}
	return nil
}

func isEquipmentStatus(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, status := range entities.EquipmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// isLocationPath: не больше трех уровней через "/", без пустых уровней в середине.
func isLocationPath(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return false
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" && i < len(parts)-1 {
			return false
		}
		if utf8.RuneCountInString(p) > maxLocationSegment {
			return false
		}
	}
	return true
}

// isAssetNo: номер актива служит ключом документа, "/" в нем недопустим.
func isAssetNo(fl validator.FieldLevel) bool {
	return assetNoRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}
