package services

import (
	"strings"

	"equipment-manager/internal/entities"
)

// Подписи хранятся в данных инвентаря в исходном виде, менять их нельзя.
const (
	installedOnSuffix   = " 에 설치"
	defaultEquipmentTag = "설비"
	LinkedAccessoryKind = "옵션사양"
)

// LocationParts - три уровня пути "большой/средний/малый".
type LocationParts struct {
	Major  string
	Middle string
	Minor  string
}

func ParseLocation(path string) LocationParts {
	parts := strings.Split(path, "/")
	get := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	return LocationParts{Major: get(0), Middle: get(1), Minor: get(2)}
}

// BuildLocation склеивает непустые уровни через "/".
func BuildLocation(p LocationParts) string {
	out := make([]string, 0, 3)
	for _, s := range []string{p.Major, p.Middle, p.Minor} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// ToAssetLocation переносит путь оборудования на форму места хранения актива
// со сдвигом уровней: major -> region, middle -> major, minor -> middle.
func ToAssetLocation(p LocationParts, sub string) entities.AssetLocation {
	return entities.AssetLocation{
		Region: p.Major,
		Major:  p.Middle,
		Middle: p.Minor,
		Sub:    sub,
	}
}

// cascadeSubLabel: "'<model>' 에 설치" при наличии модели, иначе прежнее значение.
func cascadeSubLabel(model, previous string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return previous
	}
	return "'" + model + "'" + installedOnSuffix
}

func linkSubLabel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultEquipmentTag
	}
	return model + installedOnSuffix
}
