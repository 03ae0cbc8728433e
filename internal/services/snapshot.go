package services

import (
	"bytes"
	"encoding/json"
	"sort"

	"equipment-manager/internal/entities"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

// snapshotDoc задает фиксированный порядок ключей снимка.
// encoding/json сериализует поля структуры в порядке объявления.
type snapshotDoc struct {
	ID                  string            `json:"id"`
	Model               string            `json:"model"`
	SerialNo            string            `json:"serialNo"`
	CodeNo              string            `json:"codeNo"`
	Category            string            `json:"category"`
	InstallDate         string            `json:"installDate"`
	CalibrationDate     string            `json:"calibrationDate"`
	Note                string            `json:"note"`
	Manufacturer        string            `json:"manufacturer"`
	Location            string            `json:"location"`
	Status              string            `json:"status"`
	PhotoCode           string            `json:"photoCode"`
	RepresentativePhoto null.Int          `json:"representativePhoto"`
	Tags                []json.RawMessage `json:"tags"`
	Photos              []json.RawMessage `json:"photos"`
	Specs               []json.RawMessage `json:"specs"`
	Accessories         []json.RawMessage `json:"accessories"`
	History             []json.RawMessage `json:"history"`
	Tasks               []json.RawMessage `json:"tasks"`
}

// Snapshot возвращает каноническую строку сравниваемых полей записи.
// Порядок элементов вложенных коллекций не влияет на результат.
// Если сериализация не удалась, возвращается уникальное значение,
// которое не совпадет ни с одним предыдущим снимком.
func Snapshot(eq *entities.Equipment) string {
	if eq == nil {
		return ""
	}

	doc := snapshotDoc{
		ID:                  eq.ID,
		Model:               eq.Model,
		SerialNo:            eq.SerialNo,
		CodeNo:              eq.CodeNo,
		Category:            eq.Category,
		InstallDate:         eq.InstallDate,
		CalibrationDate:     eq.CalibrationDate,
		Note:                eq.Note,
		Manufacturer:        eq.Manufacturer,
		Location:            eq.Location,
		Status:              eq.Status,
		PhotoCode:           eq.PhotoCode,
		RepresentativePhoto: eq.RepresentativePhoto,
	}

	var err error
	if doc.Tags, err = canonicalSet(eq.Tags); err != nil {
		return unserializable()
	}
	// Порядок фото в снимок не попадает, а RepresentativePhoto - индекс.
	// Операция, меняющая порядок фото, обязана менять PhotoCode.
	if doc.Photos, err = canonicalSet(eq.Photos); err != nil {
		return unserializable()
	}
	if doc.Specs, err = canonicalSet(eq.Specs); err != nil {
		return unserializable()
	}
	if doc.Accessories, err = canonicalSet(eq.Accessories); err != nil {
		return unserializable()
	}
	if doc.History, err = canonicalSet(eq.History); err != nil {
		return unserializable()
	}
	if doc.Tasks, err = canonicalSet(eq.Tasks); err != nil {
		return unserializable()
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return unserializable()
	}
	return string(out)
}

// canonicalSet кодирует каждый элемент отдельно и сортирует результат.
// nil и пустой срез дают одинаковый "[]".
func canonicalSet[T any](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i], out[j]) < 0
	})
	return out, nil
}

func unserializable() string {
	return "!unserializable:" + uuid.NewString()
}
