package entities

// EquipmentMeta - сводная запись для списков. Пересчитывается при каждом
// сохранении оборудования и никогда не является источником истины.
type EquipmentMeta struct {
	ID              string `json:"id"`
	InternalID      string `json:"internalId"`
	SerialNo        string `json:"serialNo"`
	Model           string `json:"model"`
	CodeNo          string `json:"codeNo"`
	Category        string `json:"category"`
	InstallDate     string `json:"installDate"`
	CalibrationDate string `json:"calibrationDate"`
	Location        string `json:"location"`
	Status          string `json:"status"`
	PhotoCode       string `json:"photoCode"`
	ThumbURL        string `json:"thumbUrl"`
	ThumbDesc       string `json:"thumbDesc"`
	UpdatedAt       string `json:"updatedAt"`
}
