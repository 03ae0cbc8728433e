package entities

// Статусы актива в инвентарной коллекции
const (
	AssetStatusNormal   = "normal"
	AssetStatusDamage   = "damage"
	AssetStatusFault    = "fault"
	AssetStatusOutbound = "outbound"
	AssetStatusSold     = "sold"
)

// AssetLocation - четырёхуровневое место хранения актива.
type AssetLocation struct {
	Region string `json:"region"`
	Major  string `json:"major"`
	Middle string `json:"middle"`
	Sub    string `json:"sub"`
}

// LinkedEquipment - обратная ссылка с актива на оборудование (по серийному номеру).
type LinkedEquipment struct {
	SerialNo    string `json:"serialNo"`
	EquipmentID string `json:"equipmentId,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Asset - запись внешней инвентарной коллекции.
type Asset struct {
	AssetNo         string           `json:"assetNo"`
	Name            string           `json:"name"`
	CodeNo          string           `json:"codeNo"`
	SerialNo        string           `json:"serialNo"`
	MkcCode         string           `json:"mkcCode"`
	Status          string           `json:"status"`
	AssetType       string           `json:"assetType"`
	Location        AssetLocation    `json:"location"`
	LinkedEquipment *LinkedEquipment `json:"linkedEquipment"`

	// Ключ документа в хранилище (не часть документа)
	DocKey string `json:"-"`
}
