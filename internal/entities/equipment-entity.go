package entities

import (
	"encoding/json"

	"github.com/aarondl/null/v8"
)

// Статусы измерительного оборудования. Пустая строка - статус не задан.
const (
	StatusNormal       = "normal"
	StatusPartialFault = "partial_fault"
	StatusUnusable     = "unusable"
	StatusOutbound     = "outbound"
	StatusSold         = "sold"
)

var EquipmentStatuses = []string{StatusNormal, StatusPartialFault, StatusUnusable, StatusOutbound, StatusSold}

// Equipment - документ оборудования. Ключ ID выводится из SerialNo.
type Equipment struct {
	ID                  string         `json:"id"`
	SerialNo            string         `json:"serialNo"`
	Model               string         `json:"model"`
	CodeNo              string         `json:"codeNo"`
	Category            string         `json:"category"`
	InstallDate         string         `json:"installDate"`
	CalibrationDate     string         `json:"calibrationDate"`
	Note                string         `json:"note"`
	Manufacturer        string         `json:"manufacturer"`
	Location            string         `json:"location"` // "большой/средний/малый"
	Status              string         `json:"status"`
	Tags                []string       `json:"tags"`
	Photos              []Photo        `json:"photos"`
	PhotoCode           string         `json:"photoCode"`
	RepresentativePhoto null.Int       `json:"representativePhoto"`
	Specs               []Spec         `json:"specs"`
	Accessories         []Accessory    `json:"accessories"`
	History             []HistoryEntry `json:"history"`
	Tasks               []Task         `json:"tasks"`

	// Устаревшее поле с единственной фотографией (старые документы).
	LegacyPhoto *Photo `json:"photo,omitempty"`
}

type Photo struct {
	URL       string `json:"url"`
	Desc      string `json:"desc"`
	CreatedAt string `json:"createdAt"`
	CreatedBy string `json:"createdBy"`
}

// UnmarshalJSON принимает и объект, и старый формат - строку с URL.
func (p *Photo) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		*p = Photo{URL: url}
		return nil
	}
	type plain Photo
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Photo(v)
	return nil
}

type Spec struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Accessory - комплектующее. Если AssetNo не пуст, строка связана с активом
// и редактируется только поле Note.
type Accessory struct {
	ID        string `json:"id"`
	AssetNo   string `json:"assetNo,omitempty"`
	Category  string `json:"category"`
	AssetCode string `json:"assetCode"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Serial    string `json:"serial"`
	Qty       int    `json:"qty"`
	Note      string `json:"note"`
}

func (a Accessory) IsLinked() bool { return a.AssetNo != "" }

// Типы записей истории
const (
	HistoryError           = "error"
	HistoryHardwareFailure = "hardware_failure"
	HistorySoftwareBug     = "software_bug"
	HistoryDamage          = "damage"
	HistoryInbound         = "inbound"
	HistoryOutbound        = "outbound"
	HistoryClamp           = "clamp"
	HistoryCalibration     = "calibration"
	HistoryRepair          = "repair"
	HistoryInspection      = "inspection"
	HistoryOptionChange    = "option_change"
)

var HistoryTypes = []string{
	HistoryError, HistoryHardwareFailure, HistorySoftwareBug, HistoryDamage,
	HistoryInbound, HistoryOutbound, HistoryClamp, HistoryCalibration,
	HistoryRepair, HistoryInspection, HistoryOptionChange,
}

type HistoryEntry struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Type string `json:"type"`
	Desc string `json:"desc"`
	User string `json:"user"`
}

// Task - плановая проверка с периодом в годах/месяцах/днях.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PeriodYear  int    `json:"periodYear"`
	PeriodMonth int    `json:"periodMonth"`
	PeriodDay   int    `json:"periodDay"`
	LastCheck   string `json:"lastCheck"`
	NextCheck   string `json:"nextCheck"`
	Note        string `json:"note"`
}
