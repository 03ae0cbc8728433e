package dto

import "equipment-manager/internal/entities"

type PhotoInputDTO struct {
	URL  string `json:"url"  validate:"required"`
	Desc string `json:"desc" validate:"omitempty,max=500"`
}

type HistoryInputDTO struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Type string `json:"type" validate:"required"`
	Desc string `json:"desc" validate:"omitempty,max=2000"`
}

type AccessoryNoteDTO struct {
	RowID string `json:"rowId" validate:"required"`
	Note  string `json:"note"`
}

// UpdateEquipmentDTO - частичное изменение записи: nil-поля не трогаются.
type UpdateEquipmentDTO struct {
	SerialNo        *string `json:"serialNo,omitempty"        validate:"omitempty,max=100"`
	Model           *string `json:"model,omitempty"           validate:"omitempty,max=200"`
	CodeNo          *string `json:"codeNo,omitempty"          validate:"omitempty,max=100"`
	Category        *string `json:"category,omitempty"        validate:"omitempty,max=100"`
	InstallDate     *string `json:"installDate,omitempty"     validate:"omitempty,datetime=2006-01-02"`
	CalibrationDate *string `json:"calibrationDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Note            *string `json:"note,omitempty"`
	Manufacturer    *string `json:"manufacturer,omitempty"    validate:"omitempty,max=200"`
	Location        *string `json:"location,omitempty"        validate:"omitempty,location_path"`
	Status          *string `json:"status,omitempty"          validate:"omitempty,equipment_status"`

	Tags                []string           `json:"tags,omitempty"`
	Specs               []entities.Spec    `json:"specs,omitempty"`
	AddPhotos           []PhotoInputDTO    `json:"addPhotos,omitempty"           validate:"omitempty,max=12,dive"`
	RepresentativePhoto *int               `json:"representativePhoto,omitempty" validate:"omitempty,gte=0"`
	AddHistory          []HistoryInputDTO  `json:"addHistory,omitempty"          validate:"omitempty,dive"`
	Tasks               []entities.Task    `json:"tasks,omitempty"`
	AccessoryNotes      []AccessoryNoteDTO `json:"accessoryNotes,omitempty"     validate:"omitempty,dive"`
}

type PersistReportDTO struct {
	Written        []string          `json:"written"`
	Skipped        []string          `json:"skipped"`
	Unchanged      []string          `json:"unchanged"`
	Failed         map[string]string `json:"failed,omitempty"`
	Renamed        map[string]string `json:"renamed,omitempty"`
	CascadesQueued int               `json:"cascadesQueued"`
}

type EquipmentSaveResponseDTO struct {
	Equipment *entities.Equipment `json:"equipment"`
	Report    *PersistReportDTO   `json:"report,omitempty"`
}
