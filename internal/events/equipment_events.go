package events

const EquipmentLocationChanged = "equipment.location.changed"

// EquipmentLocationChangedEvent публикуется после сохранения записи с
// измененным содержимым и непустым местом установки, а также после смены
// серийного номера.
type EquipmentLocationChangedEvent struct {
	EquipmentID string
	SerialNo    string
	Model       string
	Location    string
	Actor       string
	// PreviousSerialNo заполнен, если серийный номер сменился: привязанные
	// активы еще ссылаются на него.
	PreviousSerialNo string
}

// Name - реализуем интерфейс eventbus.Event
func (e EquipmentLocationChangedEvent) Name() string {
	return EquipmentLocationChanged
}
