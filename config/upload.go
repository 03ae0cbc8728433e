package config

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	PathPrefix       string
}

const EquipmentPhotoContext = "equipment_photo"

var UploadContexts = map[string]UploadConfig{
	EquipmentPhotoContext: {
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxSizeMB:        20,
		PathPrefix:       "equipment",
	},
}
