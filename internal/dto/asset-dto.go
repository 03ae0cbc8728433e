package dto

type LinkAssetDTO struct {
	AssetNo string `json:"assetNo" validate:"required,max=100,asset_no"`
}

type AssetLocationDTO struct {
	Region string `json:"region" validate:"max=100"`
	Major  string `json:"major"  validate:"max=100"`
	Middle string `json:"middle" validate:"max=100"`
	Sub    string `json:"sub"    validate:"max=200"`
}

// UnlinkAssetDTO - новое место хранения актива указывает пользователь,
// значения по умолчанию нет.
type UnlinkAssetDTO struct {
	AssetNo  string           `json:"assetNo"  validate:"required,max=100,asset_no"`
	Location AssetLocationDTO `json:"location"`
}
