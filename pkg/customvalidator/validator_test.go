package customvalidator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Status   string `validate:"omitempty,equipment_status"`
	Location string `validate:"omitempty,location_path"`
	AssetNo  string `validate:"omitempty,asset_no"`
}

func newValidator(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, RegisterCustomValidations(v))
	return v
}

func TestEquipmentStatus(t *testing.T) {
	v := newValidator(t)
	assert.NoError(t, v.Struct(sample{Status: "normal"}))
	assert.NoError(t, v.Struct(sample{Status: "sold"}))
	assert.Error(t, v.Struct(sample{Status: "broken"}))
}

func TestLocationPath(t *testing.T) {
	v := newValidator(t)

	cases := map[string]bool{
		"Plant A":                  true,
		"Plant A/Line 2":           true,
		"Plant A/Line 2/Bay 3":     true,
		"Plant A/Line 2/":          true,
		"Plant A//Bay 3":           false,
		"Plant A/Line 2/Bay 3/Row": false,
	}
	for path, ok := range cases {
		err := v.Struct(sample{Location: path})
		if ok {
			assert.NoError(t, err, path)
		} else {
			assert.Error(t, err, path)
		}
	}
}

func TestAssetNo(t *testing.T) {
	v := newValidator(t)
	assert.NoError(t, v.Struct(sample{AssetNo: "A-100"}))
	assert.Error(t, v.Struct(sample{AssetNo: "A/100"}))
}
