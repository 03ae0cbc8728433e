package services

import (
	"testing"

	apperrors "equipment-manager/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequired_Complete(t *testing.T) {
	eq := record("X1")
	eq.Note = ""
	assert.NoError(t, ValidateRequired(eq))
}

func TestValidateRequired_ListsMissingFields(t *testing.T) {
	eq := NewEquipment()
	eq.Model = "M-200"
	eq.Location = " /Line 2"

	err := ValidateRequired(eq)
	var required *RequiredFieldsError
	require.ErrorAs(t, err, &required)
	assert.Equal(t, []string{
		"serialNo", "codeNo", "category", "installDate", "calibrationDate", "location.major",
	}, required.Missing)
	assert.Contains(t, err.Error(), "serialNo")
}

func TestValidateRequired_NoRecord(t *testing.T) {
	assert.ErrorIs(t, ValidateRequired(nil), apperrors.ErrNoEquipmentSelected)
}
