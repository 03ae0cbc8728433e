package utils

import (
	"net/http"

	apperrors "equipment-manager/pkg/errors"
)

// ErrorList сопоставляет доменные ошибки с HTTP-кодами.
var ErrorList = map[error]int{
	apperrors.ErrNotFound:             http.StatusNotFound,
	apperrors.ErrAssetNotFound:        http.StatusNotFound,
	apperrors.ErrAccessoryNotFound:    http.StatusNotFound,
	apperrors.ErrBadRequest:           http.StatusBadRequest,
	apperrors.ErrInvalidAssetNo:       http.StatusBadRequest,
	apperrors.ErrNoEquipmentSelected:  http.StatusBadRequest,
	apperrors.ErrLinkedRowReadOnly:    http.StatusBadRequest,
	apperrors.ErrIdentityConflict:     http.StatusConflict,
	apperrors.ErrAssetAlreadyLinked:   http.StatusConflict,
	apperrors.ErrSaveInProgress:       http.StatusConflict,
	apperrors.ErrEmptyAuthHeader:      http.StatusUnauthorized,
	apperrors.ErrInvalidAuthHeader:    http.StatusUnauthorized,
	apperrors.ErrInvalidToken:         http.StatusUnauthorized,
	apperrors.ErrTokenExpired:         http.StatusUnauthorized,
	apperrors.ErrInvalidSigningMethod: http.StatusUnauthorized,
	apperrors.ErrUnauthorized:         http.StatusUnauthorized,
	apperrors.ErrBackendUnavailable:   http.StatusServiceUnavailable,
	apperrors.ErrSaveFailed:           http.StatusBadGateway,
}
