package controllers

import (
	"net/http"

	"equipment-manager/config"
	"equipment-manager/internal/services"
	apperrors "equipment-manager/pkg/errors"
	"equipment-manager/pkg/filestorage"
	"equipment-manager/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type UploadController struct {
	equipmentService services.EquipmentServiceInterface
	fileStorage      filestorage.FileStorageInterface
	logger           *zap.Logger
}

func NewUploadController(
	equipmentService services.EquipmentServiceInterface,
	fileStorage filestorage.FileStorageInterface,
	logger *zap.Logger,
) *UploadController {
	return &UploadController{equipmentService: equipmentService, fileStorage: fileStorage, logger: logger}
}

// UploadPhoto сохраняет файл и добавляет его в фотографии записи.
// Если запись сохранить не удалось, файл удаляется.
func (ctrl *UploadController) UploadPhoto(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c,
			apperrors.NewHttpError(http.StatusBadRequest, "Файл не был передан", apperrors.ErrBadRequest, nil),
			ctrl.logger,
		)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c,
			apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка обработки файла", err, nil),
			ctrl.logger,
		)
	}
	defer src.Close()

	if err := utils.ValidateFile(fileHeader, src, config.EquipmentPhotoContext); err != nil {
		return utils.ErrorResponse(c,
			apperrors.NewHttpError(http.StatusBadRequest, err.Error(), apperrors.ErrBadRequest, nil),
			ctrl.logger,
		)
	}

	rules := config.UploadContexts[config.EquipmentPhotoContext]
	savedPath, err := ctrl.fileStorage.Save(src, fileHeader.Filename, rules.PathPrefix)
	if err != nil {
		ctrl.logger.Error("Ошибка сохранения файла", zap.Error(err))
		return utils.ErrorResponse(c,
			apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка сохранения файла", err, nil),
			ctrl.logger,
		)
	}

	reqCtx := c.Request().Context()
	fileURL := filestorage.URLPrefix + savedPath
	eq, err := ctrl.equipmentService.AddPhoto(reqCtx, c.Param("id"), utils.EditorFromContext(reqCtx), fileURL, c.FormValue("desc"))
	if err != nil {
		if delErr := ctrl.fileStorage.Delete(savedPath); delErr != nil {
			ctrl.logger.Warn("Не удалось удалить загруженный файл", zap.String("path", savedPath), zap.Error(delErr))
		}
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	return utils.SuccessResponse(c, eq, "Фотография успешно загружена", http.StatusCreated)
}
