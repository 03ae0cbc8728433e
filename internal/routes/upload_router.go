package routes

import (
	"equipment-manager/internal/controllers"
	"equipment-manager/internal/services"
	"equipment-manager/pkg/filestorage"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runUploadRouter(
	group *echo.Group,
	equipmentService services.EquipmentServiceInterface,
	fileStorage filestorage.FileStorageInterface,
	logger *zap.Logger,
) {
	uploadController := controllers.NewUploadController(equipmentService, fileStorage, logger)

	group.POST("/equipments/:id/photos", uploadController.UploadPhoto)
}
