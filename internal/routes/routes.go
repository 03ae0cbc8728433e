package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-manager/internal/services"
	"equipment-manager/pkg/filestorage"
	"equipment-manager/pkg/middleware"
	"equipment-manager/pkg/service"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	Equipment *zap.Logger
}

// InitRouter регистрирует маршруты API. Все маршруты, кроме /health, требуют токен.
// Без fileStorage загрузка фотографий не регистрируется.
func InitRouter(
	e *echo.Echo,
	equipmentService services.EquipmentServiceInterface,
	fileStorage filestorage.FileStorageInterface,
	jwtSvc service.JWTService,
	loggers *Loggers,
) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, loggers.Auth)
	secure := api.Group("", authMW.Auth)

	runEquipmentRouter(secure, equipmentService, loggers.Equipment)
	if fileStorage != nil {
		runUploadRouter(secure, equipmentService, fileStorage, loggers.Equipment)
	}

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
