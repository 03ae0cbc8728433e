package routes

import (
	"equipment-manager/internal/controllers"
	"equipment-manager/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runEquipmentRouter(g *echo.Group, equipmentService services.EquipmentServiceInterface, logger *zap.Logger) {
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, logger)

	g.GET("/equipments", equipmentCtrl.GetEquipments)
	g.GET("/equipments/export", equipmentCtrl.ExportEquipments)
	g.POST("/equipments", equipmentCtrl.CreateEquipment)
	g.GET("/equipments/:id", equipmentCtrl.FindEquipment)
	g.PUT("/equipments/:id", equipmentCtrl.UpdateEquipment)
	g.GET("/equipments/:id/assets", equipmentCtrl.GetLinkedAssets)
	g.POST("/equipments/:id/assets", equipmentCtrl.LinkAsset)
	g.POST("/equipments/:id/accessories/:rowId/unlink", equipmentCtrl.UnlinkAsset)

	g.GET("/assets", equipmentCtrl.GetAssets)
}
