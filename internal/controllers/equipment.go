package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"equipment-manager/internal/dto"
	"equipment-manager/internal/entities"
	"equipment-manager/internal/services"
	apperrors "equipment-manager/pkg/errors"
	"equipment-manager/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(equipmentService services.EquipmentServiceInterface, logger *zap.Logger) *EquipmentController {
	return &EquipmentController{equipmentService: equipmentService, logger: logger}
}

func (c *EquipmentController) GetEquipments(ctx echo.Context) error {
	res, err := c.equipmentService.ListSummaries(ctx.Request().Context())
	if err != nil {
		return c.fail(ctx, err)
	}
	return utils.SuccessResponse(ctx, res, "Список оборудования успешно получен", http.StatusOK)
}

func (c *EquipmentController) FindEquipment(ctx echo.Context) error {
	res, err := c.equipmentService.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование успешно найдено", http.StatusOK)
}

func (c *EquipmentController) CreateEquipment(ctx echo.Context) error {
	var in dto.UpdateEquipmentDTO
	if err := c.bind(ctx, &in); err != nil {
		return c.fail(ctx, err)
	}
	reqCtx := ctx.Request().Context()
	eq, report, err := c.equipmentService.Create(reqCtx, utils.EditorFromContext(reqCtx), in)
	if err != nil {
		return c.fail(ctx, err)
	}
	return utils.SuccessResponse(ctx, dto.EquipmentSaveResponseDTO{Equipment: eq, Report: reportDTO(report)},
		"Оборудование успешно создано", http.StatusCreated)
}

func (c *EquipmentController) UpdateEquipment(ctx echo.Context) error {
	var in dto.UpdateEquipmentDTO
	if err := c.bind(ctx, &in); err != nil {
		return c.fail(ctx, err)
	}
	reqCtx := ctx.Request().Context()
	eq, report, err := c.equipmentService.Update(reqCtx, ctx.Param("id"), utils.EditorFromContext(reqCtx), in)
	if err != nil {
		return c.fail(ctx, err)
	}
	return utils.SuccessResponse(ctx, dto.EquipmentSaveResponseDTO{Equipment: eq, Report: reportDTO(report)},
		"Оборудование успешно сохранено", http.StatusOK)
}

func (c *EquipmentController) GetLinkedAssets(ctx echo.Context) error {
	res, err := c.equipmentService.LinkedAssets(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return utils.SuccessResponse(ctx, res, "Связанные активы получены", http.StatusOK)
}

func (c *EquipmentController) LinkAsset(ctx echo.Context) error {
	var in dto.LinkAssetDTO
	if err := c.bind(ctx, &in); err != nil {
		return c.fail(ctx, err)
	}
	reqCtx := ctx.Request().Context()
	row, err := c.equipmentService.LinkAsset(reqCtx, ctx.Param("id"), utils.EditorFromContext(reqCtx), in.AssetNo)
	if err != nil {
		return c.fail(ctx, err)
	}
	return utils.SuccessResponse(ctx, row, "Актив привязан к оборудованию", http.StatusCreated)
}

func (c *EquipmentController) UnlinkAsset(ctx echo.Context) error {
	var in dto.UnlinkAssetDTO
	if err := c.bind(ctx, &in); err != nil {
		return c.fail(ctx, err)
	}
	reqCtx := ctx.Request().Context()
	err := c.equipmentService.UnlinkAsset(reqCtx, ctx.Param("id"), utils.EditorFromContext(reqCtx), ctx.Param("rowId"), in)
	if err != nil {
		return c.fail(ctx, err)
	}
	return utils.SuccessResponse(ctx, nil, "Актив отвязан от оборудования", http.StatusOK)
}

func (c *EquipmentController) GetAssets(ctx echo.Context) error {
	force, _ := strconv.ParseBool(ctx.QueryParam("force"))
	res, err := c.equipmentService.Assets(ctx.Request().Context(), force)
	if err != nil {
		return c.fail(ctx, err)
	}
	if withPagination, _ := strconv.ParseBool(ctx.QueryParam("withPagination")); withPagination {
		limit, offset, page := utils.ParsePaginationParams(ctx.QueryParams())
		body := dto.PaginatedList[entities.Asset]{
			List:       utils.Paginate(res, limit, offset),
			Pagination: dto.NewPagination(uint64(len(res)), limit, offset, page),
		}
		return utils.SuccessResponse(ctx, body, "Список активов успешно получен", http.StatusOK)
	}
	return utils.SuccessResponse(ctx, res, "Список активов успешно получен", http.StatusOK)
}

func (c *EquipmentController) ExportEquipments(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, 60)
	defer cancel()

	var buf bytes.Buffer
	if err := c.equipmentService.Export(reqCtx, &buf); err != nil {
		return c.fail(ctx, err)
	}
	fileName := fmt.Sprintf("equipments_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	return ctx.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (c *EquipmentController) bind(ctx echo.Context, in interface{}) error {
	if err := ctx.Bind(in); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil)
	}
	return ctx.Validate(in)
}

// fail переводит ошибки обязательных полей в 400 со списком полей.
func (c *EquipmentController) fail(ctx echo.Context, err error) error {
	var required *services.RequiredFieldsError
	if errors.As(err, &required) {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, required.Error(), nil,
				map[string]interface{}{"missing": required.Missing}),
			c.logger)
	}
	if !services.IsClientError(err) {
		c.logger.Warn("Запрос к оборудованию завершился ошибкой",
			zap.String("path", ctx.Path()), zap.String("id", ctx.Param("id")), zap.Error(err))
	}
	return utils.ErrorResponse(ctx, err, c.logger)
}

func reportDTO(r *services.PersistReport) *dto.PersistReportDTO {
	if r == nil {
		return nil
	}
	out := &dto.PersistReportDTO{
		Written:        r.Written,
		Skipped:        r.Skipped,
		Unchanged:      r.Unchanged,
		Renamed:        r.Renamed,
		CascadesQueued: r.CascadesQueued,
	}
	if len(r.Failed) > 0 {
		out.Failed = make(map[string]string, len(r.Failed))
		for id, err := range r.Failed {
			out.Failed[id] = err.Error()
		}
	}
	return out
}
