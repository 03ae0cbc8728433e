package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"equipment-manager/internal/routes"
	"equipment-manager/pkg/config"
	"equipment-manager/pkg/customvalidator"
	apperrors "equipment-manager/pkg/errors"
	"equipment-manager/pkg/filestorage"
	applogger "equipment-manager/pkg/logger"
	appmiddleware "equipment-manager/pkg/middleware"
	"equipment-manager/pkg/service"
	"equipment-manager/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := applogger.NewLogger()
		defer func() { _ = logger.Sync() }()
		cfg := config.New()

		comps, err := buildComponents(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer comps.Close()

		e := newEcho(logger)
		jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)

		var files filestorage.FileStorageInterface
		if comps.files != nil {
			files = comps.files
			e.Static("/uploads", comps.files.BasePath())
		}
		e.GET("/metrics", echo.WrapHandler(comps.metrics.Handler()))
		routes.InitRouter(e, comps.service, files, jwtSvc, &routes.Loggers{
			Main:      logger,
			Auth:      logger.Named("auth"),
			Equipment: logger.Named("equipment"),
		})

		go func() {
			logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
			if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Ошибка запуска сервера", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		logger.Info("Остановка сервера")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func newEcho(logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(appmiddleware.InjectLogger(logger))
	e.Use(appmiddleware.RequestLogger(logger.Named("http")))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{"Content-Disposition"},
	}))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Fatal("Ошибка регистрации кастомных правил валидации", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)
	return e
}
