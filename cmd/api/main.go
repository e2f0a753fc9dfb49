package main

import (
	"context"
	"os"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// .envは無くても起動できる（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Appointment{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	//Redis接続（カートblob置き場）
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	//Repository（GORM/Redis実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	invoiceRepo := infraRepo.NewInvoiceGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	appointmentRepo := infraRepo.NewAppointmentGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	cartStore := cache.NewCartRedisStore(redisClient)

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, authValidator)
	historySource := usecase.NewInvoiceHistorySource(invoiceRepo)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cartStore, productRepo, historySource)
	invoiceUC := usecase.NewInvoiceUsecase(txManager, cartStore, historySource, logger)
	adminInvoiceUC := usecase.NewAdminInvoiceUsecase(txManager, auditRepo, logger)
	adminAuditUC := usecase.NewAdminAuditUsecase(auditRepo)
	appointmentUC := usecase.NewAppointmentUsecase(appointmentRepo, auditRepo, logger)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(cfg, userRepo, authUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Invoice:      handler.NewInvoiceHandler(invoiceUC),
		Appointment:  handler.NewAppointmentHandler(appointmentUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminInvoice: handler.NewAdminInvoiceHandler(adminInvoiceUC),
		AdminUser:    handler.NewAdminUserHandler(cfg, userRepo, authUC),
		AdminAudit:   handler.NewAdminAuditHandler(adminAuditUC),
	}

	e := server.New(cfg, userRepo, handlers)

	addr := ":" + cfg.Port
	if cfg.Port[0] == ':' {
		addr = cfg.Port
	}

	logger.Info().Str("addr", addr).Str("env", cfg.GoEnv).Msg("starting server")

	if err := server.Start(e, addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
