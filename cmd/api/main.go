package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jvillacis/tallerpro-api/internal/application/billing"
	"github.com/jvillacis/tallerpro-api/internal/infrastructure/postgres"
	infrasri "github.com/jvillacis/tallerpro-api/internal/infrastructure/sri"
	"github.com/jvillacis/tallerpro-api/internal/infrastructure/sri/signer"
	httpRouter "github.com/jvillacis/tallerpro-api/internal/interfaces/http"
	"github.com/jvillacis/tallerpro-api/pkg/config"
	"github.com/jvillacis/tallerpro-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ambiente_sri", cfg.SRI.Ambiente).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	tallerRepo := postgres.NewTallerRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	xmlBuilder := infrasri.NewXMLBuilderService()
	signerSvc := signer.NewXAdESService()
	certProvider := signer.NewFileCertProvider(
		cfg.SRI.CertPath, cfg.SRI.CertKeyPath, cfg.SRI.CertPassword,
	)
	sriClient := infrasri.NewSOAPClient(cfg.SRI.Ambiente, cfg.SRI.RequestTimeout)

	issueUC := billing.NewIssueInvoiceUseCase(
		tallerRepo, clientRepo, saleRepo, invoiceRepo,
		txRunner, xmlBuilder, signerSvc, certProvider,
		sriClient, cfg.SRI, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "TallerPro API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		IssueInvoice: issueUC,
		JWTSecret:    cfg.JWT.Secret,
		Log:          log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
