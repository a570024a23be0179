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

	"github.com/jhoicas/pvp-api/internal/application/auth"
	"github.com/jhoicas/pvp-api/internal/application/ingest"
	"github.com/jhoicas/pvp-api/internal/application/pricing"
	"github.com/jhoicas/pvp-api/internal/application/tables"
	"github.com/jhoicas/pvp-api/internal/domain/repository"
	"github.com/jhoicas/pvp-api/internal/infrastructure/csvstore"
	"github.com/jhoicas/pvp-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/pvp-api/internal/infrastructure/pdf"
	"github.com/jhoicas/pvp-api/internal/infrastructure/postgres"
	infraxlsx "github.com/jhoicas/pvp-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/pvp-api/internal/interfaces/http"
	"github.com/jhoicas/pvp-api/pkg/config"
	"github.com/jhoicas/pvp-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}
	if cfg.Staff.PasswordHash == "" {
		log.Warn().Msg("STAFF_PASSWORD_HASH vacío: el login quedará deshabilitado")
	}

	ctx := context.Background()
	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	tablesUC := tables.NewUseCase(store, log)
	pricingUC := pricing.NewUseCase(store, pricing.Config{
		CurrencySymbol:  cfg.Pricing.CurrencySymbol,
		DefaultOverhead: cfg.Pricing.DefaultOverhead,
		MaxOverhead:     cfg.Pricing.MaxOverhead,
	}, log)
	ingestUC := ingest.NewUseCase(
		infrapdf.NewPdfcpuTextExtractor(10),
		infraxlsx.NewPurchaseReader(),
		tablesUC,
		log,
	)
	authUC := auth.NewAuthUseCase(auth.StaffAccount{
		User:         cfg.Staff.User,
		PasswordHash: cfg.Staff.PasswordHash,
		Role:         cfg.Staff.Role,
	}, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    (cfg.HTTP.MaxUploadMB + 1) << 20,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerFile != "" {
		if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerFile,
				Path:     "docs",
				Title:    "PVP API",
			}))
		} else {
			log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger no disponible")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		PricingUC:   pricingUC,
		TablesUC:    tablesUC,
		IngestUC:    ingestUC,
		XLSXExport:  infraxlsx.NewPriceListWriter(),
		PDFExport:   infrapdf.NewMarotoPriceList(),
		MaxUploadMB: cfg.HTTP.MaxUploadMB,
		JWTSecret:   cfg.JWT.Secret,
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

// openStore abre el almacenamiento configurado. El cierre devuelto nunca es nil.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, func()) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		if cfg.DB.AutoMigrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Strs("files", applied).Msg("migraciones aplicadas")
		}
		return postgres.NewStore(pool), pool.Close

	case config.DriverMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return memory.NewStore(), func() {}

	case config.DriverCSV:
		enc, err := csvstore.ParseEncoding(cfg.Store.Encoding)
		if err != nil {
			log.Fatal().Err(err).Msg("STORE_ENCODING")
		}
		cs, err := csvstore.New(cfg.Store.DataDir, enc)
		if err != nil {
			log.Fatal().Err(err).Msg("directorio de datos")
		}
		log.Info().Str("dir", cs.Dir()).Str("encoding", string(enc)).Msg("almacenamiento CSV")
		return cs.Repositories(), func() {}

	default:
		log.Fatal().Str("driver", cfg.Store.Driver).Msg("STORE_DRIVER no soportado")
		return repository.Store{}, func() {}
	}
}
