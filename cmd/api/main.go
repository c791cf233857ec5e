// @title           Portal Intranet API
// @version         1.0
// @description     Usuários, documentos, BI, formulários, IA e integrações da intranet.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/portal-intranet/docs"
	"github.com/jhoicas/portal-intranet/internal/application/auth"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	infraai "github.com/jhoicas/portal-intranet/internal/infrastructure/ai"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/altforce"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/cache"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/directory"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/events"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/extract"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/mail"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/metrics"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/office"
	infrapdf "github.com/jhoicas/portal-intranet/internal/infrastructure/pdf"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/postgres"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/powerbi"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/rhapi"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/sqlhub"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/portal-intranet/internal/interfaces/http"
	"github.com/jhoicas/portal-intranet/pkg/config"
	"github.com/jhoicas/portal-intranet/pkg/logger"
	"github.com/jhoicas/portal-intranet/pkg/secretbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		n, err := postgres.Migrate(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Int("applied", n).Msg("migraciones aplicadas")
	}

	integrations := usecase.NewIntegrationService(cfg)
	for _, st := range integrations.Status() {
		log.Info().Str("integration", st.Name).Bool("enabled", st.Enabled).Msg("integración")
	}

	// repositorios
	userRepo := postgres.NewUserRepository(pool)
	groupRepo := postgres.NewGroupRepository(pool)
	docRepo := postgres.NewDocumentRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	notifRepo := postgres.NewNotificationRepository(pool)
	biRepo := postgres.NewBIRepository(pool)
	formRepo := postgres.NewFormRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	altforceRepo := postgres.NewAltForceRepository(pool)
	epiRepo := postgres.NewEPIRepository(pool)
	sqlhubRepo := postgres.NewSQLHubRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// adaptadores
	files, err := storage.NewLocal(cfg.App.MediaRoot)
	if err != nil {
		log.Fatal().Err(err).Str("media_root", cfg.App.MediaRoot).Msg("almacenamiento de archivos")
	}
	extractor := extract.New()
	reports := infrapdf.NewMarotoRenderer(cfg.App.Name)
	bus, err := events.NewBus(log)
	if err != nil {
		log.Fatal().Err(err).Msg("bus de eventos")
	}

	var dir ports.Directory
	if integrations.IsEnabled(usecase.IntegrationLDAP) {
		dir = directory.NewDirectory(cfg.LDAP)
	}
	var mailer ports.Mailer
	if integrations.IsEnabled(usecase.IntegrationMail) {
		mailer = mail.NewSMTPMailer(cfg.Mail)
	}
	var pbi ports.PowerBIClient
	if integrations.IsEnabled(usecase.IntegrationPowerBI) {
		pbi = powerbi.NewClient(cfg.PowerBI, log)
	}
	var afClient ports.AltForceClient
	if integrations.IsEnabled(usecase.IntegrationAltForce) {
		afClient = altforce.NewClient(cfg.AltForce, log)
	}
	var hr ports.HRClient
	if integrations.IsEnabled(usecase.IntegrationRH) {
		hr = rhapi.NewClient(cfg.RH, log)
	}
	var box *secretbox.Box
	if integrations.IsEnabled(usecase.IntegrationSQLHub) {
		if box, err = secretbox.New(cfg.SQLHub.SecretKey); err != nil {
			log.Fatal().Err(err).Msg("SQLHUB_SECRET_KEY inválida")
		}
	}

	var llm ports.LLMService = infraai.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	if strings.EqualFold(cfg.AI.Provider, "anthropic") {
		llm = infraai.NewAnthropicService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	}
	usdToBRL, err := decimal.NewFromString(cfg.AI.USDToBRL)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.AI.USDToBRL).Msg("AI_USD_TO_BRL inválido")
	}

	// casos de uso
	authUC := auth.NewAuthUseCase(userRepo, dir, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	userUC := usecase.NewUserUseCase(userRepo, groupRepo, log)
	documentUC := usecase.NewDocumentUseCase(docRepo, categoryRepo, txRunner, files,
		office.NewConverter(cfg.Office, log), extractor, bus, log)
	notificationUC := usecase.NewNotificationUseCase(notifRepo, userRepo, mailer, cfg.App.BaseURL, log)
	biUC := usecase.NewBIUseCase(biRepo, userRepo, pbi, cache.NewKeyLocker(1024, cfg.PowerBI.RefreshLockTTL), cfg.App.BaseURL, log)
	formUC := usecase.NewFormUseCase(formRepo, userRepo, txRunner, files, reports, log)
	aiUC := usecase.NewAIUseCase(chatRepo, docRepo, llm, extractor, usdToBRL, log)
	syncUC := usecase.NewAltForceSyncUseCase(afClient, altforceRepo, metrics.Sync{}, usecase.AltForceSyncConfig{
		DefaultDays:  cfg.AltForce.DefaultDays,
		ChunkDays:    cfg.AltForce.ChunkDays,
		Overlap:      time.Duration(cfg.AltForce.OverlapMinutes) * time.Minute,
		Pause:        cfg.AltForce.SleepBetween,
		BackfillDays: cfg.AltForce.BackfillDays,
		MaxWindows:   cfg.AltForce.MaxWindows,
	}, log)
	epiUC := usecase.NewEPIUseCase(epiRepo, hr, txRunner, reports, log).WithMetrics(metrics.Sync{})
	sqlhubUC := usecase.NewSQLHubUseCase(sqlhubRepo, sqlhub.NewExecutor(cfg.SQLHub.QueryLimit, log), box, usecase.SQLHubConfig{
		SoftMax:  cfg.SQLHub.SoftMax,
		CacheTTL: cfg.SQLHub.CacheTTL,
	}, log)

	// los avisos de documentos se procesan fuera del request
	bus.OnDocumentStatusChanged("notificacoes", func(ctx context.Context, ev ports.DocumentStatusChanged) error {
		_, err := notificationUC.HandleDocumentStatusChanged(ctx, ev)
		return err
	})
	go func() {
		if err := bus.Run(ctx); err != nil {
			log.Error().Err(err).Msg("bus de eventos finalizado")
		}
	}()
	<-bus.Running()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Minute * 3,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(httpRouter.MetricsMiddleware())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FilePath:    "./docs/swagger.json",
		FileContent: docs.JSON(),
		Path:        "docs",
		Title:       "Portal Intranet API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", httpRouter.MetricsHandler())

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		UserUC:         userUC,
		DocumentUC:     documentUC,
		NotificationUC: notificationUC,
		BIUC:           biUC,
		FormUC:         formUC,
		AIUC:           aiUC,
		SyncUC:         syncUC,
		EPIUC:          epiUC,
		SQLHubUC:       sqlhubUC,
		Integrations:   integrations,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := bus.Close(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("cierre del bus de eventos")
	}

	log.Info().Msg("aplicación detenida")
}
