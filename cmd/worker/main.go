package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/altforce"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/cache"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/portal-intranet/internal/infrastructure/pdf"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/postgres"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/powerbi"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/rhapi"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/scheduler"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/sqlhub"
	"github.com/jhoicas/portal-intranet/pkg/config"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

func main() {
	runJob := flag.String("run", "", "executa um único job e imprime o resumo (ex.: altforce_sync_all)")
	metricsAddr := flag.String("metrics-addr", ":9091", "endereço do /metrics do worker")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "worker"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	integrations := usecase.NewIntegrationService(cfg)

	var afClient ports.AltForceClient
	if integrations.IsEnabled(usecase.IntegrationAltForce) {
		afClient = altforce.NewClient(cfg.AltForce, log)
	}
	var hr ports.HRClient
	if integrations.IsEnabled(usecase.IntegrationRH) {
		hr = rhapi.NewClient(cfg.RH, log)
	}
	var pbi ports.PowerBIClient
	if integrations.IsEnabled(usecase.IntegrationPowerBI) {
		pbi = powerbi.NewClient(cfg.PowerBI, log)
	}

	syncUC := usecase.NewAltForceSyncUseCase(afClient, postgres.NewAltForceRepository(pool), metrics.Sync{}, usecase.AltForceSyncConfig{
		DefaultDays:  cfg.AltForce.DefaultDays,
		ChunkDays:    cfg.AltForce.ChunkDays,
		Overlap:      time.Duration(cfg.AltForce.OverlapMinutes) * time.Minute,
		Pause:        cfg.AltForce.SleepBetween,
		BackfillDays: cfg.AltForce.BackfillDays,
		MaxWindows:   cfg.AltForce.MaxWindows,
	}, log)
	epiUC := usecase.NewEPIUseCase(postgres.NewEPIRepository(pool), hr, postgres.NewTxRunner(pool),
		infrapdf.NewMarotoRenderer(cfg.App.Name), log).WithMetrics(metrics.Sync{})
	biUC := usecase.NewBIUseCase(postgres.NewBIRepository(pool), postgres.NewUserRepository(pool), pbi,
		cache.NewKeyLocker(64, time.Minute), cfg.App.BaseURL, log)
	// la purga no abre conexiones externas: no necesita la clave de las senhas
	sqlhubUC := usecase.NewSQLHubUseCase(postgres.NewSQLHubRepository(pool), sqlhub.NewExecutor(cfg.SQLHub.QueryLimit, log), nil,
		usecase.SQLHubConfig{SoftMax: cfg.SQLHub.SoftMax, CacheTTL: cfg.SQLHub.CacheTTL}, log)

	sched := scheduler.New(log)
	sched.Register(scheduler.Job{
		Name:  "altforce_sync_all",
		Every: cfg.Scheduler.AltForceEvery,
		Run: func(ctx context.Context) (any, error) {
			return syncUC.SyncAll(ctx, 0)
		},
	})
	sched.Register(scheduler.Job{
		Name:  "altforce_customers",
		Every: cfg.Scheduler.CustomersEvery,
		Run: func(ctx context.Context) (any, error) {
			return syncUC.SyncCustomers(ctx)
		},
	})
	sched.Register(scheduler.Job{
		Name:  "sync_epi",
		Every: cfg.Scheduler.EPIEvery,
		Run: func(ctx context.Context) (any, error) {
			return epiUC.Sync(ctx)
		},
	})
	sched.Register(scheduler.Job{
		Name:  "bi_refresh_poll",
		Every: cfg.Scheduler.BIPollEvery,
		Run: func(ctx context.Context) (any, error) {
			updated, errs, err := biUC.PollAll(ctx)
			return map[string]any{"updated": updated, "errors": errs}, err
		},
	})
	sched.Register(scheduler.Job{
		Name:       "sqlhub_cache_purge",
		Every:      cfg.Scheduler.CachePurge,
		RunOnStart: true,
		Run: func(ctx context.Context) (any, error) {
			n, err := sqlhubUC.PurgeCache(ctx)
			return map[string]int64{"purged": n}, err
		},
	})

	if *runJob != "" {
		summary, err := sched.RunOnce(ctx, *runJob)
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))
		if err != nil {
			log.Error().Err(err).Str("job", *runJob).Msg("job falhou")
			os.Exit(1)
		}
		return
	}

	sched.AddService(scheduler.MetricsService{Addr: *metricsAddr})
	log.Info().Strs("jobs", sched.Names()).Str("metrics", *metricsAddr).Msg("worker iniciado")
	if err := sched.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("supervisor finalizado")
	}
	log.Info().Msg("worker detenido")
}
