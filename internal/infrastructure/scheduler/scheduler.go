// Package scheduler ejecuta los jobs periódicos del worker bajo un supervisor suture.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"

	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// ErrUnknownJob nombre de job no registrado.
var ErrUnknownJob = errors.New("job desconhecido")

// Job unidad de trabajo periódica. Run devuelve un resumen serializable.
type Job struct {
	Name       string
	Every      time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) (any, error)
}

// tickerService adapta un Job a suture.Service.
type tickerService struct {
	job Job
	log *logger.Logger
	now func() time.Time
}

func (s *tickerService) String() string { return "job:" + s.job.Name }

// Serve corre el job en cada tick; un error de ejecución se loguea y no reinicia el servicio.
func (s *tickerService) Serve(ctx context.Context) error {
	if s.job.Every <= 0 {
		return suture.ErrDoNotRestart
	}
	if s.job.RunOnStart {
		s.runOnce(ctx)
	}
	t := time.NewTicker(s.job.Every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.runOnce(ctx)
		}
	}
}

func (s *tickerService) runOnce(ctx context.Context) {
	started := s.now()
	summary, err := s.job.Run(ctx)
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Error().Err(err)
	}
	ev.Str("job", s.job.Name).Dur("took", s.now().Sub(started)).Interface("summary", summary).Msg("job executado")
}

// Scheduler registro de jobs y supervisor.
type Scheduler struct {
	jobs map[string]Job
	sup  *suture.Supervisor
	log  *logger.Logger
}

// New crea el supervisor raíz con backoff ante fallas repetidas.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("scheduler")
	sup := suture.New("portal-worker", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Warn().Interface("details", e.Map()).Msg(e.String())
		},
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	return &Scheduler{jobs: map[string]Job{}, sup: sup, log: log}
}

// Register agrega un job; un intervalo <= 0 lo deja disponible sólo para RunOnce.
func (s *Scheduler) Register(job Job) {
	s.jobs[job.Name] = job
	if job.Every > 0 {
		s.sup.Add(&tickerService{job: job, log: s.log, now: time.Now})
	}
}

// AddService supervisa un servicio adicional (p. ej. el endpoint de métricas).
func (s *Scheduler) AddService(svc suture.Service) {
	s.sup.Add(svc)
}

// Names jobs registrados en orden alfabético.
func (s *Scheduler) Names() []string {
	out := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RunOnce ejecuta un job una vez, fuera del supervisor.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (any, error) {
	job, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (disponíveis: %v)", ErrUnknownJob, name, s.Names())
	}
	return job.Run(ctx)
}

// Serve bloquea hasta que ctx se cancela.
func (s *Scheduler) Serve(ctx context.Context) error {
	return s.sup.Serve(ctx)
}

// MetricsService expone /metrics de Prometheus como servicio supervisado.
type MetricsService struct {
	Addr string
}

func (m MetricsService) String() string { return "metrics:" + m.Addr }

// Serve sirve hasta que ctx se cancela.
func (m MetricsService) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: m.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
