package sensorstat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ghalamif/SensorStat/internal/adapters/chart"
	"github.com/ghalamif/SensorStat/internal/adapters/history"
	"github.com/ghalamif/SensorStat/internal/adapters/observability"
	"github.com/ghalamif/SensorStat/internal/adapters/source"
	"github.com/ghalamif/SensorStat/internal/adapters/telegram"
	"github.com/ghalamif/SensorStat/internal/app/pipeline"
	"github.com/ghalamif/SensorStat/internal/app/report"
	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source        SensorSource
	history       HistoryStore
	trend         TrendRenderer
	notifier      Notifier
	observability Observability
	logger        *slog.Logger
}

// WithSource replaces the Postgres gateway, e.g. with a fixture or another backend.
func WithSource(s SensorSource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = s
	}
}

// WithHistory replaces the SQLite history store.
func WithHistory(h HistoryStore) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.history = h
	}
}

// WithTrendRenderer replaces the go-chart renderer.
func WithTrendRenderer(t TrendRenderer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.trend = t
	}
}

// WithNotifier replaces the Telegram bot for outbound messages. Inbound
// commands are only served by the built-in bot, so a runtime with a custom
// notifier runs the scheduler alone.
func WithNotifier(n Notifier) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.notifier = n
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithLogger sets the logger of the default Prometheus observability backend.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.logger = l
	}
}

// Runtime wires sources, history, reporting and the chat transport together
// and exposes lifecycle hooks for embedding SensorStat inside any Go service.
type Runtime struct {
	cfg        *Config
	obs        ports.Observability
	source     ports.SensorSource
	history    ports.HistoryStore
	trend      ports.TrendRenderer
	notifier   ports.Notifier
	bot        *telegram.Bot
	monitor    *pipeline.Monitor
	dispatcher *pipeline.Dispatcher
	closers    []io.Closer
	metricsSrv *http.Server
}

// core is the part of the runtime shared with one-shot reports.
type core struct {
	obs     ports.Observability
	source  ports.SensorSource
	history ports.HistoryStore
	closers []io.Closer
}

func openCore(cfg *Config, o runtimeOverrides) (*core, error) {
	c := &core{obs: o.observability}
	if c.obs == nil {
		c.obs = observability.NewPromObs(o.logger)
	}

	c.source = o.source
	if c.source == nil {
		gw, err := source.Open(cfg.Sources.Profiles, cfg.Sources.QueryTimeout, c.obs)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, gw)
		c.source = gw
		c.obs.LogInfo("sources_configured", ports.Field{Key: "sources", Value: gw.Names()})
	}

	c.history = o.history
	if c.history == nil {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			c.close()
			return nil, err
		}
		c.closers = append(c.closers, store)
		c.history = store
	}
	return c, nil
}

func (c *core) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func reportOptions(cfg *Config) report.Options {
	return report.Options{
		Location:  cfg.Location(),
		MaxLines:  cfg.Report.MaxLines,
		WrapWidth: cfg.Report.WrapWidth,
	}
}

func collectOverrides(opts []RuntimeOption) runtimeOverrides {
	var o runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// NewRuntime bootstraps the default adapters (Postgres gateway, SQLite history,
// go-chart renderer, Telegram bot, Prometheus observability). Any of them can
// be replaced with a RuntimeOption.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	o := collectOverrides(opts)

	c, err := openCore(cfg, o)
	if err != nil {
		return nil, err
	}

	trend := o.trend
	if trend == nil {
		trend = chart.NewRenderer(c.history, chart.Options{
			Location:     cfg.Location(),
			TickInterval: cfg.Trend.TickInterval,
			MaxYLabels:   cfg.Trend.MaxYLabels,
		})
	}

	var bot *telegram.Bot
	notifier := o.notifier
	if notifier == nil {
		if err := cfg.RequireTelegram(); err != nil {
			c.close()
			return nil, err
		}
		bot, err = telegram.Open(telegram.Config{Token: cfg.Telegram.Token, AllowedChat: cfg.Telegram.ChatID}, c.obs)
		if err != nil {
			c.close()
			return nil, err
		}
		notifier = bot
	}

	ropts := reportOptions(cfg)
	monitor := pipeline.NewMonitor(c.source, c.history, &pipeline.StateHolder{}, c.obs, cfg.Telegram.Title, ropts)
	return &Runtime{
		cfg:        cfg,
		obs:        c.obs,
		source:     c.source,
		history:    c.history,
		trend:      trend,
		notifier:   notifier,
		bot:        bot,
		monitor:    monitor,
		dispatcher: pipeline.NewDispatcher(monitor, trend, notifier, c.obs, cfg.Trend.Window, ropts),
		closers:    c.closers,
	}, nil
}

// Run starts the scheduler, the bot and the metrics server and blocks until
// ctx is cancelled. On cancellation it shuts everything down gracefully.
func (r *Runtime) Run(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.startMetrics()

	pass := pipeline.ScheduledRefresh{
		Monitor:   r.monitor,
		Timeout:   r.cfg.Schedule.PassTimeout,
		Retention: r.cfg.History.Retention,
	}
	if r.cfg.Schedule.Notify {
		pass.Notifier = r.notifier
		pass.ChatID = r.cfg.Telegram.ChatID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pipeline.RunScheduler(gctx, r.cfg.Schedule.Interval, pass.Run, r.obs)
		return nil
	})
	if r.bot != nil {
		g.Go(func() error {
			return r.bot.Serve(gctx, r.dispatcher)
		})
	}
	r.obs.LogInfo("runtime_started",
		ports.Field{Key: "interval", Value: r.cfg.Schedule.Interval.String()},
		ports.Field{Key: "metrics_addr", Value: r.cfg.Metrics.Addr})
	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(runErr, r.Shutdown(shutdownCtx))
}

// Handle runs one inbound command, for callers that bring their own transport.
func (r *Runtime) Handle(ctx context.Context, req ports.Request) error {
	return r.dispatcher.Handle(ctx, req)
}

// Refresh runs one pass for the default group without the scheduler.
func (r *Runtime) Refresh(ctx context.Context) (*Report, error) {
	return r.monitor.Refresh(ctx, domain.AllGroups())
}

// Shutdown stops the metrics server and closes the database handles.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		r.metricsSrv = nil
	}
	c := core{closers: r.closers}
	if err := c.close(); err != nil {
		errs = append(errs, err)
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Runtime) routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Handle("/metrics", r.metricsHandler())
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if r.monitor.State().Latest() == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("no completed pass"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// metricsHandler serves the registry of the built-in backend. Custom
// backends are expected to register with the default Prometheus registry.
func (r *Runtime) metricsHandler() http.Handler {
	if h, ok := r.obs.(interface{ Handler() http.Handler }); ok {
		return h.Handler()
	}
	return promhttp.Handler()
}

func (r *Runtime) startMetrics() {
	if r.cfg.Metrics.Addr == "" {
		return
	}
	r.metricsSrv = &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           r.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := r.metricsSrv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err)
		}
	}()
}

// RunReport performs one interactive-style pass for group (empty selects all
// groups) and returns the report. Nothing is scheduled and no bot is started.
func RunReport(ctx context.Context, cfg *Config, group string, opts ...RuntimeOption) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	c, err := openCore(cfg, collectOverrides(opts))
	if err != nil {
		return nil, err
	}
	defer c.close()

	sel := domain.AllGroups()
	if group != "" {
		sel = domain.Group(group)
	}
	if cfg.Schedule.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Schedule.PassTimeout)
		defer cancel()
	}
	m := pipeline.NewMonitor(c.source, c.history, nil, c.obs, cfg.Telegram.Title, reportOptions(cfg))
	return m.Refresh(ctx, sel)
}
