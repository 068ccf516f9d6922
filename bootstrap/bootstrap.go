// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/artpar/jsonview/adapters/clock"
	apihttp "github.com/artpar/jsonview/adapters/http"
	"github.com/artpar/jsonview/adapters/httpclient"
	"github.com/artpar/jsonview/adapters/idgen"
	"github.com/artpar/jsonview/adapters/memory"
	"github.com/artpar/jsonview/adapters/metrics"
	"github.com/artpar/jsonview/adapters/sqlite"
	"github.com/artpar/jsonview/app"
	"github.com/artpar/jsonview/config"
	"github.com/artpar/jsonview/core/builder"
	"github.com/artpar/jsonview/core/handler"
	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/core/mapper"
	"github.com/artpar/jsonview/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Links     *link.Provider
	Resolver  *link.Resolver
	Mappers   []*mapper.Mapper
	Handlers  *handler.Registry
	Builder   *builder.Builder
	Responder *apihttp.Responder
	People    *app.PeopleService

	mu      sync.RWMutex
	clients map[string]*httpclient.Client
}

// Options configure application initialization.
type Options struct {
	// Version is reported by the /version endpoint.
	Version string

	// LogOutput receives log lines. Default: os.Stdout.
	LogOutput io.Writer

	// Registry collects the application metrics. Default: a fresh registry
	// with the Go and process collectors.
	Registry *prometheus.Registry
}

// New creates the application from an already loaded configuration.
// Hot reload is not available.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := setupLogger(cfg.Logging, opts.LogOutput)
	return newApp(config.NewStaticHolder(cfg, logger), logger, opts)
}

// NewWithHotReload loads the configuration file at path and reloads it when
// the file changes or the process receives SIGHUP.
func NewWithHotReload(path string, opts Options) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.Logging, opts.LogOutput)

	holder, err := config.NewHolder(path, logger.With().Str("component", "config").Logger())
	if err != nil {
		return nil, err
	}

	a, err := newApp(holder, logger, opts)
	if err != nil {
		holder.Stop()
		return nil, err
	}

	holder.OnChange(a.applyConfig)
	if err := holder.WatchFile(); err != nil {
		logger.Warn().Err(err).Msg("config file watching disabled")
	}
	holder.WatchSignals()

	return a, nil
}

func newApp(holder *config.Holder, logger zerolog.Logger, opts Options) (*App, error) {
	cfg := holder.Get()

	logger.Info().Str("version", opts.Version).Msg("initializing jsonview")

	a := &App{
		Logger: logger,
		Config: holder,
	}

	// Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := opts.Registry
		if reg == nil {
			reg = prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}
		a.Metrics = metrics.NewWithRegistry(reg)
		metricsHandler = apihttp.MetricsHandler(reg)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	// Links
	repos := Repositories(cfg)
	a.Links = link.NewProvider()
	a.Links.Replace(asRepositories(repos))
	a.Resolver = link.NewResolver(a.Links)

	// Document building
	mappers, err := buildMappers(cfg, a.Resolver)
	if err != nil {
		return nil, err
	}
	a.Mappers = mappers
	a.Handlers = newRegistry(mappers)
	a.Builder = builder.New(a.Handlers, a.Resolver)

	responderOpts := []apihttp.Option{
		apihttp.WithLogger(logger.With().Str("component", "responder").Logger()),
		apihttp.WithErrorClassifier(app.ClassifyError),
	}
	if a.Metrics != nil {
		responderOpts = append(responderOpts, apihttp.WithMetrics(a.Metrics))
	}
	a.Responder = apihttp.NewResponder(a.Builder, responderOpts...)

	// Outbound clients
	clients, err := buildClients(cfg, repos, logger, a.Metrics)
	if err != nil {
		return nil, err
	}
	a.clients = clients

	// Demo service
	people, teams, err := a.initStores(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	ids, err := idgen.New(cfg.Database.IDGenerator)
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("database.id_generator: %w", err)
	}
	a.People = app.NewPeopleService(people, teams, ids, clock.Real{}, a.Resolver,
		logger.With().Str("component", "people").Logger())

	if cfg.Database.Seed {
		if err := a.People.Seed(context.Background()); err != nil {
			a.closeDB()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	// HTTP server
	router := apihttp.NewRouter(logger, apihttp.RouterConfig{
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		Version:        opts.Version,
	}, a.People.Routes(a.Responder))

	a.HTTPServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info().
		Int("mappers", len(a.Mappers)).
		Strs("repositories", a.Links.Aliases()).
		Int("clients", len(clients)).
		Str("database", cfg.Database.Driver).
		Msg("application wired")

	return a, nil
}

func (a *App) initStores(cfg config.DatabaseConfig) (ports.PersonStore, ports.TeamStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		a.Logger.Info().Str("dsn", cfg.DSN).Msg("sqlite store ready")
		return sqlite.NewPersonStore(db), sqlite.NewTeamStore(db), nil
	case config.DriverMemory:
		return memory.NewPersonStore(), memory.NewTeamStore(), nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// Client returns the outbound client configured under name.
func (a *App) Client(name string) (*httpclient.Client, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.clients[name]
	return c, ok
}

// Handler returns the HTTP handler serving the application.
func (a *App) Handler() http.Handler {
	return a.HTTPServer.Handler
}

// applyConfig rebuilds the link repositories and outbound clients after a
// configuration reload. Server, database and mapper settings need a restart.
func (a *App) applyConfig(cfg *config.Config) {
	err := a.reload(cfg)
	if a.Metrics != nil {
		a.Metrics.RecordReload(err, time.Now())
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("applying reloaded config failed, keeping previous wiring")
		return
	}
	a.Logger.Info().Strs("repositories", a.Links.Aliases()).Msg("link repositories reloaded")
}

func (a *App) reload(cfg *config.Config) error {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	repos := Repositories(cfg)
	clients, err := buildClients(cfg, repos, a.Logger, a.Metrics)
	if err != nil {
		return err
	}

	a.Links.Replace(asRepositories(repos))

	a.mu.Lock()
	a.clients = clients
	a.mu.Unlock()
	return nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Config != nil {
		a.Config.Stop()
	}

	var err error
	if a.HTTPServer != nil {
		if serr := a.HTTPServer.Shutdown(ctx); serr != nil {
			a.Logger.Error().Err(serr).Msg("http server shutdown error")
			err = serr
		}
	}

	a.closeDB()

	a.Logger.Info().Msg("shutdown complete")
	return err
}

func (a *App) closeDB() {
	if a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("database close error")
	}
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
