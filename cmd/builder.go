package cmd

import (
	"context"
	"fmt"
	"net/http"

	"edusync/api"
	apicourse "edusync/api/course"
	"edusync/api/health"
	apimedia "edusync/api/media"
	"edusync/api/middleware"
	apiresult "edusync/api/result"
	courseapp "edusync/application/course"
	"edusync/application/lifecycle"
	mediaapp "edusync/application/media"
	resultapp "edusync/application/result"
	"edusync/config"
	"edusync/domain/course"
	"edusync/domain/result"
	"edusync/domain/shared"
	"edusync/domain/user"
	"edusync/infrastructure/blob"
	"edusync/infrastructure/eventstream"
	"edusync/infrastructure/observability"
	"edusync/infrastructure/persistence/gormstore"
	"edusync/infrastructure/persistence/mocks"
	"edusync/infrastructure/persistence/retry"
	"edusync/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// storage is the storage gateway selected by database.driver.
type storage struct {
	db          *gorm.DB // nil for the memory driver
	uow         shared.UnitOfWork
	courses     course.Repository
	assessments course.AssessmentRepository
	results     result.Repository
	users       user.Directory
	outbox      shared.OutboxRepository
}

// AppBuilder builds an App with customizable components
type AppBuilder struct {
	cfg          *config.Config
	controllers  []api.ControllerRegister
	middlewares  []api.MiddlewareRegister
	customRoutes []api.Route

	blobs    shared.BlobStore
	events   eventstream.Publisher
	registry *prometheus.Registry
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{
		cfg:          cfg,
		controllers:  []api.ControllerRegister{},
		middlewares:  []api.MiddlewareRegister{},
		customRoutes: []api.Route{},
	}
}

// WithController adds an authenticated controller
func (b *AppBuilder) WithController(c api.ControllerRegister) *AppBuilder {
	b.controllers = append(b.controllers, c)
	return b
}

// WithMiddleware adds a middleware to the app
func (b *AppBuilder) WithMiddleware(m api.MiddlewareRegister) *AppBuilder {
	b.middlewares = append(b.middlewares, m)
	return b
}

// WithRoute adds a custom route
func (b *AppBuilder) WithRoute(method, path string, handler gin.HandlerFunc) *AppBuilder {
	b.customRoutes = append(b.customRoutes, api.Route{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
	return b
}

// WithBlobStore overrides the configured blob provider.
func (b *AppBuilder) WithBlobStore(s shared.BlobStore) *AppBuilder {
	b.blobs = s
	return b
}

// WithEventPublisher overrides the configured events provider.
func (b *AppBuilder) WithEventPublisher(p eventstream.Publisher) *AppBuilder {
	b.events = p
	return b
}

// Build wires storage, gateways, the lifecycle coordinator and the HTTP
// surface. The logger must already be initialised.
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	logger.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env))

	store, err := openStorage(b.cfg)
	if err != nil {
		return nil, err
	}

	if b.blobs == nil {
		if b.blobs, err = blob.New(b.cfg.Blob); err != nil {
			return nil, fmt.Errorf("failed to create blob store: %w", err)
		}
		if ensurer, ok := b.blobs.(interface{ EnsureContainer(context.Context) error }); ok {
			if err := ensurer.EnsureContainer(ctx); err != nil {
				return nil, fmt.Errorf("failed to prepare blob container: %w", err)
			}
		}
	}
	if b.events == nil {
		if b.events, err = eventstream.New(b.cfg.Events); err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
	}

	b.registry = prometheus.NewRegistry()
	b.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer, err := observability.NewPrometheusObserver(observability.DefaultNamespace, b.registry)
	if err != nil {
		return nil, err
	}

	deps := lifecycle.Dependencies{
		UnitOfWork:  store.uow,
		Courses:     store.courses,
		Assessments: store.assessments,
		Results:     store.results,
		Users:       store.users,
		Blobs:       b.blobs,
		Events:      b.events,
		Observer:    observer,
	}
	if b.cfg.Events.OutboxFallback {
		deps.Undelivered = store.outbox
	}
	coordinator, err := lifecycle.NewCoordinator(deps, lifecycle.Options{
		BlobTimeout:               b.cfg.Blob.Timeout,
		PublishTimeout:            b.cfg.Events.PublishTimeout,
		ScopeResultsToCourseOwner: b.cfg.Auth.ScopeResultsToOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lifecycle coordinator: %w", err)
	}

	courseService := courseapp.NewApplicationService(store.courses, store.assessments, store.users, store.uow)
	resultService := resultapp.NewApplicationService(coordinator, store.results, store.assessments, store.users)
	mediaService := mediaapp.NewApplicationService(b.blobs)

	authenticator, err := middleware.NewAuthenticator(&b.cfg.Auth)
	if err != nil {
		return nil, err
	}

	protected := append([]api.ControllerRegister{
		apicourse.NewController(courseService, coordinator),
		apiresult.NewController(resultService),
		apimedia.NewController(mediaService, b.cfg.Server.MaxUploadBytes),
	}, b.controllers...)
	public := []api.ControllerRegister{
		health.NewController(b.cfg, healthCheckers(store)),
	}

	routes := b.customRoutes
	if b.cfg.Metrics.Enabled {
		routes = append(routes, api.Route{
			Method:  http.MethodGet,
			Path:    b.cfg.Metrics.Path,
			Handler: gin.WrapH(observability.Handler(b.registry)),
		})
	}

	router := api.NewRouter(b.cfg, public, protected, authenticator.Middleware(), b.middlewares, routes)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config: b.cfg,
		router: router,
		server: server,
		db:     store.db,
		events: b.events,
	}, nil
}

// openStorage connects the configured driver. The memory driver keeps
// everything in process and is meant for demos only.
func openStorage(cfg *config.Config) (*storage, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory persistence layer; data is lost on exit")
		mem := mocks.NewStore()
		return &storage{
			uow:         mocks.NewUnitOfWork(mem),
			courses:     mem.Courses(),
			assessments: mem.Assessments(),
			results:     mem.Results(),
			users:       mem.Users(),
			outbox:      mocks.NewMemoryOutbox(),
		}, nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return &storage{
		db:          db,
		uow:         gormstore.NewUnitOfWork(db, retry.FromAppConfig(cfg)),
		courses:     gormstore.NewCourseRepository(db),
		assessments: gormstore.NewAssessmentRepository(db),
		results:     gormstore.NewResultRepository(db),
		users:       gormstore.NewUserDirectory(db),
		outbox:      gormstore.NewOutboxRepository(db),
	}, nil
}

// openDatabase connects, pings and optionally migrates the relational store.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gormstore.FromAppConfig(&cfg.Database).Connect()
	if err != nil {
		return nil, err
	}
	if err := gormstore.Ping(context.Background(), db); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func healthCheckers(store *storage) map[string]health.Checker {
	if store.db == nil {
		return nil
	}
	db := store.db
	return map[string]health.Checker{
		"database": func(ctx context.Context) error {
			return gormstore.Ping(ctx, db)
		},
	}
}
