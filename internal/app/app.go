package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/lowrey/playerdb/external/espn"
	"github.com/lowrey/playerdb/internal/config"
	"github.com/lowrey/playerdb/internal/infrastructure/repository/postgres"
	"github.com/lowrey/playerdb/internal/interfaces/httpapi"
	"github.com/lowrey/playerdb/internal/platform/cache"
	"github.com/lowrey/playerdb/internal/platform/logging"
	"github.com/lowrey/playerdb/internal/platform/resilience"
	"github.com/lowrey/playerdb/internal/usecase"
)

// Services bundles the wired use cases so the API server and the sync
// command can share one construction path.
type Services struct {
	Query       *usecase.QueryService
	Sync        *usecase.SyncService
	Projections *usecase.ProjectionService
	Provider    usecase.UpstreamProvider
}

func BuildServices(cfg config.Config, db *sqlx.DB, logger *logging.Logger) Services {
	if logger == nil {
		logger = logging.Default()
	}

	playerRepo := postgres.NewPlayerRepository(db)
	statsRepo := postgres.NewPlayerStatsRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	syncRepo := postgres.NewSyncRepository(db)

	provider := espn.NewClient(espn.ClientConfig{
		BaseURL:    cfg.ESPNBaseURL,
		LeagueID:   cfg.ESPNLeagueID,
		SeasonYear: cfg.ESPNSeasonYear,
		ESPNS2:     cfg.ESPNS2,
		SWID:       cfg.ESPNSWID,
		Timeout:    cfg.ESPNTimeout,
		MaxRetries: cfg.ESPNMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ESPNCircuitEnabled,
			FailureThreshold: cfg.ESPNCircuitFailureCount,
			OpenTimeout:      cfg.ESPNCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ESPNCircuitHalfOpenMax,
		},
	})

	var cacheStore *cache.Store
	if cfg.CacheEnabled {
		cacheStore = cache.NewStore(cfg.CacheTTL)
	}

	return Services{
		Query: usecase.NewQueryService(playerRepo, statsRepo, scheduleRepo, cacheStore, logger),
		Sync: usecase.NewSyncService(provider, syncRepo, playerRepo, usecase.SyncConfig{
			FreeAgentPageSize: cfg.SyncFreeAgentPageSize,
			MinStatWeeks:      cfg.SyncMinStatWeeks,
		}, logger),
		Projections: usecase.NewProjectionService(provider, syncRepo, playerRepo, statsRepo, usecase.ProjectionConfig{
			MaxPrefetch: cfg.ProjectionMaxPrefetch,
		}, logger),
		Provider: provider,
	}
}

// App holds the wired HTTP server plus the resources it owns.
type App struct {
	Server   *http.Server
	DB       *sqlx.DB
	Services Services
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger, accessLogger *slog.Logger) (*App, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	services := BuildServices(cfg, db, logger)

	handler := httpapi.NewHandler(services.Query, services.Sync, services.Projections, services.Provider, accessLogger)
	router := httpapi.NewRouter(handler, accessLogger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server:   server,
		DB:       db,
		Services: services,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
