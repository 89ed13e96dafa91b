package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/domain/schedule"
	"github.com/lowrey/playerdb/internal/platform/cache"
	"github.com/lowrey/playerdb/internal/platform/logging"
)

const (
	defaultSearchLimit = 100
	maxSearchLimit     = 1000

	cacheKeyPrefix = "player"
)

// PlayerDetail is the full read model for one player: the identity row
// plus weekly stats, season totals and schedule keyed by week.
type PlayerDetail struct {
	Player       player.Player
	Stats        map[int]playerstats.WeeklyStat
	SeasonTotals *playerstats.SeasonTotals
	Schedule     map[int]schedule.Entry
}

// QueryService is the read surface over the local store. All reads are
// local; it never calls the upstream.
type QueryService struct {
	playerRepo   player.Repository
	statsRepo    playerstats.Repository
	scheduleRepo schedule.Repository
	cache        *cache.Store
	logger       *logging.Logger
}

// NewQueryService builds the read service. cacheStore may be nil to
// disable caching.
func NewQueryService(playerRepo player.Repository, statsRepo playerstats.Repository, scheduleRepo schedule.Repository, cacheStore *cache.Store, logger *logging.Logger) *QueryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &QueryService{
		playerRepo:   playerRepo,
		statsRepo:    statsRepo,
		scheduleRepo: scheduleRepo,
		cache:        cacheStore,
		logger:       logger,
	}
}

// Get assembles the full detail for one player. It returns ErrNotFound
// when the store has no such player.
func (s *QueryService) Get(ctx context.Context, playerID int64) (PlayerDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "QueryService.Get",
		trace.WithAttributes(attribute.Int64("player.id", playerID)))
	defer span.End()

	if playerID == 0 {
		return PlayerDetail{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	key := fmt.Sprintf("%s:detail:%d", cacheKeyPrefix, playerID)
	value, err := s.loadCached(ctx, key, func(ctx context.Context) (any, error) {
		return s.loadDetail(ctx, playerID)
	})
	if err != nil {
		return PlayerDetail{}, err
	}
	detail, ok := value.(PlayerDetail)
	if !ok {
		return s.loadDetail(ctx, playerID)
	}
	return detail, nil
}

func (s *QueryService) loadDetail(ctx context.Context, playerID int64) (PlayerDetail, error) {
	p, found, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("load player %d: %w", playerID, err)
	}
	if !found {
		return PlayerDetail{}, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}

	weekly, err := s.statsRepo.ListWeeklyByPlayer(ctx, playerID)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("load weekly stats for player %d: %w", playerID, err)
	}
	stats := make(map[int]playerstats.WeeklyStat, len(weekly))
	for _, row := range weekly {
		stats[row.Week] = row
	}

	detail := PlayerDetail{
		Player:   p,
		Stats:    stats,
		Schedule: map[int]schedule.Entry{},
	}

	totals, found, err := s.statsRepo.GetSeasonTotals(ctx, playerID)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("load season totals for player %d: %w", playerID, err)
	}
	if found {
		detail.SeasonTotals = &totals
	}

	entries, err := s.scheduleRepo.ListByPlayer(ctx, playerID)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("load schedule for player %d: %w", playerID, err)
	}
	for _, e := range entries {
		detail.Schedule[e.Week] = e
	}
	return detail, nil
}

// Search returns identity rows matching the filter, ordered by total
// points descending. Filters compose with AND semantics.
func (s *QueryService) Search(ctx context.Context, filter player.SearchFilter) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "QueryService.Search")
	defer span.End()

	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}
	if filter.Limit > maxSearchLimit {
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrInvalidInput, maxSearchLimit)
	}
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Position = strings.TrimSpace(filter.Position)
	filter.ProTeam = strings.TrimSpace(filter.ProTeam)

	key := fmt.Sprintf("%s:search:%s|%s|%s|%d", cacheKeyPrefix, strings.ToLower(filter.Name), filter.Position, filter.ProTeam, filter.Limit)
	value, err := s.loadCached(ctx, key, func(ctx context.Context) (any, error) {
		return s.playerRepo.Search(ctx, filter)
	})
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	players, ok := value.([]player.Player)
	if !ok {
		return s.playerRepo.Search(ctx, filter)
	}
	return players, nil
}

// Exists reports whether the store holds at least one player.
func (s *QueryService) Exists(ctx context.Context) (bool, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the number of stored players.
func (s *QueryService) Count(ctx context.Context) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "QueryService.Count")
	defer span.End()

	count, err := s.playerRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}

// InvalidateCache drops every cached read. The synchronizer jobs call
// this after a write pass so reads never serve a stale detail for the
// full TTL.
func (s *QueryService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePrefix(ctx, cacheKeyPrefix)
}

func (s *QueryService) loadCached(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if s.cache == nil {
		return loader(ctx)
	}
	return s.cache.GetOrLoad(ctx, key, loader)
}
