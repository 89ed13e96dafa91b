package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/platform/logging"
)

// ProjectionConfig tunes the box-score backfill.
type ProjectionConfig struct {
	// MaxPrefetch bounds how many box-score weeks are fetched from the
	// upstream concurrently. Merging stays sequential in week order.
	MaxPrefetch int
}

func (c ProjectionConfig) withDefaults() ProjectionConfig {
	if c.MaxPrefetch <= 0 {
		c.MaxPrefetch = 3
	}
	return c
}

// ProjectionReport summarizes one backfill run.
type ProjectionReport struct {
	Weeks          []int `json:"weeks"`
	SkippedWeeks   []int `json:"skipped_weeks,omitempty"`
	UpdatedEntries int   `json:"updated_entries"`
	FailedEntries  int   `json:"failed_entries"`
}

// ProjectionService backfills weekly projections from league box scores.
// Regular player cards stop carrying projections once a week has been
// played; box scores keep both the actual and the projected line, so a
// second pass over them fills the holes the synchronizer leaves behind.
type ProjectionService struct {
	provider   UpstreamProvider
	store      SyncStore
	playerRepo player.Repository
	statsRepo  playerstats.Repository
	cfg        ProjectionConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewProjectionService(provider UpstreamProvider, store SyncStore, playerRepo player.Repository, statsRepo playerstats.Repository, cfg ProjectionConfig, logger *logging.Logger) *ProjectionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProjectionService{
		provider:   provider,
		store:      store,
		playerRepo: playerRepo,
		statsRepo:  statsRepo,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		now:        time.Now,
	}
}

// FillProjections processes the given weeks, or every week with a
// projection gap when weeks is empty. A week whose box scores cannot be
// fetched is skipped; a single bad lineup entry never aborts the week.
func (s *ProjectionService) FillProjections(ctx context.Context, weeks []int) (ProjectionReport, error) {
	ctx, span := startUsecaseSpan(ctx, "ProjectionService.FillProjections")
	defer span.End()

	var report ProjectionReport

	if len(weeks) == 0 {
		var err error
		weeks, err = s.missingProjectionWeeks(ctx)
		if err != nil {
			return report, err
		}
	}
	weeks = dedupeWeeks(weeks)
	report.Weeks = weeks
	span.SetAttributes(attribute.IntSlice("projection.weeks", weeks))
	if len(weeks) == 0 {
		return report, nil
	}

	fetched, fetchErrs, err := s.prefetchBoxScores(ctx, weeks)
	if err != nil {
		return report, err
	}

	for _, wk := range weeks {
		if ferr := fetchErrs[wk]; ferr != nil {
			s.logger.WarnContext(ctx, "box scores unavailable, skipping week", "week", wk, "error", ferr)
			report.SkippedWeeks = append(report.SkippedWeeks, wk)
			continue
		}
		for _, matchup := range fetched[wk] {
			for _, entry := range append(matchup.HomeLineup, matchup.AwayLineup...) {
				if err := s.applyLineupEntry(ctx, wk, entry); err != nil {
					s.logger.WarnContext(ctx, "failed to apply lineup entry", "week", wk, "player_id", entry.PlayerID, "name", entry.Name, "error", err)
					report.FailedEntries++
					continue
				}
				report.UpdatedEntries++
			}
		}
	}

	s.logger.InfoContext(ctx, "projection backfill finished",
		"weeks", len(report.Weeks),
		"skipped_weeks", len(report.SkippedWeeks),
		"updated_entries", report.UpdatedEntries,
		"failed_entries", report.FailedEntries,
	)
	return report, nil
}

// prefetchBoxScores pulls all requested weeks through a bounded worker
// pool so a long backfill does not serialize on upstream latency.
func (s *ProjectionService) prefetchBoxScores(ctx context.Context, weeks []int) (map[int][]Matchup, map[int]error, error) {
	pool, err := ants.NewPool(s.cfg.MaxPrefetch)
	if err != nil {
		return nil, nil, fmt.Errorf("create prefetch pool: %w", err)
	}
	defer pool.Release()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		fetched  = make(map[int][]Matchup, len(weeks))
		fetchErr = make(map[int]error, len(weeks))
	)
	for _, wk := range weeks {
		wk := wk
		wg.Add(1)
		task := func() {
			defer wg.Done()
			matchups, err := s.provider.BoxScores(ctx, wk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fetchErr[wk] = err
				return
			}
			fetched[wk] = matchups
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			mu.Lock()
			fetchErr[wk] = err
			mu.Unlock()
		}
	}
	wg.Wait()
	return fetched, fetchErr, nil
}

// missingProjectionWeeks diffs the per-week count of players holding a
// positive projection against the full player count, up to one week past
// the current scoring period.
func (s *ProjectionService) missingProjectionWeeks(ctx context.Context) ([]int, error) {
	current, err := s.provider.CurrentWeek(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "current week unavailable, assuming full season", "error", err)
		current = playerstats.MaxWeek
	}
	maxWeek := current + 1
	if maxWeek > playerstats.MaxWeek {
		maxWeek = playerstats.MaxWeek
	}

	total, err := s.playerRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}
	counts, err := s.statsRepo.ProjectedWeekCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projected week counts: %w", err)
	}

	var weeks []int
	for wk := playerstats.MinWeek; wk <= maxWeek; wk++ {
		if counts[wk] < total {
			weeks = append(weeks, wk)
		}
	}
	return weeks, nil
}

// applyLineupEntry folds one box-score line into the store, creating a
// minimal identity row for players the synchronizer has not seen.
func (s *ProjectionService) applyLineupEntry(ctx context.Context, week int, entry LineupEntry) error {
	snap := PlayerSnapshot{
		PlayerID: entry.PlayerID,
		Name:     entry.Name,
		Position: entry.Position,
		ProTeam:  entry.ProTeam,
		Stats: map[int]WeekObservation{
			week: {
				Points:             entry.Points,
				ProjectedPoints:    entry.ProjectedPoints,
				Breakdown:          entry.Breakdown,
				ProjectedBreakdown: entry.ProjectedBreakdown,
			},
		},
	}
	id, err := ResolveSnapshotID(snap)
	if err != nil {
		return err
	}
	snap.PlayerID = id

	bundle, found, err := s.store.GetBundle(ctx, id)
	if err != nil {
		return fmt.Errorf("load bundle for player %d: %w", id, err)
	}
	if !found {
		standIn := MergePlayer(nil, snap, false, s.now())
		if err := standIn.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEntity, err)
		}
		if err := s.store.EnsurePlayer(ctx, standIn); err != nil {
			return fmt.Errorf("insert stand-in player %d: %w", id, err)
		}
		bundle = PlayerBundle{Player: standIn}
	}

	merged := MergeBundle(&bundle, snap, false, s.now())
	// Lineup entries carry no injury or ownership data; the identity row
	// stays whatever the synchronizer last wrote.
	merged.Player = bundle.Player
	return s.store.SaveBundle(ctx, merged)
}

func dedupeWeeks(weeks []int) []int {
	seen := make(map[int]struct{}, len(weeks))
	out := make([]int, 0, len(weeks))
	for _, wk := range weeks {
		if wk < playerstats.MinWeek || wk > playerstats.MaxWeek {
			continue
		}
		if _, ok := seen[wk]; ok {
			continue
		}
		seen[wk] = struct{}{}
		out = append(out, wk)
	}
	sort.Ints(out)
	return out
}
