package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/platform/logging"
)

// Outcome labels for per-player sync results.
const (
	OutcomeInserted = "inserted"
	OutcomeUpdated  = "updated"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Pass labels identifying which sweep produced an outcome.
const (
	PassRostered  = "rostered"
	PassFreeAgent = "free_agent"
	PassBoxScore  = "box_score"
)

// SyncConfig tunes the synchronizer sweeps.
type SyncConfig struct {
	// FreeAgentPageSize is how many free agents to pull per position.
	FreeAgentPageSize int
	// MinStatWeeks marks a known player stale when it carries fewer
	// weekly rows with a nonzero point or projection value.
	MinStatWeeks int
	// Positions overrides the free-agent sweep order.
	Positions []string
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.FreeAgentPageSize <= 0 {
		c.FreeAgentPageSize = 500
	}
	if c.MinStatWeeks <= 0 {
		c.MinStatWeeks = 5
	}
	if len(c.Positions) == 0 {
		c.Positions = player.FreeAgentPositions
	}
	return c
}

// EntityOutcome records what the synchronizer did with one player.
type EntityOutcome struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Pass     string `json:"pass"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// SyncReport summarizes one synchronizer run.
type SyncReport struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Inserted   int             `json:"inserted"`
	Updated    int             `json:"updated"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Outcomes   []EntityOutcome `json:"outcomes,omitempty"`
}

func (r *SyncReport) record(o EntityOutcome) {
	switch o.Status {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// SyncService pulls the league rosters and the top free agents from the
// upstream and folds every observation into the local store. One bad
// player never aborts the run; only a failure to reach the store or to
// load the initial roster view is fatal.
type SyncService struct {
	provider   UpstreamProvider
	store      SyncStore
	playerRepo player.Repository
	cfg        SyncConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewSyncService(provider UpstreamProvider, store SyncStore, playerRepo player.Repository, cfg SyncConfig, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		provider:   provider,
		store:      store,
		playerRepo: playerRepo,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		now:        time.Now,
	}
}

// Sync runs the rostered pass followed by the free-agent pass. With force
// set, descriptive fields are rewritten and the cheap-skip of already
// known fresh players is disabled.
func (s *SyncService) Sync(ctx context.Context, force bool) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncService.Sync",
		trace.WithAttributes(attribute.Bool("sync.force", force)))
	defer span.End()

	report := SyncReport{StartedAt: s.now()}

	known, err := s.playerRepo.IDs(ctx)
	if err != nil {
		return report, fmt.Errorf("load known player ids: %w", err)
	}
	stale := map[int64]struct{}{}
	if !force {
		stale, err = s.playerRepo.IDsNeedingStats(ctx, s.cfg.MinStatWeeks)
		if err != nil {
			return report, fmt.Errorf("load stale player ids: %w", err)
		}
	}

	teams, err := s.provider.LeagueTeams(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch league rosters: %w", err)
	}

	processed := make(map[int64]struct{})
	for _, team := range teams {
		for _, snap := range team.Roster {
			s.syncRostered(ctx, snap, known, processed, &report)
		}
	}

	for _, pos := range s.cfg.Positions {
		agents, err := s.provider.FreeAgents(ctx, pos, s.cfg.FreeAgentPageSize)
		if err != nil {
			s.logger.WarnContext(ctx, "free agent sweep failed for position", "position", pos, "error", err)
			continue
		}
		for _, snap := range agents {
			s.syncFreeAgent(ctx, snap, force, known, stale, processed, &report)
		}
	}

	report.FinishedAt = s.now()
	s.logger.InfoContext(ctx, "sync finished",
		"inserted", report.Inserted,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// syncRostered always refreshes a rostered player, pulling the detailed
// card (with weekly stats and schedule) when the upstream can serve one.
func (s *SyncService) syncRostered(ctx context.Context, snap PlayerSnapshot, known, processed map[int64]struct{}, report *SyncReport) {
	id, err := ResolveSnapshotID(snap)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping malformed roster entry", "name", snap.Name, "error", err)
		report.record(EntityOutcome{Name: snap.Name, Pass: PassRostered, Status: OutcomeFailed, Reason: err.Error()})
		return
	}
	if _, done := processed[id]; done {
		return
	}
	processed[id] = struct{}{}
	snap.PlayerID = id

	detailed := s.detailOrFallback(ctx, id, snap)

	if err := s.apply(ctx, id, detailed, true); err != nil {
		// Retry with the thin roster view so at least identity survives
		// an oversized or partly broken detail payload.
		if err2 := s.apply(ctx, id, snap, true); err2 != nil {
			s.logger.ErrorContext(ctx, "failed to store rostered player", "player_id", id, "name", snap.Name, "error", err2)
			report.record(EntityOutcome{PlayerID: id, Name: snap.Name, Pass: PassRostered, Status: OutcomeFailed, Reason: err2.Error()})
			return
		}
	}
	report.record(EntityOutcome{PlayerID: id, Name: snap.Name, Pass: PassRostered, Status: insertedOrUpdated(id, known)})
}

// syncFreeAgent refreshes a free agent only when it is new, stale, or the
// run was forced. Skipping performs no store write at all.
func (s *SyncService) syncFreeAgent(ctx context.Context, snap PlayerSnapshot, force bool, known, stale, processed map[int64]struct{}, report *SyncReport) {
	id, err := ResolveSnapshotID(snap)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping malformed free agent entry", "name", snap.Name, "error", err)
		report.record(EntityOutcome{Name: snap.Name, Pass: PassFreeAgent, Status: OutcomeFailed, Reason: err.Error()})
		return
	}
	if _, done := processed[id]; done {
		return
	}
	processed[id] = struct{}{}
	snap.PlayerID = id

	_, isKnown := known[id]
	_, isStale := stale[id]
	if !force && isKnown && !isStale {
		report.record(EntityOutcome{PlayerID: id, Name: snap.Name, Pass: PassFreeAgent, Status: OutcomeSkipped, Reason: "fresh"})
		return
	}

	detailed := s.detailOrFallback(ctx, id, snap)

	if err := s.apply(ctx, id, detailed, force); err != nil {
		if err2 := s.apply(ctx, id, snap, force); err2 != nil {
			s.logger.ErrorContext(ctx, "failed to store free agent", "player_id", id, "name", snap.Name, "error", err2)
			report.record(EntityOutcome{PlayerID: id, Name: snap.Name, Pass: PassFreeAgent, Status: OutcomeFailed, Reason: err2.Error()})
			return
		}
	}
	report.record(EntityOutcome{PlayerID: id, Name: snap.Name, Pass: PassFreeAgent, Status: insertedOrUpdated(id, known)})
}

// detailOrFallback trades up to the full player card when possible.
// Defenses never have one, and a failed detail call just means we keep
// the thinner snapshot we already hold.
func (s *SyncService) detailOrFallback(ctx context.Context, id int64, snap PlayerSnapshot) PlayerSnapshot {
	if snap.Position == player.PositionDefense || id <= 0 {
		return snap
	}
	detail, found, err := s.provider.PlayerDetail(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "player detail unavailable, using roster view", "player_id", id, "error", err)
		return snap
	}
	if !found {
		return snap
	}
	detail.PlayerID = id
	return detail
}

func (s *SyncService) apply(ctx context.Context, id int64, snap PlayerSnapshot, force bool) error {
	bundle, found, err := s.store.GetBundle(ctx, id)
	if err != nil {
		return fmt.Errorf("load bundle for player %d: %w", id, err)
	}
	var existing *PlayerBundle
	if found {
		existing = &bundle
	}
	merged := MergeBundle(existing, snap, force, s.now())
	if err := merged.Player.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEntity, err)
	}
	return s.store.SaveBundle(ctx, merged)
}

func insertedOrUpdated(id int64, known map[int64]struct{}) string {
	if _, ok := known[id]; ok {
		return OutcomeUpdated
	}
	return OutcomeInserted
}
