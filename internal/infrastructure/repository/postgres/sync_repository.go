package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lowrey/playerdb/internal/domain/player"
	qb "github.com/lowrey/playerdb/internal/platform/querybuilder"
	"github.com/lowrey/playerdb/internal/usecase"
)

const playerUpsertSuffix = `ON CONFLICT (player_id) DO UPDATE SET
	name = EXCLUDED.name,
	position = EXCLUDED.position,
	pro_team = EXCLUDED.pro_team,
	pos_rank = EXCLUDED.pos_rank,
	eligible_slots = EXCLUDED.eligible_slots,
	injury_status = EXCLUDED.injury_status,
	injured = EXCLUDED.injured,
	total_points = EXCLUDED.total_points,
	projected_total_points = EXCLUDED.projected_total_points,
	avg_points = EXCLUDED.avg_points,
	projected_avg_points = EXCLUDED.projected_avg_points,
	percent_owned = EXCLUDED.percent_owned,
	percent_started = EXCLUDED.percent_started,
	headshot_url = EXCLUDED.headshot_url,
	updated_at = EXCLUDED.updated_at`

const weeklyStatUpsertSuffix = `ON CONFLICT (player_id, week) DO UPDATE SET
	points = EXCLUDED.points,
	projected_points = EXCLUDED.projected_points,
	avg_points = EXCLUDED.avg_points,
	breakdown = EXCLUDED.breakdown,
	projected_breakdown = EXCLUDED.projected_breakdown`

const seasonTotalsUpsertSuffix = `ON CONFLICT (player_id) DO UPDATE SET
	points = EXCLUDED.points,
	projected_points = EXCLUDED.projected_points,
	avg_points = EXCLUDED.avg_points,
	projected_avg_points = EXCLUDED.projected_avg_points,
	breakdown = EXCLUDED.breakdown,
	projected_breakdown = EXCLUDED.projected_breakdown`

const scheduleUpsertSuffix = `ON CONFLICT (player_id, week) DO UPDATE SET
	opponent_team = EXCLUDED.opponent_team,
	game_date = EXCLUDED.game_date`

// SyncRepository is the write side of the store. Merge decisions happen
// in the use case layer; rows arriving here are final and the upserts
// overwrite every column.
type SyncRepository struct {
	db       *sqlx.DB
	players  *PlayerRepository
	stats    *PlayerStatsRepository
	schedule *ScheduleRepository
}

func NewSyncRepository(db *sqlx.DB) *SyncRepository {
	return &SyncRepository{
		db:       db,
		players:  NewPlayerRepository(db),
		stats:    NewPlayerStatsRepository(db),
		schedule: NewScheduleRepository(db),
	}
}

func (r *SyncRepository) GetBundle(ctx context.Context, playerID int64) (usecase.PlayerBundle, bool, error) {
	p, found, err := r.players.GetByID(ctx, playerID)
	if err != nil {
		return usecase.PlayerBundle{}, false, err
	}
	if !found {
		return usecase.PlayerBundle{}, false, nil
	}

	bundle := usecase.PlayerBundle{Player: p}
	if bundle.Weekly, err = r.stats.ListWeeklyByPlayer(ctx, playerID); err != nil {
		return usecase.PlayerBundle{}, false, err
	}
	totals, found, err := r.stats.GetSeasonTotals(ctx, playerID)
	if err != nil {
		return usecase.PlayerBundle{}, false, err
	}
	if found {
		bundle.Season = &totals
	}
	if bundle.Schedule, err = r.schedule.ListByPlayer(ctx, playerID); err != nil {
		return usecase.PlayerBundle{}, false, err
	}
	return bundle, true, nil
}

// SaveBundle writes the whole bundle in one transaction so a player is
// never persisted half updated.
func (r *SyncRepository) SaveBundle(ctx context.Context, bundle usecase.PlayerBundle) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save bundle tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	playerRow, err := newPlayerTableModel(bundle.Player)
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModel("players", playerRow, playerUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert player query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player %d: %w", bundle.Player.ID, err)
	}

	for _, stat := range bundle.Weekly {
		row, err := newWeeklyStatTableModel(stat)
		if err != nil {
			return err
		}
		query, args, err := qb.InsertModel("player_weekly_stats", row, weeklyStatUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert weekly stat query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert weekly stat player=%d week=%d: %w", stat.PlayerID, stat.Week, err)
		}
	}

	if bundle.Season != nil {
		row, err := newSeasonTotalsTableModel(*bundle.Season)
		if err != nil {
			return err
		}
		query, args, err := qb.InsertModel("player_season_totals", row, seasonTotalsUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert season totals query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert season totals player=%d: %w", bundle.Player.ID, err)
		}
	}

	for _, entry := range bundle.Schedule {
		row := newScheduleTableModel(entry)
		query, args, err := qb.InsertModel("player_schedule", row, scheduleUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert schedule query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert schedule player=%d week=%d: %w", entry.PlayerID, entry.Week, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save bundle tx: %w", err)
	}
	return nil
}

// EnsurePlayer inserts an identity row only when none exists.
func (r *SyncRepository) EnsurePlayer(ctx context.Context, p player.Player) error {
	row, err := newPlayerTableModel(p)
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModel("players", row, "ON CONFLICT (player_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build ensure player query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ensure player %d: %w", p.ID, err)
	}
	return nil
}
