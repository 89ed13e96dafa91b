package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lowrey/playerdb/internal/domain/playerstats"
	qb "github.com/lowrey/playerdb/internal/platform/querybuilder"
)

type PlayerStatsRepository struct {
	db *sqlx.DB
}

var weeklyStatSelectColumns = []string{
	"player_id",
	"week",
	"points",
	"projected_points",
	"avg_points",
	"breakdown",
	"projected_breakdown",
}

var seasonTotalsSelectColumns = []string{
	"player_id",
	"points",
	"projected_points",
	"avg_points",
	"projected_avg_points",
	"breakdown",
	"projected_breakdown",
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

func (r *PlayerStatsRepository) ListWeeklyByPlayer(ctx context.Context, playerID int64) ([]playerstats.WeeklyStat, error) {
	query, args, err := qb.Select(weeklyStatSelectColumns...).From("player_weekly_stats").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select weekly stats query: %w", err)
	}

	var rows []weeklyStatTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select weekly stats: %w", err)
	}

	out := make([]playerstats.WeeklyStat, 0, len(rows))
	for _, row := range rows {
		stat, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, stat)
	}
	return out, nil
}

func (r *PlayerStatsRepository) GetSeasonTotals(ctx context.Context, playerID int64) (playerstats.SeasonTotals, bool, error) {
	query, args, err := qb.Select(seasonTotalsSelectColumns...).From("player_season_totals").
		Where(qb.Eq("player_id", playerID)).
		ToSQL()
	if err != nil {
		return playerstats.SeasonTotals{}, false, fmt.Errorf("build select season totals query: %w", err)
	}

	var row seasonTotalsTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return playerstats.SeasonTotals{}, false, nil
		}
		return playerstats.SeasonTotals{}, false, fmt.Errorf("select season totals: %w", err)
	}

	out, err := row.toDomain()
	if err != nil {
		return playerstats.SeasonTotals{}, false, err
	}
	return out, true, nil
}

func (r *PlayerStatsRepository) ProjectedWeekCounts(ctx context.Context) (map[int]int64, error) {
	query, _, err := qb.Select("week", "COUNT(DISTINCT player_id) AS player_count").
		From("player_weekly_stats").
		Where(qb.Expr("projected_points > 0")).
		GroupBy("week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build projected week counts query: %w", err)
	}

	var rows []struct {
		Week        int   `db:"week"`
		PlayerCount int64 `db:"player_count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select projected week counts: %w", err)
	}

	out := make(map[int]int64, len(rows))
	for _, row := range rows {
		out[row.Week] = row.PlayerCount
	}
	return out, nil
}
