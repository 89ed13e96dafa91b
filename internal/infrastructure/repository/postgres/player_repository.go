package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lowrey/playerdb/internal/domain/player"
	qb "github.com/lowrey/playerdb/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

var playerSelectColumns = []string{
	"player_id",
	"name",
	"position",
	"pro_team",
	"pos_rank",
	"eligible_slots",
	"injury_status",
	"injured",
	"total_points",
	"projected_total_points",
	"avg_points",
	"projected_avg_points",
	"percent_owned",
	"percent_started",
	"headshot_url",
	"updated_at",
}

// idsNeedingStatsQuery selects players whose weekly rows with any nonzero
// point or projection value number fewer than the threshold. A LEFT JOIN
// keeps players with no rows at all.
const idsNeedingStatsQuery = `
SELECT p.player_id
FROM players p
LEFT JOIN (
	SELECT player_id, COUNT(*) AS week_count
	FROM player_weekly_stats
	WHERE points > 0 OR projected_points > 0
	GROUP BY player_id
) s ON p.player_id = s.player_id
WHERE s.week_count IS NULL OR s.week_count < $1`

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("player_id", id)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player: %w", err)
	}

	out, err := row.toDomain()
	if err != nil {
		return player.Player{}, false, err
	}
	return out, true, nil
}

func (r *PlayerRepository) Search(ctx context.Context, filter player.SearchFilter) ([]player.Player, error) {
	builder := qb.Select(playerSelectColumns...).From("players")
	if filter.Name != "" {
		builder = builder.Where(qb.ILike("name", filter.Name))
	}
	if filter.Position != "" {
		builder = builder.Where(qb.Eq("position", filter.Position))
	}
	if filter.ProTeam != "" {
		builder = builder.Where(qb.Eq("pro_team", filter.ProTeam))
	}
	query, args, err := builder.
		OrderBy("total_points DESC", "player_id").
		Limit(filter.Limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build search players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PlayerRepository) Count(ctx context.Context) (int64, error) {
	query, _, err := qb.Select("COUNT(1)").From("players").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count players query: %w", err)
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}

func (r *PlayerRepository) IDs(ctx context.Context) (map[int64]struct{}, error) {
	query, _, err := qb.Select("player_id").From("players").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player ids query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("select player ids: %w", err)
	}

	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *PlayerRepository) IDsNeedingStats(ctx context.Context, minWeeks int) (map[int64]struct{}, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, idsNeedingStatsQuery, minWeeks); err != nil {
		return nil, fmt.Errorf("select players needing stats: %w", err)
	}

	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
