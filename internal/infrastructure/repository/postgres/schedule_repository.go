package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lowrey/playerdb/internal/domain/schedule"
	qb "github.com/lowrey/playerdb/internal/platform/querybuilder"
)

type ScheduleRepository struct {
	db *sqlx.DB
}

var scheduleSelectColumns = []string{
	"player_id",
	"week",
	"opponent_team",
	"game_date",
}

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) ListByPlayer(ctx context.Context, playerID int64) ([]schedule.Entry, error) {
	query, args, err := qb.Select(scheduleSelectColumns...).From("player_schedule").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select schedule query: %w", err)
	}

	var rows []scheduleTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select schedule: %w", err)
	}

	out := make([]schedule.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
