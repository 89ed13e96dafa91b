package playerstats

import "context"

// Repository describes stat persistence needs from use cases.
type Repository interface {
	// ListWeeklyByPlayer returns weekly rows ordered by week ascending.
	ListWeeklyByPlayer(ctx context.Context, playerID int64) ([]WeeklyStat, error)
	GetSeasonTotals(ctx context.Context, playerID int64) (SeasonTotals, bool, error)
	// ProjectedWeekCounts returns, per week, how many players already carry a
	// positive projected value. Used to diff against the full player count
	// when computing projection gaps.
	ProjectedWeekCounts(ctx context.Context) (map[int]int64, error)
}
