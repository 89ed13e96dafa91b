package player

import "context"

// Repository describes player persistence needs from use cases. Absence is
// reported with the found flag, never with an error.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Player, bool, error)
	Search(ctx context.Context, filter SearchFilter) ([]Player, error)
	Count(ctx context.Context) (int64, error)
	IDs(ctx context.Context) (map[int64]struct{}, error)
	// IDsNeedingStats returns players with fewer than minWeeks weekly rows
	// carrying a nonzero point or projection value.
	IDsNeedingStats(ctx context.Context, minWeeks int) (map[int64]struct{}, error)
}
