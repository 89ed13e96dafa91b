package usecase

import (
	"context"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/domain/schedule"
)

// PlayerBundle is everything the store holds for one player: the identity
// row plus the weekly stats, season totals and schedule that hang off it.
type PlayerBundle struct {
	Player   player.Player
	Weekly   []playerstats.WeeklyStat
	Season   *playerstats.SeasonTotals
	Schedule []schedule.Entry
}

// SyncStore is the write-side contract the synchronizer depends on.
// SaveBundle must persist the whole bundle atomically so a failure never
// leaves a player half written.
type SyncStore interface {
	GetBundle(ctx context.Context, playerID int64) (PlayerBundle, bool, error)
	SaveBundle(ctx context.Context, bundle PlayerBundle) error
	EnsurePlayer(ctx context.Context, p player.Player) error
}
