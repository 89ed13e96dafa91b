package schedule

import (
	"context"
	"time"
)

// Entry is one (player, week) schedule row. GameDate is nil when upstream
// does not carry a kickoff time for that week.
type Entry struct {
	PlayerID     int64
	Week         int
	OpponentTeam string
	GameDate     *time.Time
}

// Repository describes schedule persistence needs from use cases.
type Repository interface {
	// ListByPlayer returns entries ordered by week ascending.
	ListByPlayer(ctx context.Context, playerID int64) ([]Entry, error)
}
