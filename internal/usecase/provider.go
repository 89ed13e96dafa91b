package usecase

import (
	"context"
	"time"
)

// UpstreamProvider is the read-side contract against the remote fantasy
// data source. Implementations are expected to be safe for concurrent use.
type UpstreamProvider interface {
	// LeagueTeams returns every team in the league together with its
	// current roster.
	LeagueTeams(ctx context.Context) ([]TeamRoster, error)

	// FreeAgents returns the top unrostered players for one position,
	// ordered by ownership percentage.
	FreeAgents(ctx context.Context, position string, size int) ([]PlayerSnapshot, error)

	// PlayerDetail returns the full card for a single player. The second
	// return value is false when the upstream does not know the player.
	PlayerDetail(ctx context.Context, playerID int64) (PlayerSnapshot, bool, error)

	// BoxScores returns every matchup of one scoring period with both
	// lineups expanded.
	BoxScores(ctx context.Context, week int) ([]Matchup, error)

	// CurrentWeek returns the scoring period the season is currently in.
	CurrentWeek(ctx context.Context) (int, error)
}

// TeamRoster is one league team and the players it currently carries.
type TeamRoster struct {
	TeamID   int64
	TeamName string
	Roster   []PlayerSnapshot
}

// PlayerSnapshot is a single observation of a player as reported by the
// upstream. It carries whatever the upstream happened to include; absent
// numeric fields stay zero and absent maps stay nil.
type PlayerSnapshot struct {
	// PlayerID is zero when the upstream did not report a usable
	// identifier. Team defenses fall in this bucket and get a synthetic
	// identifier derived from their pro-team code.
	PlayerID int64

	Name          string
	Position      string
	ProTeam       string
	PosRank       int
	EligibleSlots []string

	InjuryStatus string
	Injured      bool

	TotalPoints          float64
	ProjectedTotalPoints float64
	AvgPoints            float64
	ProjectedAvgPoints   float64
	PercentOwned         float64
	PercentStarted       float64

	// Stats is keyed by week. Week zero carries season totals.
	Stats map[int]WeekObservation

	// Schedule is keyed by week.
	Schedule map[int]GameObservation
}

// WeekObservation is one week (or the season aggregate, under week zero)
// of scoring data for a player.
type WeekObservation struct {
	Points             float64
	ProjectedPoints    float64
	AvgPoints          float64
	ProjectedAvgPoints float64
	Breakdown          map[string]float64
	ProjectedBreakdown map[string]float64
}

// GameObservation is one scheduled game for a player's pro team.
type GameObservation struct {
	OpponentTeam string
	GameDate     *time.Time
}

// Matchup is one head-to-head pairing of a scoring period.
type Matchup struct {
	Week       int
	HomeLineup []LineupEntry
	AwayLineup []LineupEntry
}

// LineupEntry is one slotted player inside a box score. Box scores carry
// per-week actuals and projections that the regular player card omits for
// past weeks.
type LineupEntry struct {
	PlayerID           int64
	Name               string
	Position           string
	ProTeam            string
	Points             float64
	ProjectedPoints    float64
	Breakdown          map[string]float64
	ProjectedBreakdown map[string]float64
}
