package playerstats

// Week bounds for stored weekly rows. Week 0 from upstream is the season
// aggregate and routes to SeasonTotals instead.
const (
	SeasonWeek = 0
	MinWeek    = 1
	MaxWeek    = 17
)

// WeeklyStat is one (player, week) scoring row. Breakdown maps readable
// stat names to their numeric contribution.
type WeeklyStat struct {
	PlayerID           int64
	Week               int
	Points             float64
	ProjectedPoints    float64
	AvgPoints          float64
	Breakdown          map[string]float64
	ProjectedBreakdown map[string]float64
}

// SeasonTotals is the cumulative week-0 snapshot for one player.
type SeasonTotals struct {
	PlayerID           int64
	Points             float64
	ProjectedPoints    float64
	AvgPoints          float64
	ProjectedAvgPoints float64
	Breakdown          map[string]float64
	ProjectedBreakdown map[string]float64
}
