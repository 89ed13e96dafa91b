package postgres

import (
	"time"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/domain/schedule"
)

type playerTableModel struct {
	PlayerID             int64     `db:"player_id"`
	Name                 string    `db:"name"`
	Position             string    `db:"position"`
	ProTeam              string    `db:"pro_team"`
	PosRank              int       `db:"pos_rank"`
	EligibleSlots        []byte    `db:"eligible_slots"`
	InjuryStatus         string    `db:"injury_status"`
	Injured              bool      `db:"injured"`
	TotalPoints          float64   `db:"total_points"`
	ProjectedTotalPoints float64   `db:"projected_total_points"`
	AvgPoints            float64   `db:"avg_points"`
	ProjectedAvgPoints   float64   `db:"projected_avg_points"`
	PercentOwned         float64   `db:"percent_owned"`
	PercentStarted       float64   `db:"percent_started"`
	HeadshotURL          string    `db:"headshot_url"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func newPlayerTableModel(p player.Player) (playerTableModel, error) {
	slots, err := encodeSlots(p.EligibleSlots)
	if err != nil {
		return playerTableModel{}, err
	}
	return playerTableModel{
		PlayerID:             p.ID,
		Name:                 p.Name,
		Position:             p.Position,
		ProTeam:              p.ProTeam,
		PosRank:              p.PosRank,
		EligibleSlots:        slots,
		InjuryStatus:         p.InjuryStatus,
		Injured:              p.Injured,
		TotalPoints:          p.TotalPoints,
		ProjectedTotalPoints: p.ProjectedTotalPoints,
		AvgPoints:            p.AvgPoints,
		ProjectedAvgPoints:   p.ProjectedAvgPoints,
		PercentOwned:         p.PercentOwned,
		PercentStarted:       p.PercentStarted,
		HeadshotURL:          p.HeadshotURL,
		UpdatedAt:            p.UpdatedAt,
	}, nil
}

func (m playerTableModel) toDomain() (player.Player, error) {
	slots, err := decodeSlots(m.EligibleSlots)
	if err != nil {
		return player.Player{}, err
	}
	return player.Player{
		ID:                   m.PlayerID,
		Name:                 m.Name,
		Position:             m.Position,
		ProTeam:              m.ProTeam,
		PosRank:              m.PosRank,
		EligibleSlots:        slots,
		InjuryStatus:         m.InjuryStatus,
		Injured:              m.Injured,
		TotalPoints:          m.TotalPoints,
		ProjectedTotalPoints: m.ProjectedTotalPoints,
		AvgPoints:            m.AvgPoints,
		ProjectedAvgPoints:   m.ProjectedAvgPoints,
		PercentOwned:         m.PercentOwned,
		PercentStarted:       m.PercentStarted,
		HeadshotURL:          m.HeadshotURL,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

type weeklyStatTableModel struct {
	PlayerID           int64   `db:"player_id"`
	Week               int     `db:"week"`
	Points             float64 `db:"points"`
	ProjectedPoints    float64 `db:"projected_points"`
	AvgPoints          float64 `db:"avg_points"`
	Breakdown          []byte  `db:"breakdown"`
	ProjectedBreakdown []byte  `db:"projected_breakdown"`
}

func newWeeklyStatTableModel(row playerstats.WeeklyStat) (weeklyStatTableModel, error) {
	breakdown, err := encodeBreakdown(row.Breakdown)
	if err != nil {
		return weeklyStatTableModel{}, err
	}
	projected, err := encodeBreakdown(row.ProjectedBreakdown)
	if err != nil {
		return weeklyStatTableModel{}, err
	}
	return weeklyStatTableModel{
		PlayerID:           row.PlayerID,
		Week:               row.Week,
		Points:             row.Points,
		ProjectedPoints:    row.ProjectedPoints,
		AvgPoints:          row.AvgPoints,
		Breakdown:          breakdown,
		ProjectedBreakdown: projected,
	}, nil
}

func (m weeklyStatTableModel) toDomain() (playerstats.WeeklyStat, error) {
	breakdown, err := decodeBreakdown(m.Breakdown)
	if err != nil {
		return playerstats.WeeklyStat{}, err
	}
	projected, err := decodeBreakdown(m.ProjectedBreakdown)
	if err != nil {
		return playerstats.WeeklyStat{}, err
	}
	return playerstats.WeeklyStat{
		PlayerID:           m.PlayerID,
		Week:               m.Week,
		Points:             m.Points,
		ProjectedPoints:    m.ProjectedPoints,
		AvgPoints:          m.AvgPoints,
		Breakdown:          breakdown,
		ProjectedBreakdown: projected,
	}, nil
}

type seasonTotalsTableModel struct {
	PlayerID           int64   `db:"player_id"`
	Points             float64 `db:"points"`
	ProjectedPoints    float64 `db:"projected_points"`
	AvgPoints          float64 `db:"avg_points"`
	ProjectedAvgPoints float64 `db:"projected_avg_points"`
	Breakdown          []byte  `db:"breakdown"`
	ProjectedBreakdown []byte  `db:"projected_breakdown"`
}

func newSeasonTotalsTableModel(row playerstats.SeasonTotals) (seasonTotalsTableModel, error) {
	breakdown, err := encodeBreakdown(row.Breakdown)
	if err != nil {
		return seasonTotalsTableModel{}, err
	}
	projected, err := encodeBreakdown(row.ProjectedBreakdown)
	if err != nil {
		return seasonTotalsTableModel{}, err
	}
	return seasonTotalsTableModel{
		PlayerID:           row.PlayerID,
		Points:             row.Points,
		ProjectedPoints:    row.ProjectedPoints,
		AvgPoints:          row.AvgPoints,
		ProjectedAvgPoints: row.ProjectedAvgPoints,
		Breakdown:          breakdown,
		ProjectedBreakdown: projected,
	}, nil
}

func (m seasonTotalsTableModel) toDomain() (playerstats.SeasonTotals, error) {
	breakdown, err := decodeBreakdown(m.Breakdown)
	if err != nil {
		return playerstats.SeasonTotals{}, err
	}
	projected, err := decodeBreakdown(m.ProjectedBreakdown)
	if err != nil {
		return playerstats.SeasonTotals{}, err
	}
	return playerstats.SeasonTotals{
		PlayerID:           m.PlayerID,
		Points:             m.Points,
		ProjectedPoints:    m.ProjectedPoints,
		AvgPoints:          m.AvgPoints,
		ProjectedAvgPoints: m.ProjectedAvgPoints,
		Breakdown:          breakdown,
		ProjectedBreakdown: projected,
	}, nil
}

type scheduleTableModel struct {
	PlayerID     int64      `db:"player_id"`
	Week         int        `db:"week"`
	OpponentTeam string     `db:"opponent_team"`
	GameDate     *time.Time `db:"game_date"`
}

func newScheduleTableModel(row schedule.Entry) scheduleTableModel {
	return scheduleTableModel{
		PlayerID:     row.PlayerID,
		Week:         row.Week,
		OpponentTeam: row.OpponentTeam,
		GameDate:     row.GameDate,
	}
}

func (m scheduleTableModel) toDomain() schedule.Entry {
	return schedule.Entry{
		PlayerID:     m.PlayerID,
		Week:         m.Week,
		OpponentTeam: m.OpponentTeam,
		GameDate:     m.GameDate,
	}
}
