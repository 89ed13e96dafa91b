package player

import (
	"fmt"
	"time"
)

const (
	PositionQuarterback  = "QB"
	PositionRunningBack  = "RB"
	PositionWideReceiver = "WR"
	PositionTightEnd     = "TE"
	PositionKicker       = "K"
	PositionDefense      = "D/ST"
)

// FreeAgentPositions is the fixed sweep order for the free-agent pass.
var FreeAgentPositions = []string{
	PositionQuarterback,
	PositionRunningBack,
	PositionWideReceiver,
	PositionTightEnd,
	PositionKicker,
	PositionDefense,
}

// Player is one row of the local player store. IDs are the upstream player
// identifier, or a negative synthetic identifier for team-defense entities.
type Player struct {
	ID                   int64
	Name                 string
	Position             string
	ProTeam              string
	PosRank              int
	EligibleSlots        []string
	InjuryStatus         string
	Injured              bool
	TotalPoints          float64
	ProjectedTotalPoints float64
	AvgPoints            float64
	ProjectedAvgPoints   float64
	PercentOwned         float64
	PercentStarted       float64
	HeadshotURL          string
	UpdatedAt            time.Time
}

func (p Player) Validate() error {
	if p.ID == 0 {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	return nil
}

// SearchFilter narrows Search results. Name is a case-insensitive substring
// match; Position and ProTeam are exact.
type SearchFilter struct {
	Name     string
	Position string
	ProTeam  string
	Limit    int
}
