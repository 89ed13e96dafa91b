package espn

import "github.com/lowrey/playerdb/internal/domain/player"

// proTeamCodes maps the wire's proTeamId to the franchise abbreviation.
// Zero is "no team" (free agents without an active roster spot).
var proTeamCodes = map[int64]string{
	1:  "ATL",
	2:  "BUF",
	3:  "CHI",
	4:  "CIN",
	5:  "CLE",
	6:  "DAL",
	7:  "DEN",
	8:  "DET",
	9:  "GB",
	10: "TEN",
	11: "IND",
	12: "KC",
	13: "LV",
	14: "LAR",
	15: "MIA",
	16: "MIN",
	17: "NE",
	18: "NO",
	19: "NYG",
	20: "NYJ",
	21: "PHI",
	22: "ARI",
	23: "PIT",
	24: "LAC",
	25: "SF",
	26: "SEA",
	27: "TB",
	28: "WSH",
	29: "CAR",
	30: "JAX",
	33: "BAL",
	34: "HOU",
}

var positionNames = map[int64]string{
	1:  player.PositionQuarterback,
	2:  player.PositionRunningBack,
	3:  player.PositionWideReceiver,
	4:  player.PositionTightEnd,
	5:  player.PositionKicker,
	16: player.PositionDefense,
}

var slotNames = map[int64]string{
	0:  "QB",
	2:  "RB",
	3:  "RB/WR",
	4:  "WR",
	5:  "WR/TE",
	6:  "TE",
	7:  "OP",
	16: "D/ST",
	17: "K",
	18: "P",
	19: "HC",
	20: "BE",
	21: "IR",
	23: "FLEX",
}

// slotIDsByPosition maps a canonical position to the lineup slot used by
// the free-agent filter.
var slotIDsByPosition = map[string]int{
	player.PositionQuarterback:  0,
	player.PositionRunningBack:  2,
	player.PositionWideReceiver: 4,
	player.PositionTightEnd:     6,
	player.PositionDefense:      16,
	player.PositionKicker:       17,
}

func proTeamCode(id int64) string {
	return proTeamCodes[id]
}

func positionName(id int64) string {
	return positionNames[id]
}

func slotName(id int64) string {
	return slotNames[id]
}

func slotIDForPosition(position string) (int, bool) {
	slot, ok := slotIDsByPosition[position]
	return slot, ok
}
