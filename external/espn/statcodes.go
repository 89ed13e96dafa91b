package espn

import "strconv"

// statNames maps the numeric stat codes of appliedStats to readable
// names. The upstream adds codes without notice; anything missing here
// passes through as unknownStat_<code>.
var statNames = map[int]string{
	0:   "passingAttempts",
	1:   "passingCompletions",
	3:   "passingYards",
	4:   "passingTouchdowns",
	19:  "passing2PtConversions",
	20:  "passingInterceptions",
	23:  "rushingAttempts",
	24:  "rushingYards",
	25:  "rushingTouchdowns",
	26:  "rushing2PtConversions",
	42:  "receivingYards",
	43:  "receivingTouchdowns",
	44:  "receiving2PtConversions",
	53:  "receivingReceptions",
	58:  "receivingTargets",
	72:  "lostFumbles",
	74:  "madeFieldGoalsFrom50Plus",
	77:  "madeFieldGoalsFrom40To49",
	80:  "madeFieldGoalsFromUnder40",
	85:  "missedFieldGoals",
	86:  "madeExtraPoints",
	88:  "missedExtraPoints",
	89:  "defensive0PointsAllowed",
	90:  "defensive1To6PointsAllowed",
	91:  "defensive7To13PointsAllowed",
	92:  "defensive14To17PointsAllowed",
	93:  "defensiveBlockedKickForTouchdowns",
	95:  "defensiveInterceptions",
	96:  "defensiveFumbles",
	97:  "defensiveBlockedKicks",
	98:  "defensiveSafeties",
	99:  "defensiveSacks",
	101: "kickoffReturnTouchdowns",
	102: "puntReturnTouchdowns",
	103: "fumbleReturnTouchdowns",
	104: "interceptionReturnTouchdowns",
	123: "defensive28To34PointsAllowed",
	124: "defensive35To45PointsAllowed",
	125: "defensiveOver45PointsAllowed",
	128: "defensive100To199YardsAllowed",
	129: "defensive200To299YardsAllowed",
	130: "defensive350To399YardsAllowed",
	132: "defensive400To449YardsAllowed",
	133: "defensive450To499YardsAllowed",
	134: "defensive500To549YardsAllowed",
	135: "defensiveOver550YardsAllowed",
}

// statName resolves one appliedStats key. Keys are numeric strings on
// the wire; a key that is already a readable name passes through as is.
func statName(key string) string {
	code, err := strconv.Atoi(key)
	if err != nil {
		return key
	}
	if name, ok := statNames[code]; ok {
		return name
	}
	return "unknownStat_" + key
}
