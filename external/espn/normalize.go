package espn

import (
	"strconv"
	"strings"

	"github.com/lowrey/playerdb/internal/usecase"
)

// Stat lines carry a source marker: 0 is the actual result, 1 is the
// pre-game projection.
const (
	statSourceActual    = 0
	statSourceProjected = 1
)

// normalizePlayer converts the loosely typed player object of the wire
// payload into a canonical snapshot. Field types drift across views
// (numbers arrive as float64 or string, identifiers occasionally as a
// single-element list), so every access goes through a coercing helper.
func normalizePlayer(raw map[string]any, ratings map[string]any) usecase.PlayerSnapshot {
	snap := usecase.PlayerSnapshot{
		PlayerID:     asInt64(raw["id"]),
		Name:         playerName(raw),
		Position:     positionName(asInt64(raw["defaultPositionId"])),
		ProTeam:      proTeamCode(asInt64(raw["proTeamId"])),
		InjuryStatus: asString(raw["injuryStatus"]),
		Injured:      asBool(raw["injured"]),
	}

	if slots, ok := raw["eligibleSlots"].([]any); ok {
		for _, slot := range slots {
			if name := slotName(asInt64(slot)); name != "" {
				snap.EligibleSlots = append(snap.EligibleSlots, name)
			}
		}
	}

	if ownership, ok := raw["ownership"].(map[string]any); ok {
		snap.PercentOwned = asFloat(ownership["percentOwned"])
		snap.PercentStarted = asFloat(ownership["percentStarted"])
	}

	snap.PosRank = positionalRank(ratings)
	snap.Stats = normalizeStats(raw["stats"])

	if season, ok := snap.Stats[0]; ok {
		snap.TotalPoints = season.Points
		snap.ProjectedTotalPoints = season.ProjectedPoints
		snap.AvgPoints = season.AvgPoints
		snap.ProjectedAvgPoints = season.ProjectedAvgPoints
	}
	return snap
}

// normalizeLineup flattens one side of a box score into lineup entries
// carrying that week's actual and projected lines.
func normalizeLineup(team boxScoreTeam, week int) []usecase.LineupEntry {
	entries := make([]usecase.LineupEntry, 0, len(team.RosterForCurrentScoringPeriod.Entries))
	for _, slotted := range team.RosterForCurrentScoringPeriod.Entries {
		raw := slotted.PlayerPoolEntry.Player
		if len(raw) == 0 {
			continue
		}
		entry := usecase.LineupEntry{
			PlayerID: asInt64(raw["id"]),
			Name:     playerName(raw),
			Position: positionName(asInt64(raw["defaultPositionId"])),
			ProTeam:  proTeamCode(asInt64(raw["proTeamId"])),
		}
		if obs, ok := normalizeStats(raw["stats"])[week]; ok {
			entry.Points = obs.Points
			entry.ProjectedPoints = obs.ProjectedPoints
			entry.Breakdown = obs.Breakdown
			entry.ProjectedBreakdown = obs.ProjectedBreakdown
		}
		entries = append(entries, entry)
	}
	return entries
}

// normalizeStats folds the stat lines into per-week observations. The
// wire shape varies: usually a list of line objects, occasionally a map
// keyed by scoring period.
func normalizeStats(raw any) map[int]usecase.WeekObservation {
	lines := statLines(raw)
	if len(lines) == 0 {
		return nil
	}

	out := make(map[int]usecase.WeekObservation, len(lines))
	for _, line := range lines {
		week := int(asInt64(line["scoringPeriodId"]))
		obs := out[week]
		breakdown := translateBreakdown(line["appliedStats"])
		switch asInt64(line["statSourceId"]) {
		case statSourceActual:
			obs.Points = asFloat(line["appliedTotal"])
			obs.AvgPoints = asFloat(line["appliedAverage"])
			if len(breakdown) > 0 {
				obs.Breakdown = breakdown
			}
		case statSourceProjected:
			obs.ProjectedPoints = asFloat(line["appliedTotal"])
			obs.ProjectedAvgPoints = asFloat(line["appliedAverage"])
			if len(breakdown) > 0 {
				obs.ProjectedBreakdown = breakdown
			}
		default:
			continue
		}
		out[week] = obs
	}
	return out
}

func statLines(raw any) []map[string]any {
	switch typed := raw.(type) {
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if line, ok := item.(map[string]any); ok {
				out = append(out, line)
			}
		}
		return out
	case map[string]any:
		out := make([]map[string]any, 0, len(typed))
		for key, item := range typed {
			line, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if _, has := line["scoringPeriodId"]; !has {
				if week, err := strconv.Atoi(key); err == nil {
					line["scoringPeriodId"] = float64(week)
				}
			}
			out = append(out, line)
		}
		return out
	default:
		return nil
	}
}

// translateBreakdown maps numeric stat codes to readable names. Codes
// missing from the table pass through as unknownStat_<code> so no data
// is silently dropped.
func translateBreakdown(raw any) map[string]float64 {
	applied, ok := raw.(map[string]any)
	if !ok || len(applied) == 0 {
		return nil
	}
	out := make(map[string]float64, len(applied))
	for key, value := range applied {
		out[statName(key)] = asFloat(value)
	}
	return out
}

func playerName(raw map[string]any) string {
	if name := strings.TrimSpace(asString(raw["fullName"])); name != "" {
		return name
	}
	first := strings.TrimSpace(asString(raw["firstName"]))
	last := strings.TrimSpace(asString(raw["lastName"]))
	return strings.TrimSpace(first + " " + last)
}

func positionalRank(ratings map[string]any) int {
	if len(ratings) == 0 {
		return 0
	}
	season, ok := ratings["0"].(map[string]any)
	if !ok {
		return 0
	}
	return int(asInt64(season["positionalRanking"]))
}

// asInt64 coerces the identifier shapes seen on the wire: plain numbers,
// numeric strings and single-element lists wrapping either.
func asInt64(value any) int64 {
	switch typed := value.(type) {
	case float64:
		return int64(typed)
	case int64:
		return typed
	case int:
		return int64(typed)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	case []any:
		if len(typed) == 0 {
			return 0
		}
		return asInt64(typed[0])
	default:
		return 0
	}
}

func asFloat(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func asString(value any) string {
	if typed, ok := value.(string); ok {
		return typed
	}
	return ""
}

func asBool(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case float64:
		return typed > 0
	case string:
		v := strings.ToLower(strings.TrimSpace(typed))
		return v == "true" || v == "1"
	default:
		return false
	}
}
