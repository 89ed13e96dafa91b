package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/domain/schedule"
)

const (
	defenseSyntheticBase = 1000
	injuryStatusActive   = "ACTIVE"

	playerHeadshotURLFormat = "https://a.espncdn.com/i/headshots/nfl/players/full/%d.png"
	teamLogoURLFormat       = "https://a.espncdn.com/i/teamlogos/nfl/500/%s.png"
)

// DefenseSyntheticID derives a stable negative identifier for a team
// defense from its pro-team code. Upstream payloads report defenses
// without a usable player identifier, so the local store mints one that
// every future observation of the same defense resolves to.
func DefenseSyntheticID(proTeam string) int64 {
	code := strings.TrimSpace(proTeam)
	if code == "" {
		return 0
	}
	sum := 0
	for _, r := range code {
		sum += int(r)
	}
	return -int64(defenseSyntheticBase + sum%100)
}

// ResolveSnapshotID returns the identifier a snapshot should be stored
// under, minting a synthetic one for defenses that arrived without an ID.
// Snapshots that cannot be resolved are malformed and must be skipped.
func ResolveSnapshotID(snap PlayerSnapshot) (int64, error) {
	if snap.PlayerID != 0 {
		return snap.PlayerID, nil
	}
	if snap.Position == player.PositionDefense {
		if id := DefenseSyntheticID(snap.ProTeam); id != 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: no resolvable identifier for %q", ErrMalformedEntity, snap.Name)
}

// HeadshotURL derives the image URL for a player. Defenses use their
// team logo; regular players use the headshot keyed by their identifier.
func HeadshotURL(playerID int64, position, proTeam string) string {
	if position == player.PositionDefense {
		if code := strings.TrimSpace(proTeam); code != "" {
			return fmt.Sprintf(teamLogoURLFormat, strings.ToLower(code))
		}
		return ""
	}
	if playerID > 0 {
		return fmt.Sprintf(playerHeadshotURLFormat, playerID)
	}
	return ""
}

// MergePlayer folds one upstream observation into the stored identity row.
//
// Field categories behave differently: descriptive fields (name, position,
// team, slots, headshot) are written on first insert or when force is set;
// volatile fields (injury, ownership) always take the observed value;
// cumulative scoring fields are only replaced by a strictly greater value;
// projection fields are replaced by any positive value.
func MergePlayer(existing *player.Player, snap PlayerSnapshot, force bool, now time.Time) player.Player {
	if existing == nil {
		return player.Player{
			ID:             snap.PlayerID,
			Name:           snap.Name,
			Position:       snap.Position,
			ProTeam:        snap.ProTeam,
			PosRank:        snap.PosRank,
			EligibleSlots:  cloneStrings(snap.EligibleSlots),
			InjuryStatus:   firstNonEmpty(snap.InjuryStatus, injuryStatusActive),
			Injured:        snap.Injured,
			TotalPoints:    snap.TotalPoints,
			AvgPoints:      snap.AvgPoints,
			PercentOwned:   snap.PercentOwned,
			PercentStarted: snap.PercentStarted,
			HeadshotURL:    HeadshotURL(snap.PlayerID, snap.Position, snap.ProTeam),

			ProjectedTotalPoints: snap.ProjectedTotalPoints,
			ProjectedAvgPoints:   snap.ProjectedAvgPoints,

			UpdatedAt: now,
		}
	}

	out := *existing
	if force {
		out.Name = firstNonEmpty(snap.Name, out.Name)
		out.Position = firstNonEmpty(snap.Position, out.Position)
		out.ProTeam = firstNonEmpty(snap.ProTeam, out.ProTeam)
		if snap.PosRank != 0 {
			out.PosRank = snap.PosRank
		}
		if len(snap.EligibleSlots) > 0 {
			out.EligibleSlots = cloneStrings(snap.EligibleSlots)
		}
		out.HeadshotURL = firstNonEmpty(HeadshotURL(out.ID, out.Position, out.ProTeam), out.HeadshotURL)
	}

	out.InjuryStatus = firstNonEmpty(snap.InjuryStatus, injuryStatusActive)
	out.Injured = snap.Injured
	out.PercentOwned = snap.PercentOwned
	out.PercentStarted = snap.PercentStarted

	out.TotalPoints = keepHigher(out.TotalPoints, snap.TotalPoints)
	out.AvgPoints = keepHigher(out.AvgPoints, snap.AvgPoints)
	out.ProjectedTotalPoints = preferPositive(out.ProjectedTotalPoints, snap.ProjectedTotalPoints)
	out.ProjectedAvgPoints = preferPositive(out.ProjectedAvgPoints, snap.ProjectedAvgPoints)

	out.UpdatedAt = now
	return out
}

// MergeWeeklyStat folds one week observation into the stored weekly row.
// Actual points never decrease, projections take any positive value and
// breakdown maps are only replaced by non-empty ones.
func MergeWeeklyStat(existing *playerstats.WeeklyStat, playerID int64, week int, obs WeekObservation) playerstats.WeeklyStat {
	if existing == nil {
		return playerstats.WeeklyStat{
			PlayerID:           playerID,
			Week:               week,
			Points:             obs.Points,
			ProjectedPoints:    obs.ProjectedPoints,
			AvgPoints:          obs.AvgPoints,
			Breakdown:          cloneBreakdown(obs.Breakdown),
			ProjectedBreakdown: cloneBreakdown(obs.ProjectedBreakdown),
		}
	}

	out := *existing
	out.Points = keepHigher(out.Points, obs.Points)
	out.ProjectedPoints = preferPositive(out.ProjectedPoints, obs.ProjectedPoints)
	out.AvgPoints = keepHigher(out.AvgPoints, obs.AvgPoints)
	if len(obs.Breakdown) > 0 {
		out.Breakdown = cloneBreakdown(obs.Breakdown)
	}
	if len(obs.ProjectedBreakdown) > 0 {
		out.ProjectedBreakdown = cloneBreakdown(obs.ProjectedBreakdown)
	}
	return out
}

// MergeSeasonTotals applies the same numeric policy as the weekly rows to
// the season aggregate, which upstream reports under week zero.
func MergeSeasonTotals(existing *playerstats.SeasonTotals, playerID int64, obs WeekObservation) playerstats.SeasonTotals {
	if existing == nil {
		return playerstats.SeasonTotals{
			PlayerID:           playerID,
			Points:             obs.Points,
			ProjectedPoints:    obs.ProjectedPoints,
			AvgPoints:          obs.AvgPoints,
			ProjectedAvgPoints: obs.ProjectedAvgPoints,
			Breakdown:          cloneBreakdown(obs.Breakdown),
			ProjectedBreakdown: cloneBreakdown(obs.ProjectedBreakdown),
		}
	}

	out := *existing
	out.Points = keepHigher(out.Points, obs.Points)
	out.ProjectedPoints = preferPositive(out.ProjectedPoints, obs.ProjectedPoints)
	out.AvgPoints = keepHigher(out.AvgPoints, obs.AvgPoints)
	out.ProjectedAvgPoints = preferPositive(out.ProjectedAvgPoints, obs.ProjectedAvgPoints)
	if len(obs.Breakdown) > 0 {
		out.Breakdown = cloneBreakdown(obs.Breakdown)
	}
	if len(obs.ProjectedBreakdown) > 0 {
		out.ProjectedBreakdown = cloneBreakdown(obs.ProjectedBreakdown)
	}
	return out
}

// MergeScheduleEntry refreshes a stored schedule row with a new game
// observation. Blank opponents and nil dates never overwrite known values.
func MergeScheduleEntry(existing *schedule.Entry, playerID int64, week int, obs GameObservation) schedule.Entry {
	if existing == nil {
		return schedule.Entry{
			PlayerID:     playerID,
			Week:         week,
			OpponentTeam: obs.OpponentTeam,
			GameDate:     obs.GameDate,
		}
	}

	out := *existing
	if obs.OpponentTeam != "" {
		out.OpponentTeam = obs.OpponentTeam
	}
	if obs.GameDate != nil {
		out.GameDate = obs.GameDate
	}
	return out
}

// MergeBundle applies a full snapshot to a stored bundle, routing week
// zero into season totals and dropping weeks outside the regular season.
// Pass nil for a player the store has never seen.
func MergeBundle(existing *PlayerBundle, snap PlayerSnapshot, force bool, now time.Time) PlayerBundle {
	var out PlayerBundle
	if existing == nil {
		out.Player = MergePlayer(nil, snap, force, now)
	} else {
		out = *existing
		out.Weekly = append([]playerstats.WeeklyStat(nil), existing.Weekly...)
		out.Schedule = append([]schedule.Entry(nil), existing.Schedule...)
		out.Player = MergePlayer(&existing.Player, snap, force, now)
	}

	weeklyIdx := make(map[int]int, len(out.Weekly))
	for i, row := range out.Weekly {
		weeklyIdx[row.Week] = i
	}

	for week, obs := range snap.Stats {
		switch {
		case week == playerstats.SeasonWeek:
			merged := MergeSeasonTotals(out.Season, out.Player.ID, obs)
			out.Season = &merged
		case week >= playerstats.MinWeek && week <= playerstats.MaxWeek:
			if i, ok := weeklyIdx[week]; ok {
				out.Weekly[i] = MergeWeeklyStat(&out.Weekly[i], out.Player.ID, week, obs)
			} else {
				weeklyIdx[week] = len(out.Weekly)
				out.Weekly = append(out.Weekly, MergeWeeklyStat(nil, out.Player.ID, week, obs))
			}
		}
	}

	scheduleIdx := make(map[int]int, len(out.Schedule))
	for i, row := range out.Schedule {
		scheduleIdx[row.Week] = i
	}
	for week, obs := range snap.Schedule {
		if week < playerstats.MinWeek || week > playerstats.MaxWeek {
			continue
		}
		if i, ok := scheduleIdx[week]; ok {
			out.Schedule[i] = MergeScheduleEntry(&out.Schedule[i], out.Player.ID, week, obs)
		} else {
			scheduleIdx[week] = len(out.Schedule)
			out.Schedule = append(out.Schedule, MergeScheduleEntry(nil, out.Player.ID, week, obs))
		}
	}

	sort.Slice(out.Weekly, func(i, j int) bool { return out.Weekly[i].Week < out.Weekly[j].Week })
	sort.Slice(out.Schedule, func(i, j int) bool { return out.Schedule[i].Week < out.Schedule[j].Week })
	return out
}

func keepHigher(stored, observed float64) float64 {
	if observed > stored {
		return observed
	}
	return stored
}

func preferPositive(stored, observed float64) float64 {
	if observed > 0 {
		return observed
	}
	return stored
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneBreakdown(in map[string]float64) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
