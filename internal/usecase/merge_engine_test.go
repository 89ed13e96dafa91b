package usecase

import (
	"testing"
	"time"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
)

func TestDefenseSyntheticID(t *testing.T) {
	id := DefenseSyntheticID("SEA")
	if id >= 0 {
		t.Fatalf("expected negative synthetic id, got %d", id)
	}
	if again := DefenseSyntheticID("SEA"); again != id {
		t.Fatalf("synthetic id not deterministic: %d vs %d", id, again)
	}
	if id < -1099 || id > -1000 {
		t.Fatalf("synthetic id %d outside expected range", id)
	}
	if DefenseSyntheticID("") != 0 {
		t.Fatalf("blank team code should not resolve")
	}
}

func TestResolveSnapshotID(t *testing.T) {
	id, err := ResolveSnapshotID(PlayerSnapshot{PlayerID: 4262921})
	if err != nil || id != 4262921 {
		t.Fatalf("expected upstream id to pass through, got %d err=%v", id, err)
	}

	id, err = ResolveSnapshotID(PlayerSnapshot{Position: player.PositionDefense, ProTeam: "PHI", Name: "Eagles D/ST"})
	if err != nil {
		t.Fatalf("defense should resolve: %v", err)
	}
	if id != DefenseSyntheticID("PHI") {
		t.Fatalf("defense id mismatch: %d", id)
	}

	if _, err := ResolveSnapshotID(PlayerSnapshot{Name: "ghost"}); err == nil {
		t.Fatalf("expected malformed entity error")
	}
}

func TestHeadshotURL(t *testing.T) {
	if got := HeadshotURL(4262921, player.PositionWideReceiver, "MIN"); got != "https://a.espncdn.com/i/headshots/nfl/players/full/4262921.png" {
		t.Fatalf("unexpected headshot url %q", got)
	}
	if got := HeadshotURL(-1042, player.PositionDefense, "PHI"); got != "https://a.espncdn.com/i/teamlogos/nfl/500/phi.png" {
		t.Fatalf("unexpected defense logo url %q", got)
	}
	if got := HeadshotURL(0, player.PositionKicker, "DEN"); got != "" {
		t.Fatalf("missing id should yield empty url, got %q", got)
	}
}

func TestMergePlayerDescriptiveFields(t *testing.T) {
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	existing := player.Player{
		ID:       12,
		Name:     "Old Name",
		Position: player.PositionRunningBack,
		ProTeam:  "DAL",
		PosRank:  4,
	}
	snap := PlayerSnapshot{PlayerID: 12, Name: "New Name", Position: player.PositionRunningBack, ProTeam: "PHI", PosRank: 2}

	merged := MergePlayer(&existing, snap, false, now)
	if merged.Name != "Old Name" || merged.ProTeam != "DAL" || merged.PosRank != 4 {
		t.Fatalf("descriptive fields changed without force: %+v", merged)
	}

	forced := MergePlayer(&existing, snap, true, now)
	if forced.Name != "New Name" || forced.ProTeam != "PHI" || forced.PosRank != 2 {
		t.Fatalf("descriptive fields not rewritten under force: %+v", forced)
	}
	if !forced.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at not refreshed")
	}
}

func TestMergePlayerVolatileAlwaysWins(t *testing.T) {
	existing := player.Player{ID: 7, Name: "X", InjuryStatus: "OUT", Injured: true, PercentOwned: 88.5, PercentStarted: 61}
	snap := PlayerSnapshot{PlayerID: 7, InjuryStatus: "QUESTIONABLE", Injured: false, PercentOwned: 12.5, PercentStarted: 3}

	merged := MergePlayer(&existing, snap, false, time.Now())
	if merged.InjuryStatus != "QUESTIONABLE" || merged.Injured || merged.PercentOwned != 12.5 || merged.PercentStarted != 3 {
		t.Fatalf("volatile fields not overwritten: %+v", merged)
	}
}

func TestMergePlayerNumericPolicies(t *testing.T) {
	now := time.Now()
	existing := player.Player{ID: 3, Name: "X", TotalPoints: 100, AvgPoints: 10, ProjectedTotalPoints: 120, ProjectedAvgPoints: 12}

	// Lower cumulative values and zero projections change nothing.
	merged := MergePlayer(&existing, PlayerSnapshot{PlayerID: 3, TotalPoints: 90, AvgPoints: 9}, false, now)
	if merged.TotalPoints != 100 || merged.AvgPoints != 10 || merged.ProjectedTotalPoints != 120 || merged.ProjectedAvgPoints != 12 {
		t.Fatalf("cumulative fields regressed: %+v", merged)
	}

	// Higher cumulative values and positive projections replace.
	merged = MergePlayer(&existing, PlayerSnapshot{PlayerID: 3, TotalPoints: 108.5, AvgPoints: 10.8, ProjectedTotalPoints: 5, ProjectedAvgPoints: 0.5}, false, now)
	if merged.TotalPoints != 108.5 || merged.AvgPoints != 10.8 || merged.ProjectedTotalPoints != 5 || merged.ProjectedAvgPoints != 0.5 {
		t.Fatalf("numeric fields not advanced: %+v", merged)
	}
}

func TestMergeWeeklyStatZeroProjectionNeverClobbers(t *testing.T) {
	existing := playerstats.WeeklyStat{PlayerID: 3, Week: 4, ProjectedPoints: 12.3}

	merged := MergeWeeklyStat(&existing, 3, 4, WeekObservation{Points: 8.5, ProjectedPoints: 0})
	if merged.ProjectedPoints != 12.3 {
		t.Fatalf("zero projection clobbered stored value: %v", merged.ProjectedPoints)
	}
	if merged.Points != 8.5 {
		t.Fatalf("higher actual points not taken: %v", merged.Points)
	}
}

func TestMergeWeeklyStatBreakdownPolicy(t *testing.T) {
	existing := playerstats.WeeklyStat{PlayerID: 3, Week: 2, Breakdown: map[string]float64{"rushingYards": 88}}

	merged := MergeWeeklyStat(&existing, 3, 2, WeekObservation{Breakdown: map[string]float64{}})
	if len(merged.Breakdown) != 1 || merged.Breakdown["rushingYards"] != 88 {
		t.Fatalf("empty breakdown replaced stored one: %+v", merged.Breakdown)
	}

	merged = MergeWeeklyStat(&existing, 3, 2, WeekObservation{Breakdown: map[string]float64{"rushingYards": 95, "rushingTouchdowns": 1}})
	if merged.Breakdown["rushingYards"] != 95 || len(merged.Breakdown) != 2 {
		t.Fatalf("non-empty breakdown not replaced: %+v", merged.Breakdown)
	}
}

func TestMergeBundleRoutesWeeks(t *testing.T) {
	now := time.Now()
	snap := PlayerSnapshot{
		PlayerID: 15847,
		Name:     "Week Router",
		Position: player.PositionTightEnd,
		Stats: map[int]WeekObservation{
			0:  {Points: 140.2, ProjectedPoints: 160.5},
			3:  {Points: 11.4, ProjectedPoints: 9.8},
			17: {ProjectedPoints: 7.1},
			18: {Points: 99},
			-2: {Points: 50},
		},
	}

	bundle := MergeBundle(nil, snap, false, now)
	if bundle.Season == nil || bundle.Season.Points != 140.2 {
		t.Fatalf("week zero not routed to season totals: %+v", bundle.Season)
	}
	if len(bundle.Weekly) != 2 {
		t.Fatalf("expected weeks 3 and 17 only, got %d rows", len(bundle.Weekly))
	}
	if bundle.Weekly[0].Week != 3 || bundle.Weekly[1].Week != 17 {
		t.Fatalf("weekly rows not ordered by week: %+v", bundle.Weekly)
	}
}

func TestMergeBundleIdempotent(t *testing.T) {
	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	snap := PlayerSnapshot{
		PlayerID:             9,
		Name:                 "Repeat",
		Position:             player.PositionQuarterback,
		TotalPoints:          77.7,
		ProjectedTotalPoints: 301.2,
		Stats: map[int]WeekObservation{
			1: {Points: 20.5, ProjectedPoints: 18.1, Breakdown: map[string]float64{"passingYards": 305}},
		},
	}

	once := MergeBundle(nil, snap, false, now)
	twice := MergeBundle(&once, snap, false, now)

	if twice.Player.TotalPoints != once.Player.TotalPoints ||
		twice.Player.ProjectedTotalPoints != once.Player.ProjectedTotalPoints ||
		twice.Player.Name != once.Player.Name ||
		!twice.Player.UpdatedAt.Equal(once.Player.UpdatedAt) {
		t.Fatalf("player row changed on replay:\n%+v\n%+v", once.Player, twice.Player)
	}
	if len(twice.Weekly) != 1 || twice.Weekly[0].Points != 20.5 || twice.Weekly[0].ProjectedPoints != 18.1 {
		t.Fatalf("weekly row changed on replay: %+v", twice.Weekly)
	}
}

func TestMergePlayerFirstInsertDefaultsInjuryStatus(t *testing.T) {
	merged := MergePlayer(nil, PlayerSnapshot{PlayerID: 5, Name: "Rookie"}, false, time.Now())
	if merged.InjuryStatus != "ACTIVE" {
		t.Fatalf("expected ACTIVE default, got %q", merged.InjuryStatus)
	}
}
