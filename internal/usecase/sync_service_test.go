package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/infrastructure/repository/memory"
	"github.com/lowrey/playerdb/internal/platform/logging"
	"github.com/lowrey/playerdb/internal/usecase"
)

type fakeProvider struct {
	teams       []usecase.TeamRoster
	teamsErr    error
	freeAgents  map[string][]usecase.PlayerSnapshot
	faErr       map[string]error
	details     map[int64]usecase.PlayerSnapshot
	detailErr   map[int64]error
	boxScores   map[int][]usecase.Matchup
	boxErr      map[int]error
	currentWeek int
	weekErr     error

	detailCalls []int64
}

func (f *fakeProvider) LeagueTeams(context.Context) ([]usecase.TeamRoster, error) {
	return f.teams, f.teamsErr
}

func (f *fakeProvider) FreeAgents(_ context.Context, position string, _ int) ([]usecase.PlayerSnapshot, error) {
	if err := f.faErr[position]; err != nil {
		return nil, err
	}
	return f.freeAgents[position], nil
}

func (f *fakeProvider) PlayerDetail(_ context.Context, playerID int64) (usecase.PlayerSnapshot, bool, error) {
	f.detailCalls = append(f.detailCalls, playerID)
	if err := f.detailErr[playerID]; err != nil {
		return usecase.PlayerSnapshot{}, false, err
	}
	snap, ok := f.details[playerID]
	return snap, ok, nil
}

func (f *fakeProvider) BoxScores(_ context.Context, week int) ([]usecase.Matchup, error) {
	if err := f.boxErr[week]; err != nil {
		return nil, err
	}
	return f.boxScores[week], nil
}

func (f *fakeProvider) CurrentWeek(context.Context) (int, error) {
	return f.currentWeek, f.weekErr
}

func newSyncService(provider *fakeProvider, store *memory.Store) *usecase.SyncService {
	return usecase.NewSyncService(provider, store, store, usecase.SyncConfig{}, logging.NewNop())
}

func TestSyncInsertsRosteredPlayersWithDetail(t *testing.T) {
	store := memory.NewStore()
	provider := &fakeProvider{
		teams: []usecase.TeamRoster{{
			TeamID:   1,
			TeamName: "Team One",
			Roster: []usecase.PlayerSnapshot{
				{PlayerID: 100, Name: "Roster QB", Position: player.PositionQuarterback, ProTeam: "KC"},
			},
		}},
		details: map[int64]usecase.PlayerSnapshot{
			100: {
				PlayerID: 100, Name: "Roster QB", Position: player.PositionQuarterback, ProTeam: "KC",
				TotalPoints: 55.5,
				Stats: map[int]usecase.WeekObservation{
					0: {Points: 55.5},
					1: {Points: 25.1, ProjectedPoints: 22.0},
					2: {Points: 30.4, ProjectedPoints: 24.5},
				},
			},
		},
	}

	report, err := newSyncService(provider, store).Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if report.Inserted != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	p, found, _ := store.GetByID(context.Background(), 100)
	if !found || p.TotalPoints != 55.5 {
		t.Fatalf("player not stored with detail: %+v found=%v", p, found)
	}
	weekly, _ := store.ListWeeklyByPlayer(context.Background(), 100)
	if len(weekly) != 2 {
		t.Fatalf("expected 2 weekly rows, got %d", len(weekly))
	}
	if _, found, _ := store.GetSeasonTotals(context.Background(), 100); !found {
		t.Fatalf("season totals missing")
	}
}

func TestSyncFallsBackToRosterViewWhenDetailFails(t *testing.T) {
	store := memory.NewStore()
	provider := &fakeProvider{
		teams: []usecase.TeamRoster{{
			Roster: []usecase.PlayerSnapshot{
				{PlayerID: 200, Name: "Thin Player", Position: player.PositionWideReceiver},
			},
		}},
		detailErr: map[int64]error{200: errors.New("upstream 500")},
	}

	report, err := newSyncService(provider, store).Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if report.Inserted != 1 {
		t.Fatalf("expected fallback insert, got %+v", report)
	}
	if _, found, _ := store.GetByID(context.Background(), 200); !found {
		t.Fatalf("fallback identity row missing")
	}
}

func TestSyncSkipsFreshFreeAgents(t *testing.T) {
	store := memory.NewStore()
	seedPlayerWithWeeks(t, store, 300, "Fresh FA", 6)

	provider := &fakeProvider{
		freeAgents: map[string][]usecase.PlayerSnapshot{
			player.PositionQuarterback: {{PlayerID: 300, Name: "Fresh FA", Position: player.PositionQuarterback}},
		},
	}

	report, err := newSyncService(provider, store).Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if report.Skipped != 1 {
		t.Fatalf("expected cheap skip, got %+v", report)
	}
	if len(provider.detailCalls) != 0 {
		t.Fatalf("skip must not fetch detail, calls=%v", provider.detailCalls)
	}
}

func TestSyncRefreshesStaleFreeAgents(t *testing.T) {
	store := memory.NewStore()
	seedPlayerWithWeeks(t, store, 301, "Stale FA", 2)

	provider := &fakeProvider{
		freeAgents: map[string][]usecase.PlayerSnapshot{
			player.PositionRunningBack: {{PlayerID: 301, Name: "Stale FA", Position: player.PositionRunningBack, TotalPoints: 42}},
		},
	}

	report, err := newSyncService(provider, store).Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if report.Updated != 1 {
		t.Fatalf("expected stale refresh, got %+v", report)
	}
	p, _, _ := store.GetByID(context.Background(), 301)
	if p.TotalPoints != 42 {
		t.Fatalf("stale player not refreshed: %+v", p)
	}
}

func TestSyncForceDisablesSkipAndRewritesDescriptive(t *testing.T) {
	store := memory.NewStore()
	seedPlayerWithWeeks(t, store, 302, "Old Name", 8)

	provider := &fakeProvider{
		freeAgents: map[string][]usecase.PlayerSnapshot{
			player.PositionWideReceiver: {{PlayerID: 302, Name: "New Name", Position: player.PositionWideReceiver, ProTeam: "SF"}},
		},
		details: map[int64]usecase.PlayerSnapshot{
			302: {PlayerID: 302, Name: "New Name", Position: player.PositionWideReceiver, ProTeam: "SF"},
		},
	}

	report, err := newSyncService(provider, store).Sync(context.Background(), true)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if report.Skipped != 0 || report.Updated != 1 {
		t.Fatalf("force run should refresh, got %+v", report)
	}
	p, _, _ := store.GetByID(context.Background(), 302)
	if p.Name != "New Name" || p.ProTeam != "SF" {
		t.Fatalf("descriptive fields not rewritten: %+v", p)
	}
}

func TestSyncDefenseGetsSyntheticID(t *testing.T) {
	store := memory.NewStore()
	provider := &fakeProvider{
		freeAgents: map[string][]usecase.PlayerSnapshot{
			player.PositionDefense: {{Name: "Seahawks D/ST", Position: player.PositionDefense, ProTeam: "SEA"}},
		},
	}

	if _, err := newSyncService(provider, store).Sync(context.Background(), false); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	id := usecase.DefenseSyntheticID("SEA")
	p, found, _ := store.GetByID(context.Background(), id)
	if !found {
		t.Fatalf("defense not stored under synthetic id %d", id)
	}
	if p.HeadshotURL != "https://a.espncdn.com/i/teamlogos/nfl/500/sea.png" {
		t.Fatalf("defense logo url wrong: %q", p.HeadshotURL)
	}
	if len(provider.detailCalls) != 0 {
		t.Fatalf("defenses must not fetch detail, calls=%v", provider.detailCalls)
	}
}

func TestSyncDeduplicatesAcrossPasses(t *testing.T) {
	store := memory.NewStore()
	provider := &fakeProvider{
		teams: []usecase.TeamRoster{{
			Roster: []usecase.PlayerSnapshot{{PlayerID: 400, Name: "Both Lists", Position: player.PositionTightEnd}},
		}},
		freeAgents: map[string][]usecase.PlayerSnapshot{
			player.PositionTightEnd: {{PlayerID: 400, Name: "Both Lists", Position: player.PositionTightEnd}},
		},
	}

	report, err := newSyncService(provider, store).Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(report.Outcomes) != 1 {
		t.Fatalf("player processed twice: %+v", report.Outcomes)
	}
	if len(provider.detailCalls) != 1 {
		t.Fatalf("detail fetched more than once: %v", provider.detailCalls)
	}
}

func TestSyncIsolatesPositionFailures(t *testing.T) {
	store := memory.NewStore()
	provider := &fakeProvider{
		faErr: map[string]error{player.PositionQuarterback: errors.New("rate limited")},
		freeAgents: map[string][]usecase.PlayerSnapshot{
			player.PositionKicker: {{PlayerID: 500, Name: "Reliable K", Position: player.PositionKicker}},
		},
		details: map[int64]usecase.PlayerSnapshot{
			500: {PlayerID: 500, Name: "Reliable K", Position: player.PositionKicker},
		},
	}

	report, err := newSyncService(provider, store).Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("one failed position must not abort the run: %v", err)
	}
	if report.Inserted != 1 {
		t.Fatalf("surviving position not processed: %+v", report)
	}
}

func TestSyncRecordsMalformedEntities(t *testing.T) {
	store := memory.NewStore()
	provider := &fakeProvider{
		teams: []usecase.TeamRoster{{
			Roster: []usecase.PlayerSnapshot{{Name: "No ID Guy", Position: player.PositionRunningBack}},
		}},
	}

	report, err := newSyncService(provider, store).Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("malformed entity not recorded: %+v", report)
	}
	count, _ := store.Count(context.Background())
	if count != 0 {
		t.Fatalf("malformed entity was stored")
	}
}

func TestSyncFailsWhenRosterViewUnavailable(t *testing.T) {
	store := memory.NewStore()
	provider := &fakeProvider{teamsErr: errors.New("connection refused")}

	if _, err := newSyncService(provider, store).Sync(context.Background(), false); err == nil {
		t.Fatalf("expected fatal error when roster view cannot load")
	}
}

func seedPlayerWithWeeks(t *testing.T, store *memory.Store, id int64, name string, weeks int) {
	t.Helper()
	bundle := usecase.PlayerBundle{
		Player: player.Player{ID: id, Name: name},
	}
	for wk := 1; wk <= weeks; wk++ {
		bundle.Weekly = append(bundle.Weekly, playerstats.WeeklyStat{PlayerID: id, Week: wk, Points: float64(wk) + 0.5})
	}
	if err := store.SaveBundle(context.Background(), bundle); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}
