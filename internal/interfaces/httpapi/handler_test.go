package httpapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/infrastructure/repository/memory"
	"github.com/lowrey/playerdb/internal/interfaces/httpapi"
	"github.com/lowrey/playerdb/internal/usecase"
)

const testJobToken = "job-token"

type stubProvider struct {
	teams       []usecase.TeamRoster
	freeAgents  map[string][]usecase.PlayerSnapshot
	details     map[int64]usecase.PlayerSnapshot
	boxScores   map[int][]usecase.Matchup
	currentWeek int
	detailErr   error
}

func (p *stubProvider) LeagueTeams(context.Context) ([]usecase.TeamRoster, error) {
	return p.teams, nil
}

func (p *stubProvider) FreeAgents(_ context.Context, position string, _ int) ([]usecase.PlayerSnapshot, error) {
	return p.freeAgents[position], nil
}

func (p *stubProvider) PlayerDetail(_ context.Context, playerID int64) (usecase.PlayerSnapshot, bool, error) {
	if p.detailErr != nil {
		return usecase.PlayerSnapshot{}, false, p.detailErr
	}
	snap, ok := p.details[playerID]
	return snap, ok, nil
}

func (p *stubProvider) BoxScores(_ context.Context, week int) ([]usecase.Matchup, error) {
	return p.boxScores[week], nil
}

func (p *stubProvider) CurrentWeek(context.Context) (int, error) {
	if p.currentWeek == 0 {
		return 0, errors.New("no current week configured")
	}
	return p.currentWeek, nil
}

func newTestRouter(t *testing.T, store *memory.Store, provider usecase.UpstreamProvider) http.Handler {
	t.Helper()

	query := usecase.NewQueryService(store, store, store, nil, nil)
	sync := usecase.NewSyncService(provider, store, store, usecase.SyncConfig{}, nil)
	projections := usecase.NewProjectionService(provider, store, store, store, usecase.ProjectionConfig{}, nil)
	handler := httpapi.NewHandler(query, sync, projections, provider, nil)

	return httpapi.NewRouter(handler, nil, []string{"*"}, testJobToken)
}

func seedPlayer(t *testing.T, store *memory.Store, id int64, name, position, proTeam string) {
	t.Helper()
	bundle := usecase.PlayerBundle{
		Player: player.Player{ID: id, Name: name, Position: position, ProTeam: proTeam},
		Weekly: []playerstats.WeeklyStat{
			{PlayerID: id, Week: 1, Points: 12.5, ProjectedPoints: 10.1},
		},
	}
	if err := store.SaveBundle(context.Background(), bundle); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response, got %v", body)
	}
	return data
}

func TestGetPlayer_ReturnsStoredDetail(t *testing.T) {
	store := memory.NewStore()
	seedPlayer(t, store, 4242, "Justin Jefferson", player.PositionWideReceiver, "MIN")
	router := newTestRouter(t, store, &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/4242", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	playerObj, ok := data["player"].(map[string]any)
	if !ok {
		t.Fatalf("expected player object, got %v", data)
	}
	if got, _ := playerObj["name"].(string); got != "Justin Jefferson" {
		t.Fatalf("unexpected player name: %v", playerObj["name"])
	}
	stats, ok := data["stats"].(map[string]any)
	if !ok || len(stats) != 1 {
		t.Fatalf("expected one weekly stat, got %v", data["stats"])
	}
}

func TestGetPlayer_NotFound(t *testing.T) {
	store := memory.NewStore()
	seedPlayer(t, store, 1, "Someone Else", player.PositionKicker, "DEN")
	router := newTestRouter(t, store, &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/999", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestGetPlayer_RejectsNonNumericID(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestGetPlayer_EmptyStoreFallsBackToUpstream(t *testing.T) {
	provider := &stubProvider{
		details: map[int64]usecase.PlayerSnapshot{
			3139477: {
				PlayerID: 3139477,
				Name:     "Patrick Mahomes",
				Position: player.PositionQuarterback,
				ProTeam:  "KC",
			},
		},
	}
	router := newTestRouter(t, memory.NewStore(), provider)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/3139477", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	playerObj, _ := data["player"].(map[string]any)
	if got, _ := playerObj["name"].(string); got != "Patrick Mahomes" {
		t.Fatalf("unexpected player name: %v", playerObj)
	}
}

func TestGetPlayer_UpstreamFailureStaysOpaque(t *testing.T) {
	provider := &stubProvider{
		detailErr: fmt.Errorf("%w: provider status=503 body=<html>upstream maintenance page</html>", usecase.ErrDependencyUnavailable),
	}
	router := newTestRouter(t, memory.NewStore(), provider)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/42", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	errorObj, _ := body["error"].(map[string]any)
	if got, _ := errorObj["status"].(string); got != "UNAVAILABLE" {
		t.Fatalf("expected error status UNAVAILABLE, got %v", errorObj["status"])
	}
	if strings.Contains(rec.Body.String(), "maintenance") || strings.Contains(rec.Body.String(), "body=") {
		t.Fatalf("provider error detail leaked to client: %s", rec.Body.String())
	}
}

func TestGetPlayer_UnknownUpstreamErrorMapsToInternal(t *testing.T) {
	provider := &stubProvider{detailErr: errors.New("dial tcp 10.0.0.3:443: connection refused")}
	router := newTestRouter(t, memory.NewStore(), provider)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/42", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Fatalf("internal error detail leaked to client: %s", rec.Body.String())
	}
}

func TestSearchPlayers_AppliesFilters(t *testing.T) {
	store := memory.NewStore()
	seedPlayer(t, store, 1, "Justin Jefferson", player.PositionWideReceiver, "MIN")
	seedPlayer(t, store, 2, "Justin Fields", player.PositionQuarterback, "NYJ")
	seedPlayer(t, store, 3, "CeeDee Lamb", player.PositionWideReceiver, "DAL")
	router := newTestRouter(t, store, &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players?name=justin&position=WR", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	items, ok := body["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected exactly one match, got %v", body["data"])
	}
	first, _ := items[0].(map[string]any)
	if got, _ := first["name"].(string); got != "Justin Jefferson" {
		t.Fatalf("unexpected match: %v", first)
	}
}

func TestSearchPlayers_RejectsBadLimit(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players?limit=lots", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestStoreStatus_ReportsCount(t *testing.T) {
	store := memory.NewStore()
	seedPlayer(t, store, 1, "Someone", player.PositionTightEnd, "SF")
	router := newTestRouter(t, store, &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if got, _ := data["playerCount"].(float64); got != 1 {
		t.Fatalf("expected playerCount=1, got %v", data["playerCount"])
	}
	if empty, _ := data["empty"].(bool); empty {
		t.Fatalf("expected empty=false")
	}
}

func TestRunSyncJob_RequiresToken(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRunSyncJob_RunsAndReports(t *testing.T) {
	store := memory.NewStore()
	provider := &stubProvider{
		teams: []usecase.TeamRoster{{
			TeamID:   1,
			TeamName: "Team One",
			Roster: []usecase.PlayerSnapshot{{
				PlayerID: 10,
				Name:     "Roster Guy",
				Position: player.PositionRunningBack,
				ProTeam:  "DET",
			}},
		}},
	}
	router := newTestRouter(t, store, provider)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync", strings.NewReader(`{"force":true}`))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if got, _ := data["inserted"].(float64); got != 1 {
		t.Fatalf("expected one inserted player, got %v", data["inserted"])
	}

	if _, found, err := store.GetByID(context.Background(), 10); err != nil || !found {
		t.Fatalf("synced player missing from store: %v %v", found, err)
	}
}

func TestRunProjectionsJob_RejectsOutOfRangeWeeks(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/projections", strings.NewReader(`{"weeks":[0,22]}`))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRunProjectionsJob_BackfillsRequestedWeeks(t *testing.T) {
	store := memory.NewStore()
	provider := &stubProvider{
		boxScores: map[int][]usecase.Matchup{
			2: {{
				Week: 2,
				HomeLineup: []usecase.LineupEntry{{
					PlayerID:        55,
					Name:            "Box Score Guy",
					Position:        player.PositionTightEnd,
					ProjectedPoints: 7.7,
				}},
			}},
		},
	}
	router := newTestRouter(t, store, provider)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/projections", strings.NewReader(`{"weeks":[2]}`))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if got, _ := data["updatedEntries"].(float64); got != 1 {
		t.Fatalf("expected one updated entry, got %v", data["updatedEntries"])
	}
}
