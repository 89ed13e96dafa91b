package espn

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/lowrey/playerdb/internal/platform/logging"
	"github.com/lowrey/playerdb/internal/platform/resilience"
	"github.com/lowrey/playerdb/internal/usecase"
)

const (
	defaultBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"

	fantasyFilterHeader = "X-Fantasy-Filter"
)

var cookieValueRegex = regexp.MustCompile(`(espn_s2|SWID)=[^;&\s"']+`)
var errESPNTransient = crerr.New("espn transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	LeagueID       int64
	SeasonYear     int
	ESPNS2         string
	SWID           string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the fantasy read API for one league and season. All
// reads go through a retry loop, a shared circuit breaker and request
// collapsing, since the upstream rate-limits aggressively.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	leagueID       int64
	seasonYear     int
	cookie         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight

	scheduleMu      sync.Mutex
	scheduleByTeam  map[string]map[int]usecase.GameObservation
	scheduleFetched bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	cookie := ""
	if s2 := strings.TrimSpace(cfg.ESPNS2); s2 != "" {
		cookie = "espn_s2=" + s2
		if swid := strings.TrimSpace(cfg.SWID); swid != "" {
			cookie += "; SWID=" + swid
		}
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		leagueID:       cfg.LeagueID,
		seasonYear:     cfg.SeasonYear,
		cookie:         cookie,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) leaguePath() string {
	return fmt.Sprintf("/seasons/%d/segments/0/leagues/%d", c.seasonYear, c.leagueID)
}

// LeagueTeams pulls every team with its roster expanded.
func (c *Client) LeagueTeams(ctx context.Context) ([]usecase.TeamRoster, error) {
	var envelope leagueTeamsEnvelope
	query := url.Values{}
	query.Add("view", "mTeam")
	query.Add("view", "mRoster")
	if _, err := c.doJSON(ctx, c.leaguePath(), query, "", &envelope); err != nil {
		return nil, fmt.Errorf("fetch league teams: %w", err)
	}

	out := make([]usecase.TeamRoster, 0, len(envelope.Teams))
	for _, team := range envelope.Teams {
		roster := make([]usecase.PlayerSnapshot, 0, len(team.Roster.Entries))
		for _, entry := range team.Roster.Entries {
			if len(entry.PlayerPoolEntry.Player) == 0 {
				continue
			}
			snap := normalizePlayer(entry.PlayerPoolEntry.Player, nil)
			c.attachSchedule(ctx, &snap)
			roster = append(roster, snap)
		}
		out = append(out, usecase.TeamRoster{
			TeamID:   team.ID,
			TeamName: firstNonEmpty(team.Name, strings.TrimSpace(team.Location+" "+team.Nickname), team.Abbrev),
			Roster:   roster,
		})
	}
	return out, nil
}

// FreeAgents pulls the top unrostered players for one position, ordered
// by ownership percentage descending.
func (c *Client) FreeAgents(ctx context.Context, position string, size int) ([]usecase.PlayerSnapshot, error) {
	slot, ok := slotIDForPosition(position)
	if !ok {
		return nil, fmt.Errorf("%w: unknown position %q", usecase.ErrInvalidInput, position)
	}
	if size <= 0 {
		size = 50
	}

	filter := fmt.Sprintf(
		`{"players":{"filterStatus":{"value":["FREEAGENT","WAIVERS"]},"filterSlotIds":{"value":[%d]},"limit":%d,"sortPercOwned":{"sortAsc":false,"sortPriority":1}}}`,
		slot, size,
	)

	var envelope playersEnvelope
	query := url.Values{}
	query.Add("view", "kona_player_info")
	if _, err := c.doJSON(ctx, c.leaguePath(), query, filter, &envelope); err != nil {
		return nil, fmt.Errorf("fetch free agents position=%s: %w", position, err)
	}

	out := make([]usecase.PlayerSnapshot, 0, len(envelope.Players))
	for _, entry := range envelope.Players {
		if len(entry.Player) == 0 {
			continue
		}
		snap := normalizePlayer(entry.Player, entry.Ratings)
		c.attachSchedule(ctx, &snap)
		out = append(out, snap)
	}
	return out, nil
}

// PlayerDetail pulls the full card for one player, including the per-week
// stat lines the roster view omits.
func (c *Client) PlayerDetail(ctx context.Context, playerID int64) (usecase.PlayerSnapshot, bool, error) {
	filter := fmt.Sprintf(`{"players":{"filterIds":{"value":[%d]}}}`, playerID)

	var envelope playersEnvelope
	query := url.Values{}
	query.Add("view", "kona_player_info")
	if _, err := c.doJSON(ctx, c.leaguePath(), query, filter, &envelope); err != nil {
		return usecase.PlayerSnapshot{}, false, fmt.Errorf("fetch player detail id=%d: %w", playerID, err)
	}
	if len(envelope.Players) == 0 || len(envelope.Players[0].Player) == 0 {
		return usecase.PlayerSnapshot{}, false, nil
	}

	snap := normalizePlayer(envelope.Players[0].Player, envelope.Players[0].Ratings)
	c.attachSchedule(ctx, &snap)
	return snap, true, nil
}

// BoxScores pulls every matchup of one scoring period with both lineups.
func (c *Client) BoxScores(ctx context.Context, week int) ([]usecase.Matchup, error) {
	var envelope boxScoresEnvelope
	query := url.Values{}
	query.Add("view", "mMatchup")
	query.Add("view", "mMatchupScore")
	query.Set("scoringPeriodId", strconv.Itoa(week))
	if _, err := c.doJSON(ctx, c.leaguePath(), query, "", &envelope); err != nil {
		return nil, fmt.Errorf("fetch box scores week=%d: %w", week, err)
	}

	out := make([]usecase.Matchup, 0, len(envelope.Schedule))
	for _, pairing := range envelope.Schedule {
		if pairing.MatchupPeriodID != week {
			continue
		}
		out = append(out, usecase.Matchup{
			Week:       week,
			HomeLineup: normalizeLineup(pairing.Home, week),
			AwayLineup: normalizeLineup(pairing.Away, week),
		})
	}
	return out, nil
}

// CurrentWeek reports the scoring period the season is currently in.
func (c *Client) CurrentWeek(ctx context.Context) (int, error) {
	var envelope settingsEnvelope
	query := url.Values{}
	query.Add("view", "mSettings")
	if _, err := c.doJSON(ctx, c.leaguePath(), query, "", &envelope); err != nil {
		return 0, fmt.Errorf("fetch league settings: %w", err)
	}
	if envelope.Status.CurrentMatchupPeriod > 0 {
		return envelope.Status.CurrentMatchupPeriod, nil
	}
	if envelope.ScoringPeriodID > 0 {
		return envelope.ScoringPeriodID, nil
	}
	return 0, fmt.Errorf("league settings carry no current period")
}

// attachSchedule decorates a snapshot with its pro team's season schedule.
// The schedule view is fetched once per client and cached; a failed fetch
// degrades to snapshots without schedules rather than failing the sweep.
func (c *Client) attachSchedule(ctx context.Context, snap *usecase.PlayerSnapshot) {
	if snap.ProTeam == "" {
		return
	}
	byTeam := c.proTeamSchedules(ctx)
	games, ok := byTeam[snap.ProTeam]
	if !ok || len(games) == 0 {
		return
	}
	snap.Schedule = make(map[int]usecase.GameObservation, len(games))
	for week, game := range games {
		snap.Schedule[week] = game
	}
}

func (c *Client) proTeamSchedules(ctx context.Context) map[string]map[int]usecase.GameObservation {
	c.scheduleMu.Lock()
	defer c.scheduleMu.Unlock()
	if c.scheduleFetched {
		return c.scheduleByTeam
	}

	var envelope proTeamsEnvelope
	query := url.Values{}
	query.Add("view", "proTeamSchedules_wl")
	path := fmt.Sprintf("/seasons/%d", c.seasonYear)
	if _, err := c.doJSON(ctx, path, query, "", &envelope); err != nil {
		c.logger.WarnContext(ctx, "pro team schedules unavailable, snapshots will carry no schedule", "error", err)
		c.scheduleFetched = true
		c.scheduleByTeam = map[string]map[int]usecase.GameObservation{}
		return c.scheduleByTeam
	}

	byTeam := make(map[string]map[int]usecase.GameObservation, len(envelope.Settings.ProTeams))
	for _, team := range envelope.Settings.ProTeams {
		code := proTeamCode(team.ID)
		if code == "" {
			continue
		}
		games := make(map[int]usecase.GameObservation)
		for weekKey, list := range team.ProGamesByScoringPeriod {
			week, err := strconv.Atoi(weekKey)
			if err != nil || len(list) == 0 {
				continue
			}
			game := list[0]
			opponentID := game.AwayProTeamID
			if opponentID == team.ID {
				opponentID = game.HomeProTeamID
			}
			obs := usecase.GameObservation{OpponentTeam: proTeamCode(opponentID)}
			if game.Date > 0 {
				kickoff := time.UnixMilli(game.Date).UTC()
				obs.GameDate = &kickoff
			}
			games[week] = obs
		}
		byTeam[code] = games
	}

	c.scheduleFetched = true
	c.scheduleByTeam = byTeam
	return c.scheduleByTeam
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, filter string, target any) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: fantasy data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := fullURL + "#" + filter
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, filter)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		if stderrors.Is(err, errESPNTransient) {
			return nil, fmt.Errorf("%w: fantasy data provider is temporarily unavailable: %w", usecase.ErrDependencyUnavailable, err)
		}
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL, filter string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if filter != "" {
			req.Header.Set(fantasyFilterHeader, filter)
		}
		if c.cookie != "" {
			req.Header.Set("cookie", c.cookie)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errESPNTransient, redactCookies(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 24<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errESPNTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errESPNTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errESPNTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactCookies(text string) string {
	return cookieValueRegex.ReplaceAllString(text, "$1=REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

type poolEntry struct {
	Player map[string]any `json:"player"`
}

type leagueTeamsEnvelope struct {
	Teams []leagueTeam `json:"teams"`
}

type leagueTeam struct {
	ID       int64  `json:"id"`
	Abbrev   string `json:"abbrev"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Nickname string `json:"nickname"`
	Roster   struct {
		Entries []rosterEntry `json:"entries"`
	} `json:"roster"`
}

type rosterEntry struct {
	LineupSlotID    int64     `json:"lineupSlotId"`
	PlayerPoolEntry poolEntry `json:"playerPoolEntry"`
}

type playersEnvelope struct {
	Players []playerEntry `json:"players"`
}

type playerEntry struct {
	Player  map[string]any `json:"player"`
	Ratings map[string]any `json:"ratings"`
}

type boxScoresEnvelope struct {
	Schedule []matchupPairing `json:"schedule"`
}

type matchupPairing struct {
	MatchupPeriodID int          `json:"matchupPeriodId"`
	Home            boxScoreTeam `json:"home"`
	Away            boxScoreTeam `json:"away"`
}

type boxScoreTeam struct {
	TeamID                        int64 `json:"teamId"`
	RosterForCurrentScoringPeriod struct {
		Entries []rosterEntry `json:"entries"`
	} `json:"rosterForCurrentScoringPeriod"`
}

type settingsEnvelope struct {
	ScoringPeriodID int `json:"scoringPeriodId"`
	Status          struct {
		CurrentMatchupPeriod int `json:"currentMatchupPeriod"`
		LatestScoringPeriod  int `json:"latestScoringPeriod"`
	} `json:"status"`
}

type proTeamsEnvelope struct {
	Settings struct {
		ProTeams []struct {
			ID                       int64  `json:"id"`
			Abbrev                   string `json:"abbrev"`
			ProGamesByScoringPeriod map[string][]struct {
				HomeProTeamID int64 `json:"homeProTeamId"`
				AwayProTeamID int64 `json:"awayProTeamId"`
				Date          int64 `json:"date"`
			} `json:"proGamesByScoringPeriod"`
		} `json:"proTeams"`
	} `json:"settings"`
}
