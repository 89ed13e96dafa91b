package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/domain/schedule"
	"github.com/lowrey/playerdb/internal/usecase"
)

type Handler struct {
	queryService      *usecase.QueryService
	syncService       *usecase.SyncService
	projectionService *usecase.ProjectionService
	provider          usecase.UpstreamProvider
	logger            *slog.Logger
	validator         *validator.Validate
}

func NewHandler(
	queryService *usecase.QueryService,
	syncService *usecase.SyncService,
	projectionService *usecase.ProjectionService,
	provider usecase.UpstreamProvider,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		queryService:      queryService,
		syncService:       syncService,
		projectionService: projectionService,
		provider:          provider,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	playerID, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("playerID")), 10, 64)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: player id must be an integer", usecase.ErrInvalidInput))
		return
	}

	detail, err := h.queryService.Get(ctx, playerID)
	if err == nil {
		writeSuccess(ctx, w, http.StatusOK, playerDetailToDTO(ctx, detail))
		return
	}
	if !errors.Is(err, usecase.ErrNotFound) {
		h.logger.WarnContext(ctx, "get player failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	detail, served, upstreamErr := h.upstreamFallback(ctx, playerID)
	if upstreamErr != nil {
		h.logger.WarnContext(ctx, "upstream fallback failed", "player_id", playerID, "error", upstreamErr)
		writeError(ctx, w, upstreamErr)
		return
	}
	if !served {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerDetailToDTO(ctx, detail))
}

// upstreamFallback serves a player straight from the provider when the local
// store has never been synced. The result bypasses the cache so a later sync
// is still the source of truth.
func (h *Handler) upstreamFallback(ctx context.Context, playerID int64) (usecase.PlayerDetail, bool, error) {
	ctx, span := startSpan(ctx, "httpapi.Handler.upstreamFallback")
	defer span.End()

	count, err := h.queryService.Count(ctx)
	if err != nil || count > 0 {
		return usecase.PlayerDetail{}, false, err
	}

	snap, found, err := h.provider.PlayerDetail(ctx, playerID)
	if err != nil || !found {
		return usecase.PlayerDetail{}, false, err
	}

	bundle := usecase.MergeBundle(nil, snap, false, time.Now().UTC())

	detail := usecase.PlayerDetail{
		Player:       bundle.Player,
		Stats:        make(map[int]playerstats.WeeklyStat, len(bundle.Weekly)),
		SeasonTotals: bundle.Season,
		Schedule:     make(map[int]schedule.Entry, len(bundle.Schedule)),
	}
	for _, stat := range bundle.Weekly {
		detail.Stats[stat.Week] = stat
	}
	for _, entry := range bundle.Schedule {
		detail.Schedule[entry.Week] = entry
	}

	return detail, true, nil
}

func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchPlayers")
	defer span.End()

	query := r.URL.Query()
	filter := player.SearchFilter{
		Name:     strings.TrimSpace(query.Get("name")),
		Position: strings.TrimSpace(query.Get("position")),
		ProTeam:  strings.TrimSpace(query.Get("pro_team")),
	}
	if rawLimit := strings.TrimSpace(query.Get("limit")); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		filter.Limit = limit
	}

	players, err := h.queryService.Search(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "search players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(ctx, p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) StoreStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StoreStatus")
	defer span.End()

	count, err := h.queryService.Count(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "store status failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, storeStatusDTO{
		PlayerCount: count,
		Empty:       count == 0,
	})
}

func (h *Handler) RunSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncJob")
	defer span.End()

	var req syncJobRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.syncService.Sync(ctx, req.Force)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync job failed", "force", req.Force, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.queryService.InvalidateCache(ctx)

	writeSuccess(ctx, w, http.StatusOK, syncReportToDTO(ctx, report))
}

func (h *Handler) RunProjectionsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunProjectionsJob")
	defer span.End()

	var req projectionsJobRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.projectionService.FillProjections(ctx, req.Weeks)
	if err != nil {
		h.logger.ErrorContext(ctx, "projections job failed", "weeks", req.Weeks, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.queryService.InvalidateCache(ctx)

	writeSuccess(ctx, w, http.StatusOK, projectionReportToDTO(ctx, report))
}

// decodeRequest tolerates an empty body so job endpoints can be triggered
// with a bare POST.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	_, span := startSpan(ctx, "httpapi.Handler.decodeRequest")
	defer span.End()

	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type syncJobRequest struct {
	Force bool `json:"force"`
}

type projectionsJobRequest struct {
	Weeks []int `json:"weeks" validate:"omitempty,dive,gte=1,lte=17"`
}

type storeStatusDTO struct {
	PlayerCount int64 `json:"playerCount"`
	Empty       bool  `json:"empty"`
}

type playerDTO struct {
	ID                   int64    `json:"id"`
	Name                 string   `json:"name"`
	Position             string   `json:"position"`
	ProTeam              string   `json:"proTeam"`
	PosRank              int      `json:"posRank"`
	EligibleSlots        []string `json:"eligibleSlots"`
	InjuryStatus         string   `json:"injuryStatus"`
	Injured              bool     `json:"injured"`
	TotalPoints          float64  `json:"totalPoints"`
	ProjectedTotalPoints float64  `json:"projectedTotalPoints"`
	AvgPoints            float64  `json:"avgPoints"`
	ProjectedAvgPoints   float64  `json:"projectedAvgPoints"`
	PercentOwned         float64  `json:"percentOwned"`
	PercentStarted       float64  `json:"percentStarted"`
	HeadshotURL          string   `json:"headshotUrl"`
	UpdatedAtUTC         string   `json:"updatedAtUtc"`
}

type weeklyStatDTO struct {
	Points             float64            `json:"points"`
	ProjectedPoints    float64            `json:"projectedPoints"`
	AvgPoints          float64            `json:"avgPoints"`
	Breakdown          map[string]float64 `json:"breakdown,omitempty"`
	ProjectedBreakdown map[string]float64 `json:"projectedBreakdown,omitempty"`
}

type seasonTotalsDTO struct {
	Points             float64            `json:"points"`
	ProjectedPoints    float64            `json:"projectedPoints"`
	AvgPoints          float64            `json:"avgPoints"`
	ProjectedAvgPoints float64            `json:"projectedAvgPoints"`
	Breakdown          map[string]float64 `json:"breakdown,omitempty"`
	ProjectedBreakdown map[string]float64 `json:"projectedBreakdown,omitempty"`
}

type scheduleEntryDTO struct {
	OpponentTeam string `json:"opponentTeam"`
	GameDateUTC  string `json:"gameDateUtc,omitempty"`
}

type playerDetailDTO struct {
	Player       playerDTO                   `json:"player"`
	Stats        map[string]weeklyStatDTO    `json:"stats"`
	SeasonTotals *seasonTotalsDTO            `json:"seasonTotals,omitempty"`
	Schedule     map[string]scheduleEntryDTO `json:"schedule"`
}

type entityOutcomeDTO struct {
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name,omitempty"`
	Pass     string `json:"pass"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
}

type syncReportDTO struct {
	StartedAtUTC  string             `json:"startedAtUtc"`
	FinishedAtUTC string             `json:"finishedAtUtc"`
	Inserted      int                `json:"inserted"`
	Updated       int                `json:"updated"`
	Skipped       int                `json:"skipped"`
	Failed        int                `json:"failed"`
	Outcomes      []entityOutcomeDTO `json:"outcomes"`
}

type projectionReportDTO struct {
	Weeks          []int `json:"weeks"`
	SkippedWeeks   []int `json:"skippedWeeks"`
	UpdatedEntries int   `json:"updatedEntries"`
	FailedEntries  int   `json:"failedEntries"`
}

func playerToDTO(ctx context.Context, v player.Player) playerDTO {
	_, span := startSpan(ctx, "httpapi.playerToDTO")
	defer span.End()

	return playerDTO{
		ID:                   v.ID,
		Name:                 v.Name,
		Position:             v.Position,
		ProTeam:              v.ProTeam,
		PosRank:              v.PosRank,
		EligibleSlots:        append([]string(nil), v.EligibleSlots...),
		InjuryStatus:         v.InjuryStatus,
		Injured:              v.Injured,
		TotalPoints:          v.TotalPoints,
		ProjectedTotalPoints: v.ProjectedTotalPoints,
		AvgPoints:            v.AvgPoints,
		ProjectedAvgPoints:   v.ProjectedAvgPoints,
		PercentOwned:         v.PercentOwned,
		PercentStarted:       v.PercentStarted,
		HeadshotURL:          v.HeadshotURL,
		UpdatedAtUTC:         v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func playerDetailToDTO(ctx context.Context, v usecase.PlayerDetail) playerDetailDTO {
	ctx, span := startSpan(ctx, "httpapi.playerDetailToDTO")
	defer span.End()

	stats := make(map[string]weeklyStatDTO, len(v.Stats))
	for week, stat := range v.Stats {
		stats[strconv.Itoa(week)] = weeklyStatDTO{
			Points:             stat.Points,
			ProjectedPoints:    stat.ProjectedPoints,
			AvgPoints:          stat.AvgPoints,
			Breakdown:          stat.Breakdown,
			ProjectedBreakdown: stat.ProjectedBreakdown,
		}
	}

	scheduleEntries := make(map[string]scheduleEntryDTO, len(v.Schedule))
	for week, entry := range v.Schedule {
		dto := scheduleEntryDTO{OpponentTeam: entry.OpponentTeam}
		if entry.GameDate != nil {
			dto.GameDateUTC = entry.GameDate.UTC().Format(time.RFC3339)
		}
		scheduleEntries[strconv.Itoa(week)] = dto
	}

	var season *seasonTotalsDTO
	if v.SeasonTotals != nil {
		season = &seasonTotalsDTO{
			Points:             v.SeasonTotals.Points,
			ProjectedPoints:    v.SeasonTotals.ProjectedPoints,
			AvgPoints:          v.SeasonTotals.AvgPoints,
			ProjectedAvgPoints: v.SeasonTotals.ProjectedAvgPoints,
			Breakdown:          v.SeasonTotals.Breakdown,
			ProjectedBreakdown: v.SeasonTotals.ProjectedBreakdown,
		}
	}

	return playerDetailDTO{
		Player:       playerToDTO(ctx, v.Player),
		Stats:        stats,
		SeasonTotals: season,
		Schedule:     scheduleEntries,
	}
}

func syncReportToDTO(ctx context.Context, v usecase.SyncReport) syncReportDTO {
	_, span := startSpan(ctx, "httpapi.syncReportToDTO")
	defer span.End()

	outcomes := make([]entityOutcomeDTO, 0, len(v.Outcomes))
	for _, outcome := range v.Outcomes {
		outcomes = append(outcomes, entityOutcomeDTO{
			PlayerID: outcome.PlayerID,
			Name:     outcome.Name,
			Pass:     outcome.Pass,
			Outcome:  outcome.Status,
			Reason:   outcome.Reason,
		})
	}

	return syncReportDTO{
		StartedAtUTC:  v.StartedAt.UTC().Format(time.RFC3339),
		FinishedAtUTC: v.FinishedAt.UTC().Format(time.RFC3339),
		Inserted:      v.Inserted,
		Updated:       v.Updated,
		Skipped:       v.Skipped,
		Failed:        v.Failed,
		Outcomes:      outcomes,
	}
}

func projectionReportToDTO(ctx context.Context, v usecase.ProjectionReport) projectionReportDTO {
	_, span := startSpan(ctx, "httpapi.projectionReportToDTO")
	defer span.End()

	return projectionReportDTO{
		Weeks:          append([]int(nil), v.Weeks...),
		SkippedWeeks:   append([]int(nil), v.SkippedWeeks...),
		UpdatedEntries: v.UpdatedEntries,
		FailedEntries:  v.FailedEntries,
	}
}
