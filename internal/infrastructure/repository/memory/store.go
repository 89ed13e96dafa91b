package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lowrey/playerdb/internal/domain/player"
	"github.com/lowrey/playerdb/internal/domain/playerstats"
	"github.com/lowrey/playerdb/internal/domain/schedule"
	"github.com/lowrey/playerdb/internal/usecase"
)

// Store is an in-memory implementation of every repository contract plus
// the synchronizer's bundle store. It backs tests and local development
// without a database.
type Store struct {
	mu       sync.RWMutex
	players  map[int64]player.Player
	weekly   map[int64]map[int]playerstats.WeeklyStat
	season   map[int64]playerstats.SeasonTotals
	schedule map[int64]map[int]schedule.Entry
}

func NewStore() *Store {
	return &Store{
		players:  make(map[int64]player.Player),
		weekly:   make(map[int64]map[int]playerstats.WeeklyStat),
		season:   make(map[int64]playerstats.SeasonTotals),
		schedule: make(map[int64]map[int]schedule.Entry),
	}
}

func (s *Store) GetByID(_ context.Context, id int64) (player.Player, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	return p, ok, nil
}

func (s *Store) Search(_ context.Context, filter player.SearchFilter) ([]player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := strings.ToLower(strings.TrimSpace(filter.Name))
	out := make([]player.Player, 0)
	for _, p := range s.players {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		if filter.Position != "" && p.Position != filter.Position {
			continue
		}
		if filter.ProTeam != "" && p.ProTeam != filter.ProTeam {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.players)), nil
}

func (s *Store) IDs(_ context.Context) (map[int64]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]struct{}, len(s.players))
	for id := range s.players {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *Store) IDsNeedingStats(_ context.Context, minWeeks int) (map[int64]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]struct{})
	for id := range s.players {
		weeks := 0
		for _, row := range s.weekly[id] {
			if row.Points > 0 || row.ProjectedPoints > 0 {
				weeks++
			}
		}
		if weeks < minWeeks {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (s *Store) ListWeeklyByPlayer(_ context.Context, playerID int64) ([]playerstats.WeeklyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.weekly[playerID]
	out := make([]playerstats.WeeklyStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out, nil
}

func (s *Store) GetSeasonTotals(_ context.Context, playerID int64) (playerstats.SeasonTotals, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals, ok := s.season[playerID]
	return totals, ok, nil
}

func (s *Store) ProjectedWeekCounts(_ context.Context) (map[int]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]int64)
	for _, rows := range s.weekly {
		for week, row := range rows {
			if row.ProjectedPoints > 0 {
				out[week]++
			}
		}
	}
	return out, nil
}

func (s *Store) ListByPlayer(_ context.Context, playerID int64) ([]schedule.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.schedule[playerID]
	out := make([]schedule.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out, nil
}

func (s *Store) GetBundle(_ context.Context, playerID int64) (usecase.PlayerBundle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return usecase.PlayerBundle{}, false, nil
	}
	bundle := usecase.PlayerBundle{Player: p}
	for _, row := range s.weekly[playerID] {
		bundle.Weekly = append(bundle.Weekly, row)
	}
	sort.Slice(bundle.Weekly, func(i, j int) bool { return bundle.Weekly[i].Week < bundle.Weekly[j].Week })
	if totals, ok := s.season[playerID]; ok {
		t := totals
		bundle.Season = &t
	}
	for _, row := range s.schedule[playerID] {
		bundle.Schedule = append(bundle.Schedule, row)
	}
	sort.Slice(bundle.Schedule, func(i, j int) bool { return bundle.Schedule[i].Week < bundle.Schedule[j].Week })
	return bundle, true, nil
}

func (s *Store) SaveBundle(_ context.Context, bundle usecase.PlayerBundle) error {
	if err := bundle.Player.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := bundle.Player.ID
	s.players[id] = bundle.Player

	if len(bundle.Weekly) > 0 {
		if s.weekly[id] == nil {
			s.weekly[id] = make(map[int]playerstats.WeeklyStat, len(bundle.Weekly))
		}
		for _, row := range bundle.Weekly {
			s.weekly[id][row.Week] = row
		}
	}
	if bundle.Season != nil {
		s.season[id] = *bundle.Season
	}
	if len(bundle.Schedule) > 0 {
		if s.schedule[id] == nil {
			s.schedule[id] = make(map[int]schedule.Entry, len(bundle.Schedule))
		}
		for _, row := range bundle.Schedule {
			s.schedule[id][row.Week] = row
		}
	}
	return nil
}

func (s *Store) EnsurePlayer(_ context.Context, p player.Player) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; !ok {
		s.players[p.ID] = p
	}
	return nil
}
