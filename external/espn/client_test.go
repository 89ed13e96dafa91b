package espn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lowrey/playerdb/internal/platform/logging"
	"github.com/lowrey/playerdb/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		LeagueID:   123456,
		SeasonYear: 2025,
		ESPNS2:     "secret-cookie",
		SWID:       "{ABC}",
		MaxRetries: 2,
		Logger:     logging.NewNop(),
	})
	return client, server
}

func TestClientSendsAuthAndFilter(t *testing.T) {
	var gotCookie, gotFilter string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/seasons/2025/segments/0/leagues/123456") {
			gotCookie = r.Header.Get("cookie")
			gotFilter = r.Header.Get("X-Fantasy-Filter")
			_, _ = w.Write([]byte(`{"players":[]}`))
			return
		}
		// pro team schedule view
		_, _ = w.Write([]byte(`{"settings":{"proTeams":[]}}`))
	}))

	if _, err := client.FreeAgents(context.Background(), "QB", 500); err != nil {
		t.Fatalf("free agents failed: %v", err)
	}
	if !strings.Contains(gotCookie, "espn_s2=secret-cookie") || !strings.Contains(gotCookie, "SWID={ABC}") {
		t.Fatalf("auth cookie not sent: %q", gotCookie)
	}
	if !strings.Contains(gotFilter, `"filterSlotIds":{"value":[0]}`) || !strings.Contains(gotFilter, `"limit":500`) {
		t.Fatalf("fantasy filter wrong: %q", gotFilter)
	}
}

func TestClientRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"scoringPeriodId":6,"status":{"currentMatchupPeriod":5}}`))
	}))

	week, err := client.CurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("current week failed after retry: %v", err)
	}
	if week != 5 {
		t.Fatalf("expected matchup period 5, got %d", week)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls.Load())
	}
}

func TestClientExhaustedRetriesReportUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<html>upstream maintenance page</html>`))
	}))
	t.Cleanup(server.Close)
	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		LeagueID:   123456,
		SeasonYear: 2025,
		MaxRetries: 0,
		Logger:     logging.NewNop(),
	})

	_, err := client.CurrentWeek(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency-unavailable error, got %v", err)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := client.CurrentWeek(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("client error must not retry, got %d calls", calls.Load())
	}
}

func TestClientPlayerDetailNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "kona_player_info") {
			_, _ = w.Write([]byte(`{"players":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"settings":{"proTeams":[]}}`))
	}))

	_, found, err := client.PlayerDetail(context.Background(), 42)
	if err != nil {
		t.Fatalf("detail failed: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}

func TestClientUnknownFreeAgentPosition(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	if _, err := client.FreeAgents(context.Background(), "PUNTER", 10); err == nil {
		t.Fatalf("unknown position must be rejected before hitting the wire")
	}
}

func TestRedactCookies(t *testing.T) {
	in := `Get "https://x?espn_s2=abc123&SWID={guid}": timeout`
	out := redactCookies(in)
	if strings.Contains(out, "abc123") || strings.Contains(out, "{guid}") {
		t.Fatalf("cookie values leaked: %q", out)
	}
}
