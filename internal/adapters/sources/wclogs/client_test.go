package wclogs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/progress"
	"guildaudit/internal/core/reset"
)

var (
	agnes = identity.Character{Name: "Agnes", Realm: "Twisting Nether"}

	// Friday following the Wednesday 07:00 UTC boundary
	passNow  = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	boundary = time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC)
)

func fakeLogs(t *testing.T, reports string, fights map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/v1/character/twisting-nether/agnes/rankings":
			_, _ = w.Write([]byte(`{"bestPerformanceAverage":92.4,"medianPerformanceAverage":81.1}`))
		case r.URL.Path == "/v1/character/twisting-nether/agnes/reports":
			_, _ = w.Write([]byte(reports))
		default:
			for code, body := range fights {
				if r.URL.Path == "/v1/report/"+code+"/fights" {
					if body == "" {
						w.WriteHeader(http.StatusInternalServerError)
						return
					}
					_, _ = w.Write([]byte(body))
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(srv *httptest.Server, zone int) *Client {
	c := New(Options{BaseURL: srv.URL, Window: reset.Default(), ZoneID: zone})
	c.now = func() time.Time { return passNow }
	return c
}

func TestFetch_WeeklyKillsFromReports(t *testing.T) {
	fresh := boundary.Add(2 * time.Hour).UnixMilli()
	stale := boundary.Add(-2 * time.Hour).UnixMilli()
	reports := fmt.Sprintf(`[
		{"code":"r1","startTime":%d,"zoneID":35},
		{"code":"r2","startTime":%d,"zoneID":35},
		{"code":"old","startTime":%d,"zoneID":35}
	]`, fresh, fresh, stale)
	fights := map[string]string{
		"r1": `{"fights":[
			{"name":"Fyrakk","difficulty":4,"kill":true},
			{"name":"Fyrakk","difficulty":4,"kill":false},
			{"name":"Smolderon","difficulty":4,"kill":true}
		]}`,
		"r2": `{"fights":[{"name":"Fyrakk","difficulty":5,"kill":true}]}`,
		"old": `{"fights":[{"name":"Gnarlroot","difficulty":5,"kill":true}]}`,
	}
	srv := fakeLogs(t, reports, fights)
	defer srv.Close()

	p := newTestClient(srv, 35).Fetch(context.Background(), agnes, "tok")
	if p == nil {
		t.Fatalf("expected a partial record")
	}
	if p.BestPerfAvg == nil || *p.BestPerfAvg != 92.4 {
		t.Fatalf("expected best perf 92.4, got %v", p.BestPerfAvg)
	}
	want := []progress.KillDetail{
		{Boss: "Fyrakk", Difficulty: progress.DifficultyMythic, DifficultyID: progress.DifficultyMythicID},
		{Boss: "Smolderon", Difficulty: progress.DifficultyHeroic, DifficultyID: progress.DifficultyHeroicID},
	}
	if len(p.WeeklyKills) != len(want) {
		t.Fatalf("expected %d kills, got %+v", len(want), p.WeeklyKills)
	}
	for i, w := range want {
		if p.WeeklyKills[i] != w {
			t.Fatalf("kill %d: expected %+v, got %+v", i, w, p.WeeklyKills[i])
		}
	}
}

func TestFetch_ZoneFilter(t *testing.T) {
	fresh := boundary.Add(time.Hour).UnixMilli()
	reports := fmt.Sprintf(`[
		{"code":"raid","startTime":%d,"zoneID":35},
		{"code":"other","startTime":%d,"zoneID":12}
	]`, fresh, fresh)
	fights := map[string]string{
		"raid":  `{"fights":[{"name":"Fyrakk","difficulty":3,"kill":true}]}`,
		"other": `{"fights":[{"name":"Old Boss","difficulty":5,"kill":true}]}`,
	}
	srv := fakeLogs(t, reports, fights)
	defer srv.Close()

	p := newTestClient(srv, 35).Fetch(context.Background(), agnes, "tok")
	if len(p.WeeklyKills) != 1 || p.WeeklyKills[0].Boss != "Fyrakk" {
		t.Fatalf("off-zone reports must be skipped, got %+v", p.WeeklyKills)
	}
}

func TestFetch_UnreadableReportSkipped(t *testing.T) {
	fresh := boundary.Add(time.Hour).UnixMilli()
	reports := fmt.Sprintf(`[
		{"code":"bad","startTime":%d,"zoneID":35},
		{"code":"good","startTime":%d,"zoneID":35}
	]`, fresh, fresh)
	fights := map[string]string{
		"bad":  "", // 500s
		"good": `{"fights":[{"name":"Volcoross","difficulty":4,"kill":true}]}`,
	}
	srv := fakeLogs(t, reports, fights)
	defer srv.Close()

	p := newTestClient(srv, 35).Fetch(context.Background(), agnes, "tok")
	if len(p.WeeklyKills) != 1 || p.WeeklyKills[0].Boss != "Volcoross" {
		t.Fatalf("a broken report must not sink the pass, got %+v", p.WeeklyKills)
	}
}

func TestFetch_NoToken(t *testing.T) {
	c := New(Options{BaseURL: "http://unused", Window: reset.Default()})
	if p := c.Fetch(context.Background(), agnes, ""); p != nil {
		t.Fatalf("missing token must skip the source, got %+v", p)
	}
}

func TestFetch_EverythingDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv, 0)
	if p := c.Fetch(context.Background(), agnes, "tok"); p != nil {
		t.Fatalf("total provider failure must yield nil, got %+v", p)
	}
}
