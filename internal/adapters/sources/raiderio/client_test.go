package raiderio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"guildaudit/internal/core/identity"
)

func TestFetch_Profile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("region") != "eu" || q.Get("realm") != "twisting-nether" || q.Get("name") != "Ágnes" {
			t.Errorf("unexpected query %v", q)
		}
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("aggregator calls must be unauthenticated")
		}
		_, _ = w.Write([]byte(`{
			"thumbnail_url": "cdn/thumb.jpg",
			"gear": {"item_level_equipped": 488.25},
			"mythic_plus_scores_by_season": [{"scores": {"all": 3012.4}}],
			"raid_progression": {"amirdrassil-the-dreams-hope": {"summary": "9/9 H"}},
			"raid_encounters": [
				{"encounter": "Fyrakk", "difficulty": "heroic", "num_kills": 4},
				{"encounter": "Fyrakk", "difficulty": "mythic", "num_kills": 1},
				{"encounter": "Tindral Sageswift", "difficulty": "normal", "num_kills": 0}
			]
		}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Region: "eu"})
	p := c.Fetch(context.Background(), identity.Character{Name: "Ágnes", Realm: "Twisting Nether"})
	if p == nil {
		t.Fatalf("expected a partial record")
	}
	if p.ItemLevel == nil || *p.ItemLevel != 488.25 {
		t.Fatalf("expected ilvl 488.25, got %v", p.ItemLevel)
	}
	if p.MythicPlusScore == nil || *p.MythicPlusScore != 3012.4 {
		t.Fatalf("expected score 3012.4, got %v", p.MythicPlusScore)
	}
	if p.RaidProgression == nil || *p.RaidProgression != "9/9 H" {
		t.Fatalf("expected progression summary, got %v", p.RaidProgression)
	}
	if p.Thumbnail == nil || *p.Thumbnail != "cdn/thumb.jpg" {
		t.Fatalf("expected thumbnail, got %v", p.Thumbnail)
	}
	k := p.Kills["Fyrakk"]
	if k.Heroic != 4 || k.Mythic != 1 {
		t.Fatalf("unexpected counters: %+v", k)
	}
	if _, ok := p.Kills["Tindral Sageswift"]; ok {
		t.Fatalf("zero-kill encounters must be dropped")
	}
}

func TestFetch_UnknownCharacter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Region: "eu"})
	if p := c.Fetch(context.Background(), identity.Character{Name: "Nobody", Realm: "Nowhere"}); p != nil {
		t.Fatalf("provider rejection must soft-fail, got %+v", p)
	}
}
