package searchapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

func TestFetchCrewFacetSendsQueryAndToken(t *testing.T) {
	var got domain.CrewFacetQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/crew/facet" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"amount": 7,
			"hits": []map[string]any{{
				"vessel":      "Pequod",
				"date":        "2024-03-01T09:30:00Z",
				"safetyLevel": map[string]any{"level": "Red"},
				"violations":  2,
				"captain":     map[string]any{"name": "Ahab", "license": "L1"},
				"highlights": []map[string]any{{
					"path":  "captain.name",
					"texts": []map[string]any{{"value": "Ahab", "type": "hit"}},
				}},
			}},
		})
	}))
	defer srv.Close()

	client := New(srv.URL+"/", "secret", time.Second)
	page, err := client.FetchCrewFacet(context.Background(), domain.CrewFacetQuery{
		Limit: 50, Offset: 100, Query: "ahab", Filter: domain.FilterSelection{"location": "horn"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Limit != 50 || got.Offset != 100 || got.Query != "ahab" || got.Filter["location"] != "horn" {
		t.Fatalf("query not forwarded: %+v", got)
	}
	if page.Amount != 7 || len(page.Hits) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	hit := page.Hits[0]
	if !hit.SafetyLevel.Nested || hit.SafetyLevel.Level() != "red" {
		t.Fatalf("nested safety level not decoded: %+v", hit.SafetyLevel)
	}
	if fragment, ok := hit.Highlights[0].FirstHit(); !ok || fragment != "Ahab" {
		t.Fatalf("highlight not decoded: %+v", hit.Highlights)
	}
}

func TestFetchCrewFacetErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "", time.Second).FetchCrewFacet(context.Background(), domain.CrewFacetQuery{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := New(srv.URL, "tok", time.Second).FetchCrewFacet(context.Background(), domain.CrewFacetQuery{}); err == nil {
		t.Fatalf("expected server error")
	}
}

func TestFetchCrewFacetHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	if _, err := New(srv.URL, "", 50*time.Millisecond).FetchCrewFacet(context.Background(), domain.CrewFacetQuery{}); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout not applied")
	}
}
