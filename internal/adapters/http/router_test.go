package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/adapters/db/sqlite"
	"github.com/atvirokodosprendimai/crewboard/internal/application"
	"github.com/atvirokodosprendimai/crewboard/internal/config"
	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "secret-pass"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "crewboard_http_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlite.RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	filters := config.DefaultFilters()
	service := application.NewInspectionService(sqlite.NewInspectionRepository(db, filters), filters)
	if err := service.BootstrapAdmin(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}
	_, err = service.ImportBoardings(ctx, []domain.Boarding{
		{
			BoardedAt:   time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			Vessel:      domain.Vessel{Name: "Pequod"},
			SafetyLevel: domain.DirectSafetyLevel("Red"),
			Violations:  2,
			Captain:     domain.Captain{Name: "Ahab", License: "L1"},
			Crew:        []domain.CrewMember{{Name: "Starbuck", License: "L2"}},
		},
	})
	if err != nil {
		t.Fatalf("import boardings: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dashboards := application.NewDashboards(service, logger, time.Hour)
	srv := httptest.NewServer(NewRouter(service, dashboards, logger))
	t.Cleanup(srv.Close)
	return srv
}

func loggedInClient(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}
	resp, err := client.PostForm(srv.URL+"/login", url.Values{"email": {testEmail}, "password": {testPassword}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/home" {
		t.Fatalf("expected to land on /home, got %d %s", resp.StatusCode, resp.Request.URL.Path)
	}
	return client
}

func postSignals(t *testing.T, client *http.Client, target, referer string, signals any) (int, string) {
	t.Helper()
	body, _ := json.Marshal(signals)
	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Datastar-Request", "true")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", target, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func TestGUIRequiresLogin(t *testing.T) {
	srv := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(srv.URL + "/crew")
	if err != nil {
		t.Fatalf("get crew: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestCrewPageAndFragments(t *testing.T) {
	srv := newTestServer(t)
	client := loggedInClient(t, srv)

	resp, err := client.Get(srv.URL + "/crew")
	if err != nil {
		t.Fatalf("get crew: %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{"2 Crew Members", "Ahab", "Starbuck", "CAPTAIN", "Boarding Information"} {
		if !strings.Contains(string(page), want) {
			t.Fatalf("expected %q in crew page", want)
		}
	}

	status, body := postSignals(t, client, srv.URL+"/crew/search", srv.URL+"/crew", map[string]any{"crewQuery": "star"})
	if status != http.StatusOK {
		t.Fatalf("search status %d: %s", status, body)
	}
	if !strings.Contains(body, `<mark class="highlighted">Star</mark>buck`) || strings.Contains(body, "Ahab") {
		t.Fatalf("unexpected search fragment:\n%s", body)
	}

	status, body = postSignals(t, client, srv.URL+"/crew/filter", srv.URL+"/crew", map[string]any{
		"crewQuery":  "",
		"crewFilter": map[string]any{"safetyLevel_green": true},
	})
	if status != http.StatusOK || !strings.Contains(body, "No crew members found") {
		t.Fatalf("green filter should empty the table, got %d:\n%s", status, body)
	}

	if status, _ := postSignals(t, client, srv.URL+"/crew/page/zero", "", map[string]any{}); status != http.StatusBadRequest {
		t.Fatalf("expected bad request for invalid page, got %d", status)
	}
}

func TestCrewFragmentsCarryLoadingIndicator(t *testing.T) {
	srv := newTestServer(t)
	client := loggedInClient(t, srv)

	resp, err := client.Get(srv.URL + "/crew")
	if err != nil {
		t.Fatalf("get crew: %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(page), `data-indicator="crewLoading"`) || !strings.Contains(string(page), "crewLoading&#34;:false") {
		t.Fatalf("crew page should declare and bind the loading indicator:\n%s", page)
	}

	_, body := postSignals(t, client, srv.URL+"/crew/search", srv.URL+"/crew", map[string]any{"crewQuery": "ahab", "crewLoading": true})
	for _, want := range []string{`data-show="$crewLoading"`, `data-show="!$crewLoading"`, "Loading..."} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in search fragment:\n%s", want, body)
		}
	}
}

func TestNavSelectNavigatesOverSSE(t *testing.T) {
	srv := newTestServer(t)
	client := loggedInClient(t, srv)

	status, body := postSignals(t, client, srv.URL+"/nav/toggle", srv.URL+"/crew", map[string]any{})
	if status != http.StatusOK || !strings.Contains(body, "/nav/select/Vessels") {
		t.Fatalf("toggle should open the option list, got %d:\n%s", status, body)
	}

	_, body = postSignals(t, client, srv.URL+"/nav/select/Vessels", srv.URL+"/crew", map[string]any{})
	if !strings.Contains(body, "window.location.replace") || !strings.Contains(body, "/vessels") {
		t.Fatalf("expected navigation script, got:\n%s", body)
	}

	_, body = postSignals(t, client, srv.URL+"/nav/select/Vessels", srv.URL+"/vessels", map[string]any{})
	if strings.Contains(body, "window.location.replace") || !strings.Contains(body, "category-selector") {
		t.Fatalf("selecting the current route should only patch the selector, got:\n%s", body)
	}
}

func TestAPIFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/crew/facet", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("facet: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"`+testEmail+`","password":"`+testPassword+`"}`))
	if err != nil {
		t.Fatalf("api login: %v", err)
	}
	var login struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&login)
	resp.Body.Close()
	if login.Token == "" {
		t.Fatalf("expected api token")
	}

	call := func(method, path, body string) *http.Response {
		req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+login.Token)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		return resp
	}

	resp = call(http.MethodPost, "/api/boardings", `[{"date":"2024-06-01T10:00:00Z","vessel":{"name":"Rachel"},"safetyLevel":{"level":"Green"},"captain":{"name":"Gardiner","license":"L9"}}]`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("import status %d", resp.StatusCode)
	}
	var imported application.ImportResult
	_ = json.NewDecoder(resp.Body).Decode(&imported)
	resp.Body.Close()
	if imported.Imported != 1 || len(imported.ExternalIDs) != 1 || imported.ExternalIDs[0] == "" {
		t.Fatalf("unexpected import result %+v", imported)
	}

	resp = call(http.MethodPost, "/api/crew/facet", `{"limit":10,"filter":{"safetyLevel.green":"Green"}}`)
	var page domain.CrewFacetPage
	_ = json.NewDecoder(resp.Body).Decode(&page)
	resp.Body.Close()
	if page.Amount != 1 || len(page.Rows) != 1 || page.Rows[0].Name != "Gardiner" {
		t.Fatalf("unexpected facet page %+v", page)
	}
	if !page.Rows[0].SafetyLevel.Nested {
		t.Fatalf("nested safety level should survive the round trip")
	}

	resp = call(http.MethodPost, "/api/crew/facet", `{"filter":{"bogus":"x"}}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown filter should be rejected, got %d", resp.StatusCode)
	}

	resp = call(http.MethodGet, "/api/filters", "")
	var filters domain.FilterConfiguration
	_ = json.NewDecoder(resp.Body).Decode(&filters)
	resp.Body.Close()
	if len(filters.Groups) != 3 {
		t.Fatalf("unexpected filters %+v", filters)
	}
}

func TestFilterSelectionFromSignals(t *testing.T) {
	cfg := config.DefaultFilters()
	got := filterSelectionFromSignals(cfg, map[string]any{
		"safetyLevel_red":     true,
		"safetyLevel_amber":   false,
		"date_from":           "2024-01-01",
		"location":            "  ",
		"vessel_permitNumber": "P-1",
		"unknown":             "x",
	})
	want := domain.FilterSelection{"safetyLevel.red": "Red", "date-from": "2024-01-01", "vessel.permitNumber": "P-1"}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}
}

func TestPagePathFromReferer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/nav/select/Crew", nil)
	if got := pagePathFromReferer(req); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
	req.Header.Set("Referer", "http://localhost:8080/boardings?q=pequod")
	if got := pagePathFromReferer(req); got != "/boardings" {
		t.Fatalf("expected /boardings, got %q", got)
	}
}
