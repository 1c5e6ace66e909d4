package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

type fakeGateway struct {
	mu      sync.Mutex
	calls   []domain.CrewFacetQuery
	page    domain.CrewFacetPage
	err     error
	respond func(domain.CrewFacetQuery) (domain.CrewFacetPage, error)
}

func (g *fakeGateway) FetchCrewFacet(ctx context.Context, query domain.CrewFacetQuery) (domain.CrewFacetPage, error) {
	g.mu.Lock()
	g.calls = append(g.calls, query)
	respond := g.respond
	page, err := g.page, g.err
	g.mu.Unlock()
	if respond != nil {
		return respond(query)
	}
	return page, err
}

func (g *fakeGateway) lastCall(t *testing.T) domain.CrewFacetQuery {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		t.Fatalf("gateway was not called")
	}
	return g.calls[len(g.calls)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMountLoadsDefaultsWithoutAggregation(t *testing.T) {
	rows := []domain.CrewRow{
		{Name: "Zed", License: "L1", Vessel: "V1", Violations: 3},
		{Name: "Abe", License: "L2", Vessel: "V1", Violations: 1},
	}
	gw := &fakeGateway{page: domain.CrewFacetPage{Rows: rows, Amount: 120}}
	view := NewCrewView(gw, NewSearchState(""), discardLogger())

	if err := view.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}

	call := gw.lastCall(t)
	if call.Limit != DefaultCrewPageSize || call.Offset != 0 || call.Query != "" {
		t.Fatalf("unexpected initial query %+v", call)
	}
	state := view.Snapshot()
	if state.Total != 120 {
		t.Fatalf("expected total from amount, got %d", state.Total)
	}
	if len(state.Rows) != 2 || state.Rows[0].Name != "Zed" {
		t.Fatalf("rows without query must be passed through untouched, got %+v", state.Rows)
	}
	if state.Loading {
		t.Fatalf("loading should be cleared")
	}
	if len(state.Highlighted) != 0 {
		t.Fatalf("expected no highlighted terms, got %v", state.Highlighted)
	}
	if !state.ShowPagination() || state.PageCount() != 3 {
		t.Fatalf("expected 3 pages with pagination shown, got %d", state.PageCount())
	}
}

func TestMountRestoresSharedQuery(t *testing.T) {
	gw := &fakeGateway{}
	view := NewCrewView(gw, NewSearchState("ahab"), discardLogger())
	if err := view.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if got := gw.lastCall(t).Query; got != "ahab" {
		t.Fatalf("expected restored query, got %q", got)
	}
}

func TestSearchAggregatesAndResetsOffset(t *testing.T) {
	gw := &fakeGateway{page: domain.CrewFacetPage{
		Hits: []domain.CrewHit{
			captainHit("Ahab", "L1", "V1", "Red", 2, day1),
			captainHit("Ahab", "L1", "V1", "Red", 3, day2),
		},
		Amount: 40,
		Highlights: []domain.Highlight{{
			Path:  "captain.name",
			Texts: []domain.HighlightText{{Value: "Ahab", Type: domain.HighlightTypeHit}},
		}},
	}}
	search := NewSearchState("")
	view := NewCrewView(gw, search, discardLogger())
	ctx := context.Background()

	if err := view.ChangePage(ctx, 3); err != nil {
		t.Fatalf("change page: %v", err)
	}
	if err := view.Search(ctx, "Ahab"); err != nil {
		t.Fatalf("search: %v", err)
	}

	call := gw.lastCall(t)
	if call.Offset != 0 || call.Query != "Ahab" {
		t.Fatalf("search should reset offset, got %+v", call)
	}
	if search.Query() != "Ahab" {
		t.Fatalf("shared query not updated, got %q", search.Query())
	}
	state := view.Snapshot()
	if state.Total != 1 {
		t.Fatalf("total must be the aggregated row count, got %d", state.Total)
	}
	if state.Rows[0].Violations != 5 || !state.Rows[0].Date.Equal(day2) {
		t.Fatalf("unexpected aggregated row %+v", state.Rows[0])
	}
	if len(state.Highlighted) != 1 || state.Highlighted[0] != "Ahab" {
		t.Fatalf("unexpected highlighted terms %v", state.Highlighted)
	}
	if state.Page != 1 {
		t.Fatalf("expected page reset to 1, got %d", state.Page)
	}
}

func TestChangePageComputesOffset(t *testing.T) {
	gw := &fakeGateway{}
	view := NewCrewView(gw, nil, discardLogger())
	ctx := context.Background()

	for _, page := range []int{1, 2, 7} {
		if err := view.ChangePage(ctx, page); err != nil {
			t.Fatalf("change page %d: %v", page, err)
		}
		if got, want := gw.lastCall(t).Offset, (page-1)*DefaultCrewPageSize; got != want {
			t.Fatalf("page %d: offset %d, want %d", page, got, want)
		}
	}
	if err := view.ChangePage(ctx, 0); err == nil {
		t.Fatalf("expected error for page 0")
	}
}

func TestChangeFilterKeepsOffsetAndQuery(t *testing.T) {
	gw := &fakeGateway{}
	view := NewCrewView(gw, nil, discardLogger())
	ctx := context.Background()

	_ = view.Search(ctx, "pip")
	_ = view.ChangePage(ctx, 2)
	filter := domain.FilterSelection{"safetyLevel.red": "Red"}
	if err := view.ChangeFilter(ctx, filter); err != nil {
		t.Fatalf("change filter: %v", err)
	}
	filter["safetyLevel.red"] = "mutated"

	call := gw.lastCall(t)
	if call.Offset != DefaultCrewPageSize || call.Query != "pip" {
		t.Fatalf("filter change must keep offset and query, got %+v", call)
	}
	if call.Filter["safetyLevel.red"] != "Red" {
		t.Fatalf("filter not forwarded or not copied, got %+v", call.Filter)
	}
}

func TestFailureClearsLoadingAndKeepsRows(t *testing.T) {
	rows := []domain.CrewRow{{Name: "Pip", License: "L7", Vessel: "V1"}}
	gw := &fakeGateway{page: domain.CrewFacetPage{Rows: rows, Amount: 1}}
	var logs bytes.Buffer
	view := NewCrewView(gw, nil, slog.New(slog.NewTextHandler(&logs, nil)))
	ctx := context.Background()

	if err := view.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}

	gw.mu.Lock()
	gw.err = errors.New("backend down")
	gw.mu.Unlock()

	if err := view.ChangePage(ctx, 2); err == nil {
		t.Fatalf("expected error")
	}
	state := view.Snapshot()
	if state.Loading {
		t.Fatalf("loading must be reset after failure")
	}
	if state.Err == nil {
		t.Fatalf("expected error to be surfaced")
	}
	if len(state.Rows) != 1 || state.Rows[0].Name != "Pip" {
		t.Fatalf("rows must not be replaced on failure, got %+v", state.Rows)
	}
	if !strings.Contains(logs.String(), "backend down") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}

	gw.mu.Lock()
	gw.err = nil
	gw.mu.Unlock()
	if err := view.Retry(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if view.Snapshot().Err != nil {
		t.Fatalf("retry should clear the error")
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	gw := &fakeGateway{respond: func(q domain.CrewFacetQuery) (domain.CrewFacetPage, error) {
		if q.Query == "slow" {
			started <- struct{}{}
			<-release
			return domain.CrewFacetPage{Hits: []domain.CrewHit{captainHit("Slow", "S1", "V1", "Red", 1, day1)}}, nil
		}
		return domain.CrewFacetPage{Hits: []domain.CrewHit{captainHit("Fast", "F1", "V1", "Red", 1, day1)}}, nil
	}}
	view := NewCrewView(gw, nil, discardLogger())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- view.Search(ctx, "slow") }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("slow request never started")
	}
	if err := view.Search(ctx, "fast"); err != nil {
		t.Fatalf("fast search: %v", err)
	}
	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("slow search: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("slow request never finished")
	}

	state := view.Snapshot()
	if len(state.Rows) != 1 || state.Rows[0].Name != "Fast" {
		t.Fatalf("expected the latest response to win, got %+v", state.Rows)
	}
	if state.Query != "fast" || state.Loading {
		t.Fatalf("unexpected final state %+v", state)
	}
}

func TestLoadingIsSetWhileFetchRuns(t *testing.T) {
	var view *CrewView
	var during CrewViewState
	gw := &fakeGateway{respond: func(domain.CrewFacetQuery) (domain.CrewFacetPage, error) {
		during = view.Snapshot()
		return domain.CrewFacetPage{Rows: []domain.CrewRow{{Name: "Pip", License: "L7", Vessel: "V1"}}, Amount: 1}, nil
	}}
	view = NewCrewView(gw, nil, discardLogger())
	ctx := context.Background()

	if view.Snapshot().Loading {
		t.Fatalf("new view should be idle")
	}
	if err := view.Search(ctx, "pip"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if !during.Loading {
		t.Fatalf("loading must be set before the gateway is called")
	}
	if during.Query != "pip" || during.Offset != 0 {
		t.Fatalf("state seen by the fetch should already carry the new query, got %+v", during)
	}
	if view.Snapshot().Loading {
		t.Fatalf("loading must be cleared after the response")
	}
}

func TestCanceledLoadKeepsStateWithoutError(t *testing.T) {
	rows := []domain.CrewRow{{Name: "Pip", License: "L7", Vessel: "V1"}}
	gw := &fakeGateway{page: domain.CrewFacetPage{Rows: rows, Amount: 1}}
	var logs bytes.Buffer
	view := NewCrewView(gw, nil, slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()

	if err := view.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	gw.mu.Lock()
	gw.err = context.Canceled
	gw.mu.Unlock()

	err := view.ChangePage(ctx, 2)
	if !IsCanceled(err) {
		t.Fatalf("expected a canceled error, got %v", err)
	}
	state := view.Snapshot()
	if state.Loading || state.Err != nil {
		t.Fatalf("canceled load must leave an idle state without error, got loading=%v err=%v", state.Loading, state.Err)
	}
	if len(state.Rows) != 1 || state.Rows[0].Name != "Pip" {
		t.Fatalf("rows must survive a canceled load, got %+v", state.Rows)
	}
	if strings.Contains(logs.String(), "level=ERROR") || !strings.Contains(logs.String(), "crew load canceled") {
		t.Fatalf("canceled load should only log at debug level, got %q", logs.String())
	}
}
