package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

const DefaultCrewPageSize = 50

// CrewViewState is everything the crew table renders.
type CrewViewState struct {
	Rows        []domain.CrewRow
	Total       int
	Page        int
	Limit       int
	Offset      int
	Query       string
	Filter      domain.FilterSelection
	Highlighted []string
	Loading     bool
	Err         error
}

func (s CrewViewState) PageCount() int {
	if s.Limit <= 0 || s.Total <= 0 {
		return 0
	}
	return (s.Total + s.Limit - 1) / s.Limit
}

func (s CrewViewState) ShowPagination() bool {
	return s.Total > s.Limit
}

func (s CrewViewState) Empty() bool {
	return len(s.Rows) == 0 && !s.Loading
}

// CrewView holds the search, filter and pagination state of the crew
// table and reloads it from the gateway on every change.
//
// Each load takes a sequence number; a response that arrives after a
// newer load was issued is dropped, so the state always reflects the
// most recent request.
type CrewView struct {
	gateway domain.CrewGateway
	search  *SearchState
	logger  *slog.Logger

	mu    sync.Mutex
	state CrewViewState
	seq   uint64
}

func NewCrewView(gateway domain.CrewGateway, search *SearchState, logger *slog.Logger) *CrewView {
	if logger == nil {
		logger = slog.Default()
	}
	v := &CrewView{gateway: gateway, search: search, logger: logger}
	v.state = v.defaultState()
	return v
}

func (v *CrewView) defaultState() CrewViewState {
	query := ""
	if v.search != nil {
		query = v.search.Query()
	}
	return CrewViewState{
		Page:        1,
		Limit:       DefaultCrewPageSize,
		Query:       query,
		Highlighted: []string{},
	}
}

// Mount resets the view to its defaults and performs the initial load.
func (v *CrewView) Mount(ctx context.Context) error {
	v.mu.Lock()
	v.state = v.defaultState()
	v.mu.Unlock()
	return v.load(ctx, nil)
}

// Search replaces the query and starts again from the first page.
func (v *CrewView) Search(ctx context.Context, text string) error {
	if v.search != nil {
		v.search.SetQuery(text)
	}
	return v.load(ctx, func(s *CrewViewState) {
		s.Query = text
		s.Offset = 0
		s.Page = 1
	})
}

func (v *CrewView) ChangePage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("page must be positive, got %d", page)
	}
	return v.load(ctx, func(s *CrewViewState) {
		s.Offset = (page - 1) * s.Limit
		s.Page = page
	})
}

// ChangeFilter applies a new filter selection. The current offset is
// kept.
func (v *CrewView) ChangeFilter(ctx context.Context, filter domain.FilterSelection) error {
	return v.load(ctx, func(s *CrewViewState) {
		s.Filter = filter.Clone()
	})
}

// Retry repeats the last load with unchanged state.
func (v *CrewView) Retry(ctx context.Context) error {
	return v.load(ctx, nil)
}

func (v *CrewView) Snapshot() CrewViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.state
	out.Rows = append([]domain.CrewRow(nil), v.state.Rows...)
	out.Highlighted = append([]string(nil), v.state.Highlighted...)
	out.Filter = v.state.Filter.Clone()
	return out
}

func (v *CrewView) load(ctx context.Context, mutate func(*CrewViewState)) error {
	v.mu.Lock()
	if mutate != nil {
		mutate(&v.state)
	}
	v.state.Loading = true
	v.seq++
	seq := v.seq
	query := domain.CrewFacetQuery{
		Limit:  v.state.Limit,
		Offset: v.state.Offset,
		Query:  v.state.Query,
		Filter: v.state.Filter.Clone(),
	}
	v.mu.Unlock()

	page, err := v.gateway.FetchCrewFacet(ctx, query)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq {
		v.logger.Debug("dropping stale crew response", "seq", seq, "latest", v.seq)
		return nil
	}

	v.state.Loading = false
	if IsCanceled(err) {
		// the browser went away or superseded the request; keep the last good state
		v.logger.Debug("crew load canceled", "query", query.Query, "offset", query.Offset)
		return fmt.Errorf("load crew: %w", err)
	}
	if err != nil {
		v.logger.Error("load crew facet failed",
			"query", query.Query,
			"offset", query.Offset,
			"limit", query.Limit,
			"error", err,
		)
		v.state.Err = err
		return fmt.Errorf("load crew: %w", err)
	}
	v.state.Err = nil

	if query.Query != "" {
		v.state.Rows = AggregateCrew(page.Hits)
		v.state.Total = len(v.state.Rows)
	} else {
		v.state.Rows = page.Rows
		v.state.Total = max(page.Amount, 0)
	}
	if v.state.Rows == nil {
		v.state.Rows = []domain.CrewRow{}
	}

	if query.Query != "" || len(page.Highlights) > 0 {
		v.state.Highlighted = HighlightedTerms(page.Highlights)
	} else {
		v.state.Highlighted = []string{}
	}
	return nil
}

// IsCanceled reports whether err came from the request going away
// rather than from the backend.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
