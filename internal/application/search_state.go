package application

import "sync"

// SearchState is the search query shared by the views of one dashboard
// session. It is created at the composition root and handed to every
// view that reads or clears it.
type SearchState struct {
	mu    sync.Mutex
	query string
}

func NewSearchState(query string) *SearchState {
	return &SearchState{query: query}
}

func (s *SearchState) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *SearchState) SetQuery(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
}

func (s *SearchState) Reset() {
	s.SetQuery("")
}
