package application

import (
	"log/slog"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"github.com/google/uuid"
)

// Dashboard is the view state of one browser: the shared search query
// and the views that read it.
type Dashboard struct {
	ID       string
	Search   *SearchState
	Crew     *CrewView
	Category *CategorySelector

	lastSeen time.Time
}

// Dashboards keeps one Dashboard per browser and forgets those idle for
// longer than the TTL.
type Dashboards struct {
	gateway domain.CrewGateway
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*Dashboard
}

func NewDashboards(gateway domain.CrewGateway, logger *slog.Logger, ttl time.Duration) *Dashboards {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Dashboards{
		gateway: gateway,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*Dashboard),
	}
}

// Get returns the dashboard for id, creating a fresh one under a new id
// when id is unknown or expired.
func (d *Dashboards) Get(id string) *Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.sweepLocked(now)

	if dash, ok := d.items[id]; ok && id != "" {
		dash.lastSeen = now
		return dash
	}

	search := NewSearchState("")
	dash := &Dashboard{
		ID:       uuid.NewString(),
		Search:   search,
		Crew:     NewCrewView(d.gateway, search, d.logger),
		Category: NewCategorySelector(search),
		lastSeen: now,
	}
	d.items[dash.ID] = dash
	return dash
}

func (d *Dashboards) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

func (d *Dashboards) sweepLocked(now time.Time) {
	for id, dash := range d.items {
		if now.Sub(dash.lastSeen) > d.ttl {
			delete(d.items, id)
		}
	}
}
