package application

import (
	"regexp"
	"strings"
	"sync"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var routeToken = regexp.MustCompile(`[a-zA-Z]+`)

// CategorySelector is the dropdown that switches between entity
// categories.
type CategorySelector struct {
	search *SearchState

	mu              sync.Mutex
	selected        string
	showOptionsList bool
}

type CategorySelectorState struct {
	Selected        string
	ShowOptionsList bool
	Options         []string
}

func NewCategorySelector(search *SearchState) *CategorySelector {
	return &CategorySelector{search: search}
}

// Mount derives the selection from the first word of the route path.
func (c *CategorySelector) Mount(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = CategoryLabelForPath(path)
	c.showOptionsList = false
}

func (c *CategorySelector) Toggle() {
	c.mu.Lock()
	c.showOptionsList = !c.showOptionsList
	c.mu.Unlock()
}

// Select navigates to the option's route unless the navigator is already
// there, clears the shared search and closes the list.
func (c *CategorySelector) Select(nav domain.Navigator, option string) error {
	route, err := domain.CategoryRoute(option)
	if err != nil {
		return err
	}
	target := "/" + route
	if nav.CurrentPath() != target {
		if err := nav.Replace(target); err != nil {
			return err
		}
	}
	if c.search != nil {
		c.search.Reset()
	}

	c.mu.Lock()
	c.selected = option
	c.showOptionsList = false
	c.mu.Unlock()
	return nil
}

func (c *CategorySelector) Snapshot() CategorySelectorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CategorySelectorState{
		Selected:        c.selected,
		ShowOptionsList: c.showOptionsList,
		Options:         append([]string(nil), domain.Categories...),
	}
}

// CategoryLabelForPath turns "/vessels/12" into "Vessels" and "/home"
// into "All". Paths without a word yield "".
func CategoryLabelForPath(path string) string {
	token := routeToken.FindString(path)
	if token == "" {
		return ""
	}
	if label, ok := domain.CategoryForRoute(token); ok {
		return label
	}
	return cases.Title(language.English).String(strings.ToLower(token))
}
