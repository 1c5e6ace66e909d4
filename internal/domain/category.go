package domain

import (
	"fmt"
	"strings"
)

const (
	CategoryAll = "All"
	HomeRoute   = "home"
)

// Categories is the fixed option set of the category selector, in
// display order.
var Categories = []string{
	CategoryAll,
	"Boardings",
	"Vessels",
	"Crew",
	"Users",
	"Agencies",
	"Reports",
}

// CategoryRoute maps an option label to its route segment.
func CategoryRoute(option string) (string, error) {
	for _, candidate := range Categories {
		if candidate != option {
			continue
		}
		if option == CategoryAll {
			return HomeRoute, nil
		}
		return strings.ToLower(option), nil
	}
	return "", fmt.Errorf("unknown category %q", option)
}

// CategoryForRoute is the inverse of CategoryRoute.
func CategoryForRoute(route string) (string, bool) {
	route = strings.ToLower(strings.TrimSpace(route))
	if route == HomeRoute {
		return CategoryAll, true
	}
	for _, candidate := range Categories {
		if candidate != CategoryAll && strings.ToLower(candidate) == route {
			return candidate, true
		}
	}
	return "", false
}
