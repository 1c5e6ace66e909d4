package ui

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/crewboard/internal/application"
	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

type pageView struct {
	Title    string
	Email    string
	Selector application.CategorySelectorState
	Body     template.HTML
}

type crewView struct {
	State   application.CrewViewState
	Filters domain.FilterConfiguration
	Signals string
}

type flashView struct {
	Message string
	Kind    string
}

type homeView struct {
	Boardings int64
	Users     int64
}

// Page wraps body in the dashboard layout with the category selector in
// the header.
func Page(title, email string, selector application.CategorySelectorState, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html, err := renderString(ctx, body)
		if err != nil {
			return err
		}
		return templates.ExecuteTemplate(w, "page", pageView{Title: title, Email: email, Selector: selector, Body: html})
	})
}

func LoginPage(message string) templ.Component {
	return render("login", message)
}

func Flash(message, kind string) templ.Component {
	return render("flash", flashView{Message: message, Kind: kind})
}

func CategorySelector(state application.CategorySelectorState) templ.Component {
	return render("selector", state)
}

func CrewPanel(state application.CrewViewState, filters domain.FilterConfiguration) templ.Component {
	return render("crew", crewView{
		State:   state,
		Filters: filters,
		Signals: CrewSignals(state.Query, filters, state.Filter),
	})
}

// CrewResults is the part of the crew panel that changes on every load:
// counter, table and pagination.
func CrewResults(state application.CrewViewState) templ.Component {
	return render("crewResults", state)
}

func HomePanel(boardings, users int64) templ.Component {
	return render("home", homeView{Boardings: boardings, Users: users})
}

func BoardingsTable(boardings []domain.Boarding) templ.Component {
	return render("boardings", boardings)
}

func UsersTable(users []domain.User) templ.Component {
	return render("users", users)
}

func CategoryPanel(label string) templ.Component {
	return render("category", label)
}
