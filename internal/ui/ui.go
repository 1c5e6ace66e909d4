package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

const DateLayout = "January 2, 2006 3:04 PM"

var riskColors = map[string]string{
	"red":                     "#d9534f",
	"amber":                   "#f0ad4e",
	"green":                   "#5cb85c",
	domain.UnknownSafetyLevel: "#9e9e9e",
}

var templates = template.Must(template.New("ui").Funcs(template.FuncMap{
	"highlight":  Highlight,
	"formatDate": FormatDate,
	"riskStyle":  riskStyle,
	"signalKey":  SignalKey,
	"pageItems":  pageItems,
	"isCaptain":  func(rank string) bool { return rank == domain.RankCaptain },
}).Parse(layoutTemplates + crewTemplates + listTemplates))

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}

func renderString(ctx context.Context, c templ.Component) (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// RiskColor maps a safety level to its indicator colour. Levels without a
// colour of their own share the unknown one.
func RiskColor(level domain.SafetyLevel) string {
	if color, ok := riskColors[level.Level()]; ok {
		return color
	}
	return riskColors[domain.UnknownSafetyLevel]
}

func riskStyle(level domain.SafetyLevel) template.CSS {
	return template.CSS("background: " + RiskColor(level))
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// SignalKey turns a filter name such as "safetyLevel.red" into a key that
// is safe to use as a datastar signal name.
func SignalKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// CrewSignals is the initial datastar signal set of the crew page.
func CrewSignals(query string, filters domain.FilterConfiguration, selection domain.FilterSelection) string {
	filter := make(map[string]any)
	for _, group := range filters.Groups {
		for _, field := range group.Fields {
			value := selection[field.Name]
			if field.Kind() == domain.FilterTypeRisk {
				filter[SignalKey(field.Name)] = value != ""
				continue
			}
			filter[SignalKey(field.Name)] = value
		}
	}
	raw, err := json.Marshal(map[string]any{"crewQuery": query, "crewFilter": filter, "crewLoading": false})
	if err != nil {
		return "{}"
	}
	return string(raw)
}

type pageItem struct {
	Number  int
	Current bool
	Gap     bool
}

// pageItems lists the first and last page and two pages either side of
// the current one, with gaps in between.
func pageItems(current, count int) []pageItem {
	items := make([]pageItem, 0, 9)
	gap := false
	for n := 1; n <= count; n++ {
		if n == 1 || n == count || (n >= current-2 && n <= current+2) {
			items = append(items, pageItem{Number: n, Current: n == current})
			gap = false
			continue
		}
		if !gap {
			items = append(items, pageItem{Gap: true})
			gap = true
		}
	}
	return items
}
