package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/crewboard/internal/application"
	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"github.com/atvirokodosprendimai/crewboard/internal/ui"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
)

type crewSignals struct {
	CrewQuery  string         `json:"crewQuery"`
	CrewFilter map[string]any `json:"crewFilter"`
}

func (h *Handler) handleCrewSearch(w http.ResponseWriter, r *http.Request) {
	var sig crewSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, "invalid search")
		return
	}
	dash := dashboardFromContext(r.Context())
	h.renderCrewResults(w, r, dash, dash.Crew.Search(r.Context(), strings.TrimSpace(sig.CrewQuery)))
}

func (h *Handler) handleCrewFilter(w http.ResponseWriter, r *http.Request) {
	var sig crewSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, "invalid filter")
		return
	}
	dash := dashboardFromContext(r.Context())
	selection := filterSelectionFromSignals(h.service.Filters(), sig.CrewFilter)
	h.renderCrewResults(w, r, dash, dash.Crew.ChangeFilter(r.Context(), selection))
}

func (h *Handler) handleCrewChangePage(w http.ResponseWriter, r *http.Request) {
	page, err := parsePositiveInt(chi.URLParam(r, "page"), "page")
	if err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	dash := dashboardFromContext(r.Context())
	h.renderCrewResults(w, r, dash, dash.Crew.ChangePage(r.Context(), page))
}

func (h *Handler) handleCrewRetry(w http.ResponseWriter, r *http.Request) {
	dash := dashboardFromContext(r.Context())
	h.renderCrewResults(w, r, dash, dash.Crew.Retry(r.Context()))
}

// renderCrewResults answers with the refreshed results fragment. Load
// failures are part of the view state and render as the retry panel.
func (h *Handler) renderCrewResults(w http.ResponseWriter, r *http.Request, dash *application.Dashboard, err error) {
	if err != nil && application.IsCanceled(err) {
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK, ui.CrewResults(dash.Crew.Snapshot()))
}

func (h *Handler) handleNavToggle(w http.ResponseWriter, r *http.Request) {
	dash := dashboardFromContext(r.Context())
	dash.Category.Toggle()
	renderHTMLFragments(r.Context(), w, http.StatusOK, ui.CategorySelector(dash.Category.Snapshot()))
}

func (h *Handler) handleNavSelect(w http.ResponseWriter, r *http.Request) {
	dash := dashboardFromContext(r.Context())
	option := chi.URLParam(r, "option")

	sse := datastar.NewSSE(w, r)
	nav := &sseNavigator{sse: sse, current: pagePathFromReferer(r)}
	if err := dash.Category.Select(nav, option); err != nil {
		h.logger.Warn("category select failed", "option", option, "error", err)
		_ = patchComponent(r, sse, ui.Flash(err.Error(), "error"))
		return
	}
	if !nav.navigated {
		_ = patchComponent(r, sse, ui.CategorySelector(dash.Category.Snapshot()))
	}
}

// sseNavigator replaces the browser location through a datastar script
// event on the open SSE stream.
type sseNavigator struct {
	sse       *datastar.ServerSentEventGenerator
	current   string
	navigated bool
}

func (n *sseNavigator) CurrentPath() string {
	return n.current
}

func (n *sseNavigator) Replace(path string) error {
	if err := n.sse.ExecuteScript(fmt.Sprintf("window.location.replace(%q)", path)); err != nil {
		return err
	}
	n.current = path
	n.navigated = true
	return nil
}

func patchComponent(r *http.Request, sse *datastar.ServerSentEventGenerator, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		return err
	}
	return sse.PatchElements(buf.String())
}

// filterSelectionFromSignals maps the crewFilter signal object back onto
// filter names. Risk checkboxes arrive as booleans and select the
// field's configured value.
func filterSelectionFromSignals(cfg domain.FilterConfiguration, raw map[string]any) domain.FilterSelection {
	selection := make(domain.FilterSelection)
	for _, group := range cfg.Groups {
		for _, field := range group.Fields {
			value, ok := raw[ui.SignalKey(field.Name)]
			if !ok {
				continue
			}
			text := signalString(value)
			if text == "" {
				continue
			}
			if field.Kind() == domain.FilterTypeRisk {
				if text == "false" {
					continue
				}
				text = field.Value
			}
			selection[field.Name] = text
		}
	}
	return selection
}

func signalString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
