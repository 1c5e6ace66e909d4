package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/crewboard/internal/application"
	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"github.com/atvirokodosprendimai/crewboard/internal/ui"
	"github.com/go-chi/chi/v5"
)

const (
	sessionCookieName   = "cb_session"
	dashboardCookieName = "cb_view"
	sessionTTL          = 12 * time.Hour
)

type contextKey string

const (
	identityKey  contextKey = "identity"
	dashboardKey contextKey = "dashboard"
)

type Handler struct {
	service    *application.InspectionService
	dashboards *application.Dashboards
	logger     *slog.Logger
}

func NewRouter(service *application.InspectionService, dashboards *application.Dashboards, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{service: service, dashboards: dashboards, logger: logger}
	r := chi.NewRouter()

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", h.handleAPILogin)
		api.With(h.requireAuthAPI).Get("/auth/whoami", h.handleAPIWhoAmI)
		api.With(h.requireAuthAPI).Post("/auth/logout", h.handleAPILogout)
		api.With(h.requireAuthAPI).Post("/crew/facet", h.handleAPICrewFacet)
		api.With(h.requireAuthAPI).Get("/boardings", h.handleAPIListBoardings)
		api.With(h.requireAuthAPI).Post("/boardings", h.handleAPIImportBoardings)
		api.With(h.requireAuthAPI).Get("/users", h.handleAPIListUsers)
		api.With(h.requireAuthAPI).Post("/users", h.handleAPICreateUser)
		api.With(h.requireAuthAPI).Get("/filters", h.handleAPIFilters)
	})

	r.Group(func(gui chi.Router) {
		gui.Use(h.requireAuthGUI, h.withDashboard)

		gui.Get("/", h.handleHomeRedirect)
		gui.Get("/crew", h.handleCrewPage)
		gui.Post("/crew/search", h.handleCrewSearch)
		gui.Post("/crew/filter", h.handleCrewFilter)
		gui.Post("/crew/page/{page}", h.handleCrewChangePage)
		gui.Post("/crew/retry", h.handleCrewRetry)
		gui.Post("/nav/toggle", h.handleNavToggle)
		gui.Post("/nav/select/{option}", h.handleNavSelect)
		gui.Get("/{category}", h.handleCategoryPage)
	})

	return r
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if err := ui.LoginPage("").Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")

	_, token, err := h.service.LoginWithSession(r.Context(), email, password, sessionTTL)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = ui.LoginPage("invalid credentials").Render(r.Context(), w)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookieName)
	if err == nil && c.Value != "" {
		_ = h.service.LogoutSession(r.Context(), c.Value)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleHomeRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+domain.HomeRoute, http.StatusSeeOther)
}

func (h *Handler) handleCategoryPage(w http.ResponseWriter, r *http.Request) {
	label, ok := domain.CategoryForRoute(chi.URLParam(r, "category"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if label == "Crew" {
		h.handleCrewPage(w, r)
		return
	}

	dash := dashboardFromContext(r.Context())
	dash.Category.Mount(r.URL.Path)

	var body templ.Component
	switch label {
	case domain.CategoryAll:
		boardings, err := h.service.CountBoardings(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		users, err := h.service.CountUsers(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body = ui.HomePanel(boardings, users)
	case "Boardings":
		boardings, err := h.service.ListBoardings(r.Context(), r.URL.Query().Get("q"), 200)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body = ui.BoardingsTable(boardings)
	case "Users":
		users, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("q"), 500)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body = ui.UsersTable(users)
	default:
		body = ui.CategoryPanel(label)
	}

	if err := ui.Page(label, currentUserEmail(r.Context()), dash.Category.Snapshot(), body).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleCrewPage(w http.ResponseWriter, r *http.Request) {
	dash := dashboardFromContext(r.Context())
	dash.Category.Mount(r.URL.Path)

	// A failed load still renders the page; the panel shows the retry.
	_ = dash.Crew.Mount(r.Context())

	page := ui.Page("Crew", currentUserEmail(r.Context()), dash.Category.Snapshot(),
		ui.CrewPanel(dash.Crew.Snapshot(), h.service.Filters()))
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) requireAuthGUI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := h.authenticateRequest(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

func (h *Handler) requireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := h.authenticateRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

// withDashboard attaches the browser's dashboard, issuing a new view
// cookie when the browser has none or its dashboard expired.
func (h *Handler) withDashboard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(dashboardCookieName); err == nil {
			id = strings.TrimSpace(c.Value)
		}
		dash := h.dashboards.Get(id)
		if dash.ID != id {
			http.SetCookie(w, &http.Cookie{
				Name:     dashboardCookieName,
				Value:    dash.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), dashboardKey, dash)))
	})
}

func (h *Handler) authenticateRequest(r *http.Request) (domain.Identity, bool) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[7:])
		identity, err := h.service.AuthenticateBearerToken(r.Context(), token)
		if err == nil {
			return identity, true
		}
	}

	c, err := r.Cookie(sessionCookieName)
	if err == nil && strings.TrimSpace(c.Value) != "" {
		identity, authErr := h.service.AuthenticateSession(r.Context(), c.Value)
		if authErr == nil {
			return identity, true
		}
	}

	return domain.Identity{}, false
}

func identityFromContext(ctx context.Context) (domain.Identity, bool) {
	value := ctx.Value(identityKey)
	if value == nil {
		return domain.Identity{}, false
	}
	identity, ok := value.(domain.Identity)
	return identity, ok
}

func dashboardFromContext(ctx context.Context) *application.Dashboard {
	dash, _ := ctx.Value(dashboardKey).(*application.Dashboard)
	return dash
}

func currentUserEmail(ctx context.Context) string {
	identity, ok := identityFromContext(ctx)
	if !ok {
		return ""
	}
	return identity.User.Email
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func parsePositiveInt(raw, field string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", field)
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pagePathFromReferer(r *http.Request) string {
	referer := strings.TrimSpace(r.Referer())
	if referer == "" {
		return ""
	}
	parsed, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	return parsed.Path
}

func renderHTMLFragments(ctx context.Context, w http.ResponseWriter, status int, fragments ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}
		_ = fragment.Render(ctx, w)
	}
}

func (h *Handler) renderFlash(ctx context.Context, w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if status >= 400 {
		_ = ui.Flash(message, "error").Render(ctx, w)
		return
	}
	_ = ui.Flash(message, "info").Render(ctx, w)
}
