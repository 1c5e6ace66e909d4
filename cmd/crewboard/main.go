package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sqliteadapter "github.com/atvirokodosprendimai/crewboard/internal/adapters/db/sqlite"
	httpadapter "github.com/atvirokodosprendimai/crewboard/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/crewboard/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/crewboard/internal/adapters/searchapi"
	"github.com/atvirokodosprendimai/crewboard/internal/application"
	"github.com/atvirokodosprendimai/crewboard/internal/config"
	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"github.com/urfave/cli/v3"
)

const (
	defaultServer = "http://127.0.0.1:8080"
	defaultSocket = "/tmp/crewboard.sock"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatal(err)
	}

	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "crewboard",
		Usage: "Boarding inspection dashboard server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			crewCommand(),
			boardingsCommand(),
			usersCommand(),
			filtersCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

type serverOptions struct {
	Addr              string
	RPCSocket         string
	DBPath            string
	FiltersPath       string
	BackendURL        string
	BackendToken      string
	BootstrapEmail    string
	BootstrapPassword string
	DashboardTTL      time.Duration
	LogLevel          string
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server and JSON-RPC socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address", Sources: cli.EnvVars("CREWBOARD_ADDR")},
			&cli.StringFlag{Name: "rpc-socket", Value: defaultSocket, Usage: "JSON-RPC unix socket path", Sources: cli.EnvVars("CREWBOARD_RPC_SOCKET")},
			&cli.StringFlag{Name: "db-path", Value: "crewboard.db", Usage: "SQLite database path", Sources: cli.EnvVars("CREWBOARD_DB_PATH")},
			&cli.StringFlag{Name: "filters", Usage: "filter configuration TOML file (embedded default when empty)", Sources: cli.EnvVars("CREWBOARD_FILTERS")},
			&cli.StringFlag{Name: "backend-url", Usage: "serve the crew view from a remote crewboard API instead of the local database", Sources: cli.EnvVars("CREWBOARD_BACKEND_URL")},
			&cli.StringFlag{Name: "backend-token", Usage: "bearer token for --backend-url", Sources: cli.EnvVars("CREWBOARD_BACKEND_TOKEN")},
			&cli.StringFlag{Name: "bootstrap-admin-email", Value: "admin@crewboard.local", Usage: "initial admin email", Sources: cli.EnvVars("CREWBOARD_ADMIN_EMAIL")},
			&cli.StringFlag{Name: "bootstrap-admin-password", Value: "admin", Usage: "initial admin password when users are empty", Sources: cli.EnvVars("CREWBOARD_ADMIN_PASSWORD")},
			&cli.DurationFlag{Name: "dashboard-ttl", Value: 12 * time.Hour, Usage: "idle time after which a browser's view state is dropped", Sources: cli.EnvVars("CREWBOARD_DASHBOARD_TTL")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("CREWBOARD_LOG_LEVEL")},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, serverOptions{
				Addr:              c.String("addr"),
				RPCSocket:         c.String("rpc-socket"),
				DBPath:            c.String("db-path"),
				FiltersPath:       c.String("filters"),
				BackendURL:        c.String("backend-url"),
				BackendToken:      c.String("backend-token"),
				BootstrapEmail:    c.String("bootstrap-admin-email"),
				BootstrapPassword: c.String("bootstrap-admin-password"),
				DashboardTTL:      c.Duration("dashboard-ttl"),
				LogLevel:          c.String("log-level"),
			})
		},
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func runServer(ctx context.Context, opts serverOptions) error {
	logger, err := newLogger(opts.LogLevel)
	if err != nil {
		return err
	}

	filters, err := config.LoadFilters(opts.FiltersPath)
	if err != nil {
		return err
	}

	var gateway domain.CrewGateway
	var remote *searchapi.Client
	if strings.TrimSpace(opts.BackendURL) != "" {
		remote = searchapi.New(opts.BackendURL, opts.BackendToken, searchapi.DefaultTimeout)
		gateway = remote
		if opts.FiltersPath == "" {
			remoteFilters, err := remote.Filters(ctx)
			if err != nil {
				return fmt.Errorf("load filters from backend: %w", err)
			}
			filters = remoteFilters
		}
	}

	db, err := sqliteadapter.Open(opts.DBPath)
	if err != nil {
		return err
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}

	repo := sqliteadapter.NewInspectionRepository(db, filters)
	service := application.NewInspectionService(repo, filters)
	if err := service.BootstrapAdmin(ctx, opts.BootstrapEmail, opts.BootstrapPassword); err != nil {
		return err
	}
	if gateway == nil {
		gateway = service
	}

	dashboards := application.NewDashboards(gateway, logger, opts.DashboardTTL)
	router := httpadapter.NewRouter(service, dashboards, logger)
	srv := &http.Server{Addr: opts.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(opts.RPCSocket, service, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = rpcSrv.Close()
	}()
	logger.Info("json-rpc listening", "socket", "unix://"+opts.RPCSocket)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "remote_backend", remote != nil)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds", Usage: "uds or http"},
					&cli.StringFlag{Name: "server", Value: defaultServer, Sources: cli.EnvVars("CREWBOARD_SERVER")},
					&cli.StringFlag{Name: "socket", Value: defaultSocket, Sources: cli.EnvVars("CREWBOARD_RPC_SOCKET")},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("CREWBOARD_PASSWORD")},
					&cli.StringFlag{Name: "token-name", Value: "cli"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					var out struct {
						Token string `json:"token"`
						Email string `json:"email"`
					}
					if err := doLogin(ctx, cfg, c.String("email"), c.String("password"), c.String("token-name"), &out); err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.Email)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show current authenticated user",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						ID    uint   `json:"id"`
						Email string `json:"email"`
					}
					if err := doWhoAmI(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{{"id", fmt.Sprint(out.ID)}, {"email", out.Email}})
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Clear local CLI auth token",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					_ = doLogout(ctx, cfg)
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func crewCommand() *cli.Command {
	return &cli.Command{
		Name:  "crew",
		Usage: "Crew commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List crew members, aggregated the way the dashboard shows them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Usage: "search text"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: application.DefaultCrewPageSize},
					&cli.StringSliceFlag{Name: "filter", Usage: "name=value, repeatable (see filters show)"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					selection, err := parseFilterFlags(c.StringSlice("filter"))
					if err != nil {
						return err
					}
					page := c.Int("page")
					if page < 1 {
						return fmt.Errorf("page must be positive, got %d", page)
					}
					limit := c.Int("limit")
					query := domain.CrewFacetQuery{
						Query:  strings.TrimSpace(c.String("q")),
						Limit:  limit,
						Offset: (page - 1) * limit,
						Filter: selection,
					}
					var out domain.CrewFacetPage
					if err := doCrewFacet(ctx, cfg, query, &out); err != nil {
						return err
					}
					rows, total := out.Rows, out.Amount
					if query.Query != "" {
						rows = application.AggregateCrew(out.Hits)
						total = len(rows)
					}
					if c.Bool("json") {
						return printJSON(rows)
					}
					printCrewRows(rows)
					fmt.Printf("\n%d crew members\n", total)
					return nil
				},
			},
		},
	}
}

func boardingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "boardings",
		Usage: "Boarding commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List boardings, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Usage: "vessel, captain or location text"},
					&cli.IntFlag{Name: "limit", Value: 100},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Boarding
					if err := doBoardingsList(ctx, cfg, c.String("q"), c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printBoardings(out)
					return nil
				},
			},
			{
				Name:  "import",
				Usage: "Import boardings from a JSON array file (- for stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					values, err := readBoardings(c.String("file"))
					if err != nil {
						return err
					}
					var out application.ImportResult
					if err := doBoardingsImport(ctx, cfg, values, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{
						{"imported", fmt.Sprint(out.Imported)},
						{"external_ids", strings.Join(out.ExternalIDs, ",")},
					})
					return nil
				},
			},
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "User commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users",
				Flags: []cli.Flag{&cli.StringFlag{Name: "q"}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.User
					if err := doUsersList(ctx, cfg, c.String("q"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printUsers(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.User
					if err := doUsersCreate(ctx, cfg, c.String("email"), c.String("password"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printUsers([]domain.User{out})
					return nil
				},
			},
		},
	}
}

func filtersCommand() *cli.Command {
	return &cli.Command{
		Name:  "filters",
		Usage: "Filter configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the filters the server accepts",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.FilterConfiguration
					if err := doFilters(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printFilters(out)
					return nil
				},
			},
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func parseFilterFlags(values []string) (domain.FilterSelection, error) {
	selection := make(domain.FilterSelection, len(values))
	for _, raw := range values {
		name, value, ok := strings.Cut(raw, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("filter must be name=value, got %q", raw)
		}
		selection[name] = value
	}
	return selection, nil
}

func readBoardings(path string) ([]domain.Boarding, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	var values []domain.Boarding
	if err := json.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("decode boardings: %w", err)
	}
	return values, nil
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
