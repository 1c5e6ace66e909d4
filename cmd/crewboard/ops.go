package main

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

func doLogin(ctx context.Context, cfg cliConfig, email, password, tokenName string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.login", map[string]any{
			"email":      email,
			"password":   password,
			"token_name": tokenName,
		}, out)
	}
	cfg.Token = ""
	return newAPIClient(cfg).Do(ctx, http.MethodPost, "/api/auth/login", map[string]any{
		"email":      email,
		"password":   password,
		"mode":       "token",
		"token_name": tokenName,
	}, out)
}

func doWhoAmI(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "auth.whoami", map[string]any{"token": cfg.Token}, out)
	}
	return newAPIClient(cfg).Do(ctx, http.MethodGet, "/api/auth/whoami", nil, out)
}

func doLogout(ctx context.Context, cfg cliConfig) error {
	if cfg.Transport == "uds" {
		return nil
	}
	return newAPIClient(cfg).Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func doCrewFacet(ctx context.Context, cfg cliConfig, query domain.CrewFacetQuery, out *domain.CrewFacetPage) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "crew.facet", map[string]any{
			"token":  cfg.Token,
			"query":  query.Query,
			"limit":  query.Limit,
			"offset": query.Offset,
			"filter": query.Filter,
		}, out)
	}
	page, err := newAPIClient(cfg).FetchCrewFacet(ctx, query)
	if err != nil {
		return err
	}
	*out = page
	return nil
}

func doBoardingsList(ctx context.Context, cfg cliConfig, q string, limit int, out any) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "boardings.list", map[string]any{"token": cfg.Token, "q": q, "limit": limit}, out)
	}
	params := url.Values{}
	if q != "" {
		params.Set("q", q)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/boardings"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return newAPIClient(cfg).Do(ctx, http.MethodGet, path, nil, out)
}

func doBoardingsImport(ctx context.Context, cfg cliConfig, values []domain.Boarding, out any) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "boardings.import", map[string]any{"token": cfg.Token, "boardings": values}, out)
	}
	return newAPIClient(cfg).Do(ctx, http.MethodPost, "/api/boardings", values, out)
}

func doUsersList(ctx context.Context, cfg cliConfig, q string, out any) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "users.list", map[string]any{"token": cfg.Token, "q": q}, out)
	}
	path := "/api/users"
	if q != "" {
		path += "?q=" + url.QueryEscape(q)
	}
	return newAPIClient(cfg).Do(ctx, http.MethodGet, path, nil, out)
}

func doUsersCreate(ctx context.Context, cfg cliConfig, email, password string, out any) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "users.create", map[string]any{"token": cfg.Token, "email": email, "password": password}, out)
	}
	return newAPIClient(cfg).Do(ctx, http.MethodPost, "/api/users", map[string]any{"email": email, "password": password}, out)
}

func doFilters(ctx context.Context, cfg cliConfig, out *domain.FilterConfiguration) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "filters.show", map[string]any{"token": cfg.Token}, out)
	}
	filters, err := newAPIClient(cfg).Filters(ctx)
	if err != nil {
		return err
	}
	*out = filters
	return nil
}
