package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// CrewGateway is the backend data service behind the crew view.
type CrewGateway interface {
	FetchCrewFacet(ctx context.Context, query CrewFacetQuery) (CrewFacetPage, error)
}

// Navigator is the browser history as seen from one request.
type Navigator interface {
	CurrentPath() string
	Replace(path string) error
}

type InspectionRepository interface {
	CrewGateway

	ImportBoardings(ctx context.Context, values []Boarding) ([]Boarding, error)
	ListBoardings(ctx context.Context, query string, limit int) ([]Boarding, error)
	CountBoardings(ctx context.Context) (int64, error)

	CreateUser(ctx context.Context, value User) (User, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context, query string, limit int) ([]User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uint) (User, error)
	CreateSession(ctx context.Context, value AuthSession) (AuthSession, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (AuthSession, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	CreateAPIToken(ctx context.Context, value APIToken) (APIToken, error)
	GetAPITokenByTokenHash(ctx context.Context, tokenHash string) (APIToken, error)
}
