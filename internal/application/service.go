package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type InspectionService struct {
	repo    domain.InspectionRepository
	filters domain.FilterConfiguration
}

type ImportResult struct {
	Imported    int      `json:"imported"`
	ExternalIDs []string `json:"external_ids"`
}

func NewInspectionService(repo domain.InspectionRepository, filters domain.FilterConfiguration) *InspectionService {
	return &InspectionService{repo: repo, filters: filters}
}

func (s *InspectionService) Filters() domain.FilterConfiguration {
	return s.filters
}

// FetchCrewFacet serves API callers; it clamps the page size the same
// way the listing endpoints do.
func (s *InspectionService) FetchCrewFacet(ctx context.Context, query domain.CrewFacetQuery) (domain.CrewFacetPage, error) {
	if query.Limit <= 0 {
		query.Limit = DefaultCrewPageSize
	}
	if query.Limit > 500 {
		query.Limit = 500
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	query.Query = strings.TrimSpace(query.Query)
	for name := range query.Filter {
		if _, ok := s.filters.Lookup(name); !ok {
			return domain.CrewFacetPage{}, fmt.Errorf("unknown filter %q", name)
		}
	}
	return s.repo.FetchCrewFacet(ctx, query)
}

func (s *InspectionService) ImportBoardings(ctx context.Context, values []domain.Boarding) (ImportResult, error) {
	if len(values) == 0 {
		return ImportResult{}, errors.New("no boardings to import")
	}
	prepared := make([]domain.Boarding, 0, len(values))
	for i, value := range values {
		value.Vessel.Name = strings.TrimSpace(value.Vessel.Name)
		value.Captain.Name = strings.TrimSpace(value.Captain.Name)
		if value.Vessel.Name == "" {
			return ImportResult{}, fmt.Errorf("boarding %d: vessel name is required", i)
		}
		if value.BoardedAt.IsZero() {
			return ImportResult{}, fmt.Errorf("boarding %d: date is required", i)
		}
		if value.Violations < 0 {
			return ImportResult{}, fmt.Errorf("boarding %d: violations must not be negative", i)
		}
		if strings.TrimSpace(value.ExternalID) == "" {
			value.ExternalID = uuid.NewString()
		}
		value.BoardedAt = value.BoardedAt.UTC()
		prepared = append(prepared, value)
	}

	created, err := s.repo.ImportBoardings(ctx, prepared)
	if err != nil {
		return ImportResult{}, err
	}
	ids := make([]string, 0, len(created))
	for _, b := range created {
		ids = append(ids, b.ExternalID)
	}
	return ImportResult{Imported: len(created), ExternalIDs: ids}, nil
}

func (s *InspectionService) ListBoardings(ctx context.Context, query string, limit int) ([]domain.Boarding, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.repo.ListBoardings(ctx, query, limit)
}

func (s *InspectionService) CountBoardings(ctx context.Context) (int64, error) {
	return s.repo.CountBoardings(ctx)
}

func (s *InspectionService) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.CountUsers(ctx)
}

func (s *InspectionService) ListUsers(ctx context.Context, query string, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 2000 {
		limit = 2000
	}
	return s.repo.ListUsers(ctx, query, limit)
}

func (s *InspectionService) CreateUser(ctx context.Context, email, password string) (domain.User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return domain.User{}, errors.New("email and password are required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	return s.repo.CreateUser(ctx, domain.User{Email: normalizeEmail(email), PasswordHash: hash})
}

func (s *InspectionService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return errors.New("bootstrap admin email and password are required")
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = s.CreateUser(ctx, email, password)
	return err
}

func (s *InspectionService) LoginWithSession(ctx context.Context, email, password string, ttl time.Duration) (domain.User, string, error) {
	u, err := s.authenticateEmailPassword(ctx, email, password)
	if err != nil {
		return domain.User{}, "", err
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.User{}, "", err
	}

	_, err = s.repo.CreateSession(ctx, domain.AuthSession{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(ttl),
	})
	if err != nil {
		return domain.User{}, "", err
	}
	return u, plain, nil
}

func (s *InspectionService) LoginWithAPIToken(ctx context.Context, email, password, tokenName string, ttl *time.Duration) (domain.User, string, error) {
	u, err := s.authenticateEmailPassword(ctx, email, password)
	if err != nil {
		return domain.User{}, "", err
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.User{}, "", err
	}

	var expiresAt *time.Time
	if ttl != nil {
		t := time.Now().UTC().Add(*ttl)
		expiresAt = &t
	}

	_, err = s.repo.CreateAPIToken(ctx, domain.APIToken{
		UserID:    u.ID,
		Name:      defaultString(tokenName, "cli"),
		TokenHash: hash,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return domain.User{}, "", err
	}
	return u, plain, nil
}

func (s *InspectionService) AuthenticateSession(ctx context.Context, token string) (domain.Identity, error) {
	hash := hashToken(token)
	session, err := s.repo.GetSessionByTokenHash(ctx, hash)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if session.ExpiresAt.Before(time.Now().UTC()) {
		_ = s.repo.DeleteSessionByTokenHash(ctx, hash)
		return domain.Identity{}, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	return s.identityByUserID(ctx, session.UserID)
}

func (s *InspectionService) AuthenticateBearerToken(ctx context.Context, token string) (domain.Identity, error) {
	apit, err := s.repo.GetAPITokenByTokenHash(ctx, hashToken(token))
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if apit.ExpiresAt != nil && apit.ExpiresAt.Before(time.Now().UTC()) {
		return domain.Identity{}, fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
	}
	return s.identityByUserID(ctx, apit.UserID)
}

func (s *InspectionService) LogoutSession(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.repo.DeleteSessionByTokenHash(ctx, hashToken(token))
}

func (s *InspectionService) authenticateEmailPassword(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.User{}, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, errors.New("invalid credentials")
	}
	return u, nil
}

func (s *InspectionService) identityByUserID(ctx context.Context, userID uint) (domain.Identity, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{User: u}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}

func defaultString(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return input
}
