package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

type InspectionRepository struct {
	db      *gorm.DB
	filters domain.FilterConfiguration
}

func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
}

func NewInspectionRepository(db *gorm.DB, filters domain.FilterConfiguration) *InspectionRepository {
	return &InspectionRepository{db: db, filters: filters}
}

func (r *InspectionRepository) ImportBoardings(ctx context.Context, values []domain.Boarding) ([]domain.Boarding, error) {
	created := make([]domain.Boarding, 0, len(values))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, value := range values {
			m := boardingModelFromDomain(value)
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			members := make([]CrewMemberModel, 0, len(value.Crew))
			for i, member := range value.Crew {
				members = append(members, CrewMemberModel{
					BoardingID: m.ID,
					Position:   i,
					Name:       strings.TrimSpace(member.Name),
					License:    strings.TrimSpace(member.License),
				})
			}
			if len(members) > 0 {
				if err := tx.Create(&members).Error; err != nil {
					return err
				}
			}
			created = append(created, boardingToDomain(m, members))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *InspectionRepository) ListBoardings(ctx context.Context, query string, limit int) ([]domain.Boarding, error) {
	q := r.db.WithContext(ctx).Model(&BoardingModel{})
	if strings.TrimSpace(query) != "" {
		like := likePattern(query)
		q = q.Where(`(vessel_name LIKE ? ESCAPE '\' OR captain_name LIKE ? ESCAPE '\' OR location_name LIKE ? ESCAPE '\')`, like, like, like)
	}
	rows := make([]BoardingModel, 0)
	if err := q.Order("boarded_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withCrew(ctx, rows)
}

func (r *InspectionRepository) CountBoardings(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BoardingModel{}).Count(&count).Error
	return count, err
}

// withCrew loads the crew lists of the given boardings, keeping their
// order.
func (r *InspectionRepository) withCrew(ctx context.Context, rows []BoardingModel) ([]domain.Boarding, error) {
	result := make([]domain.Boarding, 0, len(rows))
	if len(rows) == 0 {
		return result, nil
	}
	ids := make([]uint, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.ID)
	}
	members := make([]CrewMemberModel, 0)
	if err := r.db.WithContext(ctx).Where("boarding_id IN ?", ids).Order("boarding_id ASC").Order("position ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	byBoarding := make(map[uint][]CrewMemberModel, len(rows))
	for _, member := range members {
		byBoarding[member.BoardingID] = append(byBoarding[member.BoardingID], member)
	}
	for _, m := range rows {
		result = append(result, boardingToDomain(m, byBoarding[m.ID]))
	}
	return result, nil
}

func (r *InspectionRepository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{Email: strings.ToLower(strings.TrimSpace(value.Email)), PasswordHash: value.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, err
	}
	return userToDomain(m), nil
}

func (r *InspectionRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error
	return count, err
}

func (r *InspectionRepository) ListUsers(ctx context.Context, query string, limit int) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Model(&UserModel{})
	if strings.TrimSpace(query) != "" {
		q = q.Where(`email LIKE ? ESCAPE '\'`, likePattern(query))
	}
	rows := make([]UserModel, 0)
	if err := q.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		result = append(result, userToDomain(m))
	}
	return result, nil
}

func (r *InspectionRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&m).Error; err != nil {
		return domain.User{}, notFound(err)
	}
	return userToDomain(m), nil
}

func (r *InspectionRepository) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.User{}, notFound(err)
	}
	return userToDomain(m), nil
}

func (r *InspectionRepository) CreateSession(ctx context.Context, value domain.AuthSession) (domain.AuthSession, error) {
	m := AuthSessionModel{UserID: value.UserID, TokenHash: value.TokenHash, ExpiresAt: value.ExpiresAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.AuthSession{}, err
	}
	return domain.AuthSession{ID: m.ID, UserID: m.UserID, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *InspectionRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.AuthSession, error) {
	var m AuthSessionModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return domain.AuthSession{}, notFound(err)
	}
	return domain.AuthSession{ID: m.ID, UserID: m.UserID, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *InspectionRepository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&AuthSessionModel{}).Error
}

func (r *InspectionRepository) CreateAPIToken(ctx context.Context, value domain.APIToken) (domain.APIToken, error) {
	m := APITokenModel{UserID: value.UserID, Name: value.Name, TokenHash: value.TokenHash, ExpiresAt: value.ExpiresAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.APIToken{}, err
	}
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *InspectionRepository) GetAPITokenByTokenHash(ctx context.Context, tokenHash string) (domain.APIToken, error) {
	var m APITokenModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return domain.APIToken{}, notFound(err)
	}
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func boardingModelFromDomain(value domain.Boarding) BoardingModel {
	return BoardingModel{
		ExternalID:         value.ExternalID,
		BoardedAt:          toMillis(value.BoardedAt),
		VesselName:         value.Vessel.Name,
		VesselPermitNumber: strings.TrimSpace(value.Vessel.PermitNumber),
		VesselNationality:  strings.TrimSpace(value.Vessel.Nationality),
		LocationName:       strings.TrimSpace(value.Location),
		SafetyLevel:        strings.TrimSpace(value.SafetyLevel.Value),
		SafetyLevelNested:  value.SafetyLevel.Nested,
		Violations:         value.Violations,
		Agency:             strings.TrimSpace(value.Agency),
		CaptainName:        value.Captain.Name,
		CaptainLicense:     strings.TrimSpace(value.Captain.License),
	}
}

func boardingToDomain(m BoardingModel, members []CrewMemberModel) domain.Boarding {
	crew := make([]domain.CrewMember, 0, len(members))
	for _, member := range members {
		crew = append(crew, domain.CrewMember{Name: member.Name, License: member.License})
	}
	return domain.Boarding{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		BoardedAt:  fromMillis(m.BoardedAt),
		Vessel: domain.Vessel{
			Name:         m.VesselName,
			PermitNumber: m.VesselPermitNumber,
			Nationality:  m.VesselNationality,
		},
		Location:    m.LocationName,
		SafetyLevel: safetyLevel(m.SafetyLevel, m.SafetyLevelNested),
		Violations:  m.Violations,
		Agency:      m.Agency,
		Captain:     domain.Captain{Name: m.CaptainName, License: m.CaptainLicense},
		Crew:        crew,
		CreatedAt:   m.CreatedAt,
	}
}

func userToDomain(m UserModel) domain.User {
	return domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func safetyLevel(value string, nested bool) domain.SafetyLevel {
	if nested {
		return domain.NestedSafetyLevel(value)
	}
	return domain.DirectSafetyLevel(value)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(query))
	return "%" + escaped + "%"
}
