package sqlite

import "time"

type BoardingModel struct {
	ID                 uint   `gorm:"primaryKey"`
	ExternalID         string `gorm:"uniqueIndex;not null"`
	BoardedAt          int64  `gorm:"not null;index"`
	VesselName         string `gorm:"not null;index"`
	VesselPermitNumber string
	VesselNationality  string
	LocationName       string
	SafetyLevel        string `gorm:"not null;default:'';index"`
	SafetyLevelNested  bool   `gorm:"not null;default:false"`
	Violations         int    `gorm:"not null;default:0"`
	Agency             string
	CaptainName        string `gorm:"not null;default:'';index"`
	CaptainLicense     string `gorm:"not null;default:''"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (BoardingModel) TableName() string { return "boardings" }

type CrewMemberModel struct {
	ID         uint   `gorm:"primaryKey"`
	BoardingID uint   `gorm:"not null;index"`
	Position   int    `gorm:"not null;default:0"`
	Name       string `gorm:"not null;index"`
	License    string `gorm:"not null;default:''"`
}

func (CrewMemberModel) TableName() string { return "crew_members" }

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type AuthSessionModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	TokenHash string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

func (AuthSessionModel) TableName() string { return "auth_sessions" }

type APITokenModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	TokenHash string `gorm:"uniqueIndex;not null"`
	ExpiresAt *time.Time
	CreatedAt time.Time
}

func (APITokenModel) TableName() string { return "api_tokens" }

// crewFacetRow is the scan target of the grouped crew query.
type crewFacetRow struct {
	Name              string
	CrewRank          string
	License          string
	Vessel            string
	SafetyLevel       string
	SafetyLevelNested bool
	Violations        int
	BoardedAt         int64
}
