package domain

import "time"

type Vessel struct {
	Name         string `json:"name"`
	PermitNumber string `json:"permitNumber"`
	Nationality  string `json:"nationality"`
}

type Captain struct {
	Name    string `json:"name"`
	License string `json:"license"`
}

type CrewMember struct {
	Name    string `json:"name"`
	License string `json:"license"`
}

type Boarding struct {
	ID          uint         `json:"id"`
	ExternalID  string       `json:"externalId"`
	BoardedAt   time.Time    `json:"date"`
	Vessel      Vessel       `json:"vessel"`
	Location    string       `json:"location"`
	SafetyLevel SafetyLevel  `json:"safetyLevel"`
	Violations  int          `json:"violations"`
	Agency      string       `json:"agency"`
	Captain     Captain      `json:"captain"`
	Crew        []CrewMember `json:"crew"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// HighlightText is one fragment of a highlighted field. Type is "hit"
// for the matched part and "text" for the surrounding text.
type HighlightText struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

const (
	HighlightTypeHit  = "hit"
	HighlightTypeText = "text"
)

type Highlight struct {
	Path  string          `json:"path"`
	Score float64         `json:"score"`
	Texts []HighlightText `json:"texts"`
}

// FirstHit returns the value of the first "hit" fragment.
func (h Highlight) FirstHit() (string, bool) {
	for _, text := range h.Texts {
		if text.Type == HighlightTypeHit {
			return text.Value, true
		}
	}
	return "", false
}

// CrewHit is one boarding as returned by the search backend.
type CrewHit struct {
	Vessel      string       `json:"vessel"`
	Date        time.Time    `json:"date"`
	SafetyLevel SafetyLevel  `json:"safetyLevel"`
	Violations  int          `json:"violations"`
	Captain     Captain      `json:"captain"`
	Crew        []CrewMember `json:"crew"`
	Highlights  []Highlight  `json:"highlights"`
}

const (
	RankCaptain = "captain"
	RankCrew    = "crew"
)

type CrewRow struct {
	Name        string      `json:"name"`
	Rank        string      `json:"rank"`
	Vessel      string      `json:"vessel"`
	License     string      `json:"license"`
	Violations  int         `json:"violations"`
	Date        time.Time   `json:"date"`
	SafetyLevel SafetyLevel `json:"safetyLevel"`
}

// CrewKey identifies a crew row: one person on one vessel at one
// safety level.
type CrewKey struct {
	License     string
	Vessel      string
	SafetyLevel string
}

func (r CrewRow) Key() CrewKey {
	return CrewKey{License: r.License, Vessel: r.Vessel, SafetyLevel: r.SafetyLevel.Level()}
}

type CrewFacetQuery struct {
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Query  string          `json:"query"`
	Filter FilterSelection `json:"filter"`
}

// CrewFacetPage is the backend answer for one crew facet request. Hits
// is filled when a query is present, Rows otherwise.
type CrewFacetPage struct {
	Hits       []CrewHit   `json:"hits,omitempty"`
	Rows       []CrewRow   `json:"rows,omitempty"`
	Amount     int         `json:"amount"`
	Highlights []Highlight `json:"highlights,omitempty"`
}

type User struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type AuthSession struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type APIToken struct {
	ID        uint
	UserID    uint
	Name      string
	TokenHash string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

type Identity struct {
	User User
}
