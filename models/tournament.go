package models

import "time"

// TournamentStatus represents tournament lifecycle states, matching the ENUM in the DB.
type TournamentStatus string

const (
	TournamentStatusUpcoming     TournamentStatus = "upcoming"
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusActive       TournamentStatus = "active"
	TournamentStatusCompleted    TournamentStatus = "completed"
	TournamentStatusCancelled    TournamentStatus = "cancelled"
)

type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Slug           string           `json:"slug" db:"slug"`
	Game           string           `json:"game" db:"game"`
	Description    *string          `json:"description,omitempty" db:"description"`
	OrganizerID    int              `json:"organizer_id" db:"organizer_id"`
	RegDeadline    time.Time        `json:"reg_deadline" db:"reg_deadline"`
	StartDate      time.Time        `json:"start_date" db:"start_date"`
	EndDate        time.Time        `json:"end_date" db:"end_date"`
	MaxCompetitors int              `json:"max_competitors" db:"max_competitors"`
	Status         TournamentStatus `json:"status" db:"status"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	LogoKey        *string          `json:"-" db:"logo_key"`
	LogoURL        *string          `json:"logo_url,omitempty" db:"-"`

	// Optional related entities, populated by the service layer.
	Organizer   *User        `json:"organizer,omitempty" db:"-"`
	Competitors []Competitor `json:"competitors,omitempty" db:"-"`
	Matches     []Match      `json:"matches,omitempty" db:"-"`
}
