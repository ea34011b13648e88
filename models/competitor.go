package models

import "time"

// Competitor is a registered participant (team or solo player) within one
// tournament. Wins/Losses/Draws/Points form the ledger updated after every
// completed match.
type Competitor struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Tag          *string   `json:"tag,omitempty" db:"tag"`
	OwnerID      *int      `json:"owner_id,omitempty" db:"owner_id"`
	Wins         int       `json:"wins" db:"wins"`
	Losses       int       `json:"losses" db:"losses"`
	Draws        int       `json:"draws" db:"draws"`
	Points       int       `json:"points" db:"points"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LogoKey      *string   `json:"-" db:"logo_key"`
	LogoURL      *string   `json:"logo_url,omitempty" db:"-"`
}
