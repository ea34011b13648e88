package models

import "time"

// MatchStatus represents match lifecycle states, matching the ENUM in the DB.
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusOngoing   MatchStatus = "ongoing"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
	MatchStatusPostponed MatchStatus = "postponed"
)

// Terminal reports whether no further lifecycle transitions are allowed.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

// BracketSegment is a named partition of a tournament's match tree.
type BracketSegment string

const (
	BracketWinners BracketSegment = "winners"
	BracketLosers  BracketSegment = "losers"
	BracketFinals  BracketSegment = "finals"
	BracketGroup   BracketSegment = "group"
)

func (b BracketSegment) Valid() bool {
	switch b {
	case BracketWinners, BracketLosers, BracketFinals, BracketGroup:
		return true
	}
	return false
}

// Match is one best-of-N series between two competitors of a tournament.
// Version backs compare-and-swap updates in the repository; concurrent
// mutations of the same match lose with a version conflict instead of
// silently overwriting each other.
type Match struct {
	ID           int            `json:"id" db:"id"`
	TournamentID int            `json:"tournament_id" db:"tournament_id"`
	TeamAID      int            `json:"team_a_id" db:"team_a_id"`
	TeamBID      int            `json:"team_b_id" db:"team_b_id"`
	RefereeID    *int           `json:"referee_id,omitempty" db:"referee_id"`
	WinnerID     *int           `json:"winner_id,omitempty" db:"winner_id"`
	Round        int            `json:"round" db:"round"`
	Bracket      BracketSegment `json:"bracket" db:"bracket"`
	BestOf       int            `json:"best_of" db:"best_of"`
	ScoreA       int            `json:"score_a" db:"score_a"`
	ScoreB       int            `json:"score_b" db:"score_b"`
	Result       *string        `json:"result,omitempty" db:"result"`
	Notes        *string        `json:"notes,omitempty" db:"notes"`
	ScheduledAt  time.Time      `json:"scheduled_at" db:"scheduled_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty" db:"started_at"`
	EndedAt      *time.Time     `json:"ended_at,omitempty" db:"ended_at"`
	Status       MatchStatus    `json:"status" db:"status"`
	Version      int            `json:"version" db:"version"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`

	Games []MatchGame `json:"games,omitempty" db:"-"`
}

// MatchGame is a single game inside a best-of-N series. The sequence is
// append-only while the match is ongoing; WinnerID, when set, must reference
// one of the two sides of the parent match.
type MatchGame struct {
	ID        int       `json:"id" db:"id"`
	MatchID   int       `json:"match_id" db:"match_id"`
	Ordinal   int       `json:"ordinal" db:"ordinal"`
	ScoreA    int       `json:"score_a" db:"score_a"`
	ScoreB    int       `json:"score_b" db:"score_b"`
	WinnerID  *int      `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RequiredWins returns the number of game wins that decides a best-of-N
// series: ceil(n/2).
func RequiredWins(bestOf int) int {
	return (bestOf + 1) / 2
}
