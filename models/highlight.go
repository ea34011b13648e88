package models

import "time"

type Highlight struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	MatchID      *int      `json:"match_id,omitempty" db:"match_id"`
	UploaderID   int       `json:"uploader_id" db:"uploader_id"`
	Title        string    `json:"title" db:"title"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Views        int64     `json:"views" db:"views"`
	Likes        int64     `json:"likes" db:"likes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	VideoKey     *string   `json:"-" db:"video_key"`
	VideoURL     *string   `json:"video_url,omitempty" db:"-"`
}
