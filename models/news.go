package models

import "time"

type News struct {
	ID        int        `json:"id" db:"id"`
	AuthorID  int        `json:"author_id" db:"author_id"`
	Title     string     `json:"title" db:"title"`
	Slug      string     `json:"slug" db:"slug"`
	Body      string     `json:"body" db:"body"`
	Views     int64      `json:"views" db:"views"`
	Likes     int64      `json:"likes" db:"likes"`
	Shares    int64      `json:"shares" db:"shares"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	CoverKey  *string    `json:"-" db:"cover_key"`
	CoverURL  *string    `json:"cover_url,omitempty" db:"-"`

	Author *User `json:"author,omitempty" db:"-"`
}
