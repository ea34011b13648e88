package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/esportium/esports-arena/models"
	"github.com/lib/pq"
)

var (
	ErrHighlightNotFound          = errors.New("highlight not found")
	ErrHighlightTournamentInvalid = errors.New("highlight tournament conflict or invalid")
	ErrHighlightMatchInvalid      = errors.New("highlight match conflict or invalid")
)

type HighlightRepository interface {
	Create(ctx context.Context, highlight *models.Highlight) error
	GetByID(ctx context.Context, id int) (*models.Highlight, error)
	List(ctx context.Context, limit, offset int) ([]*models.Highlight, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Highlight, error)
	UpdateVideoKey(ctx context.Context, id int, videoKey *string) error
	Delete(ctx context.Context, id int) error
	IncrementViews(ctx context.Context, id int) (int64, error)
	IncrementLikes(ctx context.Context, id int) (int64, error)
}

type postgresHighlightRepository struct {
	db *sql.DB
}

func NewPostgresHighlightRepository(db *sql.DB) HighlightRepository {
	return &postgresHighlightRepository{db: db}
}

const highlightColumns = `id, tournament_id, match_id, uploader_id, title, description, views, likes, created_at, video_key`

func scanHighlight(row interface{ Scan(...interface{}) error }, h *models.Highlight) error {
	return row.Scan(
		&h.ID,
		&h.TournamentID,
		&h.MatchID,
		&h.UploaderID,
		&h.Title,
		&h.Description,
		&h.Views,
		&h.Likes,
		&h.CreatedAt,
		&h.VideoKey,
	)
}

func (r *postgresHighlightRepository) Create(ctx context.Context, highlight *models.Highlight) error {
	query := `
		INSERT INTO highlights (tournament_id, match_id, uploader_id, title, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, views, likes, created_at`

	err := r.db.QueryRowContext(ctx, query,
		highlight.TournamentID,
		highlight.MatchID,
		highlight.UploaderID,
		highlight.Title,
		highlight.Description,
	).Scan(&highlight.ID, &highlight.Views, &highlight.Likes, &highlight.CreatedAt)

	return r.handleHighlightError(err)
}

func (r *postgresHighlightRepository) GetByID(ctx context.Context, id int) (*models.Highlight, error) {
	query := `SELECT ` + highlightColumns + ` FROM highlights WHERE id = $1`

	highlight := &models.Highlight{}
	err := scanHighlight(r.db.QueryRowContext(ctx, query, id), highlight)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHighlightNotFound
		}
		return nil, fmt.Errorf("failed to scan highlight by id %d: %w", id, err)
	}
	return highlight, nil
}

func (r *postgresHighlightRepository) List(ctx context.Context, limit, offset int) ([]*models.Highlight, error) {
	query := `SELECT ` + highlightColumns + ` FROM highlights
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	return r.queryHighlights(ctx, query, limit, offset)
}

func (r *postgresHighlightRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Highlight, error) {
	query := `SELECT ` + highlightColumns + ` FROM highlights
		WHERE tournament_id = $1
		ORDER BY created_at DESC, id DESC`
	return r.queryHighlights(ctx, query, tournamentID)
}

func (r *postgresHighlightRepository) queryHighlights(ctx context.Context, query string, args ...interface{}) ([]*models.Highlight, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights: %w", err)
	}
	defer rows.Close()

	highlights := make([]*models.Highlight, 0)
	for rows.Next() {
		var highlight models.Highlight
		if scanErr := scanHighlight(rows, &highlight); scanErr != nil {
			return nil, fmt.Errorf("failed to scan highlight row: %w", scanErr)
		}
		highlights = append(highlights, &highlight)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during highlight rows iteration: %w", err)
	}
	return highlights, nil
}

func (r *postgresHighlightRepository) UpdateVideoKey(ctx context.Context, id int, videoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE highlights SET video_key = $1 WHERE id = $2`, videoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrHighlightNotFound)
}

func (r *postgresHighlightRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM highlights WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrHighlightNotFound)
}

func (r *postgresHighlightRepository) IncrementViews(ctx context.Context, id int) (int64, error) {
	return r.increment(ctx, `UPDATE highlights SET views = views + 1 WHERE id = $1 RETURNING views`, id)
}

func (r *postgresHighlightRepository) IncrementLikes(ctx context.Context, id int) (int64, error) {
	return r.increment(ctx, `UPDATE highlights SET likes = likes + 1 WHERE id = $1 RETURNING likes`, id)
}

func (r *postgresHighlightRepository) increment(ctx context.Context, query string, id int) (int64, error) {
	var value int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrHighlightNotFound
		}
		return 0, fmt.Errorf("failed to increment counter for highlight %d: %w", id, err)
	}
	return value, nil
}

func (r *postgresHighlightRepository) handleHighlightError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "highlights_tournament_id_fkey":
			return ErrHighlightTournamentInvalid
		case "highlights_match_id_fkey":
			return ErrHighlightMatchInvalid
		}
	}
	return err
}
