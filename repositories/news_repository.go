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
	ErrNewsNotFound     = errors.New("news post not found")
	ErrNewsSlugConflict = errors.New("news slug is already in use")
)

type NewsRepository interface {
	Create(ctx context.Context, post *models.News) error
	GetByID(ctx context.Context, id int) (*models.News, error)
	GetBySlug(ctx context.Context, slug string) (*models.News, error)
	List(ctx context.Context, limit, offset int) ([]*models.News, error)
	Update(ctx context.Context, post *models.News) error
	UpdateCoverKey(ctx context.Context, id int, coverKey *string) error
	Delete(ctx context.Context, id int) error
	// Counter increments happen entirely in SQL; reading the row, bumping a
	// field in memory, and saving it back would drop updates under
	// concurrent requests.
	IncrementViews(ctx context.Context, id int) (int64, error)
	IncrementLikes(ctx context.Context, id int) (int64, error)
	IncrementShares(ctx context.Context, id int) (int64, error)
}

type postgresNewsRepository struct {
	db *sql.DB
}

func NewPostgresNewsRepository(db *sql.DB) NewsRepository {
	return &postgresNewsRepository{db: db}
}

const newsColumns = `id, author_id, title, slug, body, views, likes, shares, created_at, updated_at, cover_key`

func scanNews(row interface{ Scan(...interface{}) error }, n *models.News) error {
	return row.Scan(
		&n.ID,
		&n.AuthorID,
		&n.Title,
		&n.Slug,
		&n.Body,
		&n.Views,
		&n.Likes,
		&n.Shares,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.CoverKey,
	)
}

func (r *postgresNewsRepository) Create(ctx context.Context, post *models.News) error {
	query := `
		INSERT INTO news (author_id, title, slug, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, views, likes, shares, created_at`

	err := r.db.QueryRowContext(ctx, query,
		post.AuthorID,
		post.Title,
		post.Slug,
		post.Body,
	).Scan(&post.ID, &post.Views, &post.Likes, &post.Shares, &post.CreatedAt)

	return r.handleNewsError(err)
}

func (r *postgresNewsRepository) GetByID(ctx context.Context, id int) (*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE id = $1`

	post := &models.News{}
	err := scanNews(r.db.QueryRowContext(ctx, query, id), post)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to scan news post by id %d: %w", id, err)
	}
	return post, nil
}

func (r *postgresNewsRepository) GetBySlug(ctx context.Context, slug string) (*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE slug = $1`

	post := &models.News{}
	err := scanNews(r.db.QueryRowContext(ctx, query, slug), post)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to scan news post by slug %q: %w", slug, err)
	}
	return post, nil
}

func (r *postgresNewsRepository) List(ctx context.Context, limit, offset int) ([]*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query news posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.News, 0)
	for rows.Next() {
		var post models.News
		if scanErr := scanNews(rows, &post); scanErr != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", scanErr)
		}
		posts = append(posts, &post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during news rows iteration: %w", err)
	}
	return posts, nil
}

func (r *postgresNewsRepository) Update(ctx context.Context, post *models.News) error {
	query := `
		UPDATE news
		SET title = $1, slug = $2, body = $3, updated_at = NOW()
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, post.Title, post.Slug, post.Body, post.ID)
	if err != nil {
		return r.handleNewsError(err)
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) UpdateCoverKey(ctx context.Context, id int, coverKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE news SET cover_key = $1 WHERE id = $2`, coverKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) IncrementViews(ctx context.Context, id int) (int64, error) {
	return r.increment(ctx, `UPDATE news SET views = views + 1 WHERE id = $1 RETURNING views`, id)
}

func (r *postgresNewsRepository) IncrementLikes(ctx context.Context, id int) (int64, error) {
	return r.increment(ctx, `UPDATE news SET likes = likes + 1 WHERE id = $1 RETURNING likes`, id)
}

func (r *postgresNewsRepository) IncrementShares(ctx context.Context, id int) (int64, error) {
	return r.increment(ctx, `UPDATE news SET shares = shares + 1 WHERE id = $1 RETURNING shares`, id)
}

func (r *postgresNewsRepository) increment(ctx context.Context, query string, id int) (int64, error) {
	var value int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNewsNotFound
		}
		return 0, fmt.Errorf("failed to increment counter for news %d: %w", id, err)
	}
	return value, nil
}

func (r *postgresNewsRepository) handleNewsError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Constraint == "news_slug_key" {
			return ErrNewsSlugConflict
		}
	}
	return err
}
