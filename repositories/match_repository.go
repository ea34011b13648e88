package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/esportium/esports-arena/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchVersionConflict   = errors.New("match was modified concurrently")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchCompetitorInvalid = errors.New("match competitor conflict or invalid")
	ErrMatchGameConflict      = errors.New("match game ordinal already recorded")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	ListByCompetitor(ctx context.Context, competitorID int) ([]*models.Match, error)
	ListUpcoming(ctx context.Context, limit int) ([]*models.Match, error)
	ListOngoing(ctx context.Context) ([]*models.Match, error)
	// Update persists every mutable field, guarded by a compare-and-swap on
	// match.Version. On success match.Version is bumped; a lost race returns
	// ErrMatchVersionConflict.
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, id int) error
	AppendGame(ctx context.Context, exec SQLExecutor, game *models.MatchGame) error
	ListGames(ctx context.Context, matchID int) ([]models.MatchGame, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, team_a_id, team_b_id, referee_id, winner_id, round,
		bracket, best_of, score_a, score_b, result, notes, scheduled_at, started_at, ended_at,
		status, version, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.TeamAID,
		&m.TeamBID,
		&m.RefereeID,
		&m.WinnerID,
		&m.Round,
		&m.Bracket,
		&m.BestOf,
		&m.ScoreA,
		&m.ScoreB,
		&m.Result,
		&m.Notes,
		&m.ScheduledAt,
		&m.StartedAt,
		&m.EndedAt,
		&m.Status,
		&m.Version,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, team_a_id, team_b_id, referee_id, round, bracket, best_of,
			 score_a, score_b, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, version, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.TeamAID,
		match.TeamBID,
		match.RefereeID,
		match.Round,
		match.Bracket,
		match.BestOf,
		match.ScoreA,
		match.ScoreB,
		match.ScheduledAt,
		match.Status,
	).Scan(&match.ID, &match.Version, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}

	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}

	queryBuilder.WriteString(" ORDER BY round ASC, scheduled_at ASC, id ASC")

	return r.queryMatches(ctx, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListByCompetitor(ctx context.Context, competitorID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE team_a_id = $1 OR team_b_id = $1
		ORDER BY scheduled_at DESC, id DESC`
	return r.queryMatches(ctx, query, competitorID)
}

func (r *postgresMatchRepository) ListUpcoming(ctx context.Context, limit int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE status = $1 AND scheduled_at >= NOW()
		ORDER BY scheduled_at ASC, id ASC
		LIMIT $2`
	return r.queryMatches(ctx, query, models.MatchStatusScheduled, limit)
}

func (r *postgresMatchRepository) ListOngoing(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE status = $1
		ORDER BY started_at ASC, id ASC`
	return r.queryMatches(ctx, query, models.MatchStatusOngoing)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := scanMatch(rows, &match); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &match)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET winner_id = $1, score_a = $2, score_b = $3, result = $4, notes = $5,
		    scheduled_at = $6, started_at = $7, ended_at = $8, status = $9,
		    version = version + 1
		WHERE id = $10 AND version = $11`

	result, err := exec.ExecContext(ctx, query,
		match.WinnerID,
		match.ScoreA,
		match.ScoreB,
		match.Result,
		match.Notes,
		match.ScheduledAt,
		match.StartedAt,
		match.EndedAt,
		match.Status,
		match.ID,
		match.Version,
	)
	if err != nil {
		return r.handleMatchError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish a lost CAS race from a missing row.
		var exists bool
		if checkErr := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, match.ID).Scan(&exists); checkErr != nil {
			return fmt.Errorf("failed to check match existence after update: %w", checkErr)
		}
		if exists {
			return ErrMatchVersionConflict
		}
		return ErrMatchNotFound
	}

	match.Version++
	return nil
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	// match_games rows are removed by ON DELETE CASCADE.
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) AppendGame(ctx context.Context, exec SQLExecutor, game *models.MatchGame) error {
	query := `
		INSERT INTO match_games (match_id, ordinal, score_a, score_b, winner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		game.MatchID,
		game.Ordinal,
		game.ScoreA,
		game.ScoreB,
		game.WinnerID,
	).Scan(&game.ID, &game.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) ListGames(ctx context.Context, matchID int) ([]models.MatchGame, error) {
	query := `
		SELECT id, match_id, ordinal, score_a, score_b, winner_id, created_at
		FROM match_games
		WHERE match_id = $1
		ORDER BY ordinal ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for match %d: %w", matchID, err)
	}
	defer rows.Close()

	games := make([]models.MatchGame, 0)
	for rows.Next() {
		var game models.MatchGame
		if scanErr := rows.Scan(
			&game.ID,
			&game.MatchID,
			&game.Ordinal,
			&game.ScoreA,
			&game.ScoreB,
			&game.WinnerID,
			&game.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match game row: %w", scanErr)
		}
		games = append(games, game)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_team_a_id_fkey", "matches_team_b_id_fkey", "matches_winner_id_fkey":
			return ErrMatchCompetitorInvalid
		case "match_games_match_id_fkey":
			return ErrMatchNotFound
		case "match_games_match_id_ordinal_key":
			return ErrMatchGameConflict
		}
	}
	return err
}
