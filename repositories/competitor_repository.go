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
	ErrCompetitorNotFound          = errors.New("competitor not found")
	ErrCompetitorNameConflict      = errors.New("competitor name is already taken in this tournament")
	ErrCompetitorTournamentInvalid = errors.New("competitor tournament conflict or invalid")
)

// MatchOutcome is the ledger delta applied to one competitor after a match
// completes.
type MatchOutcome string

const (
	OutcomeWin  MatchOutcome = "win"
	OutcomeLoss MatchOutcome = "loss"
	OutcomeDraw MatchOutcome = "draw"
)

type CompetitorRepository interface {
	Create(ctx context.Context, competitor *models.Competitor) error
	GetByID(ctx context.Context, id int) (*models.Competitor, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Competitor, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	BelongsToTournament(ctx context.Context, competitorID, tournamentID int) (bool, error)
	// ApplyOutcome bumps the ledger counters in a single UPDATE so concurrent
	// result recordings never lose updates.
	ApplyOutcome(ctx context.Context, exec SQLExecutor, competitorID int, outcome MatchOutcome, points int) error
	UpdateLogoKey(ctx context.Context, id int, logoKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresCompetitorRepository struct {
	db *sql.DB
}

func NewPostgresCompetitorRepository(db *sql.DB) CompetitorRepository {
	return &postgresCompetitorRepository{db: db}
}

const competitorColumns = `id, tournament_id, name, tag, owner_id, wins, losses, draws, points, created_at, logo_key`

func scanCompetitor(row interface{ Scan(...interface{}) error }, c *models.Competitor) error {
	return row.Scan(
		&c.ID,
		&c.TournamentID,
		&c.Name,
		&c.Tag,
		&c.OwnerID,
		&c.Wins,
		&c.Losses,
		&c.Draws,
		&c.Points,
		&c.CreatedAt,
		&c.LogoKey,
	)
}

func (r *postgresCompetitorRepository) Create(ctx context.Context, competitor *models.Competitor) error {
	query := `
		INSERT INTO competitors (tournament_id, name, tag, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, wins, losses, draws, points, created_at`

	err := r.db.QueryRowContext(ctx, query,
		competitor.TournamentID,
		competitor.Name,
		competitor.Tag,
		competitor.OwnerID,
	).Scan(
		&competitor.ID,
		&competitor.Wins,
		&competitor.Losses,
		&competitor.Draws,
		&competitor.Points,
		&competitor.CreatedAt,
	)

	return r.handleCompetitorError(err)
}

func (r *postgresCompetitorRepository) GetByID(ctx context.Context, id int) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1`

	competitor := &models.Competitor{}
	err := scanCompetitor(r.db.QueryRowContext(ctx, query, id), competitor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitorNotFound
		}
		return nil, fmt.Errorf("failed to scan competitor by id %d: %w", id, err)
	}
	return competitor, nil
}

func (r *postgresCompetitorRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors
		WHERE tournament_id = $1
		ORDER BY points DESC, wins DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	competitors := make([]*models.Competitor, 0)
	for rows.Next() {
		var competitor models.Competitor
		if scanErr := scanCompetitor(rows, &competitor); scanErr != nil {
			return nil, fmt.Errorf("failed to scan competitor row: %w", scanErr)
		}
		competitors = append(competitors, &competitor)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competitor rows iteration: %w", err)
	}
	return competitors, nil
}

func (r *postgresCompetitorRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM competitors WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count competitors for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresCompetitorRepository) BelongsToTournament(ctx context.Context, competitorID, tournamentID int) (bool, error) {
	var belongs bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM competitors WHERE id = $1 AND tournament_id = $2)`,
		competitorID, tournamentID,
	).Scan(&belongs)
	if err != nil {
		return false, fmt.Errorf("failed to check competitor %d membership in tournament %d: %w", competitorID, tournamentID, err)
	}
	return belongs, nil
}

func (r *postgresCompetitorRepository) ApplyOutcome(ctx context.Context, exec SQLExecutor, competitorID int, outcome MatchOutcome, points int) error {
	var query string
	switch outcome {
	case OutcomeWin:
		query = `UPDATE competitors SET wins = wins + 1, points = points + $1 WHERE id = $2`
	case OutcomeLoss:
		query = `UPDATE competitors SET losses = losses + 1, points = points + $1 WHERE id = $2`
	case OutcomeDraw:
		query = `UPDATE competitors SET draws = draws + 1, points = points + $1 WHERE id = $2`
	default:
		return fmt.Errorf("unknown match outcome %q", outcome)
	}

	result, err := exec.ExecContext(ctx, query, points, competitorID)
	if err != nil {
		return fmt.Errorf("failed to apply %s outcome to competitor %d: %w", outcome, competitorID, err)
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}

func (r *postgresCompetitorRepository) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE competitors SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}

func (r *postgresCompetitorRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM competitors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}

func (r *postgresCompetitorRepository) handleCompetitorError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "competitors_tournament_id_name_key":
			return ErrCompetitorNameConflict
		case "competitors_tournament_id_fkey":
			return ErrCompetitorTournamentInvalid
		}
	}
	return err
}
