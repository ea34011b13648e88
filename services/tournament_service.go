package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/esportium/esports-arena/models"
	"github.com/esportium/esports-arena/repositories"
	"github.com/esportium/esports-arena/storage"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name           string    `json:"name"`
	Game           string    `json:"game"`
	Description    *string   `json:"description,omitempty"`
	RegDeadline    time.Time `json:"reg_deadline"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	MaxCompetitors int       `json:"max_competitors"`
}

// UpdateTournamentInput is the explicit allow-list of mutable tournament
// fields. Nil means "leave unchanged".
type UpdateTournamentInput struct {
	Name           *string    `json:"name,omitempty"`
	Game           *string    `json:"game,omitempty"`
	Description    *string    `json:"description,omitempty"`
	RegDeadline    *time.Time `json:"reg_deadline,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	MaxCompetitors *int       `json:"max_competitors,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetDetails(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, id, actorID int, actorRole models.UserRole, input UpdateTournamentInput) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, id, actorID int, actorRole models.UserRole, status models.TournamentStatus) (*models.Tournament, error)
	UploadLogo(ctx context.Context, id, actorID int, actorRole models.UserRole, contentType string, content io.Reader) (*models.Tournament, error)
	Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error
	GenerateFixtures(ctx context.Context, id, actorID int, actorRole models.UserRole, startAt time.Time, bestOf int) ([]*models.Match, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	competitorRepo repositories.CompetitorRepository
	matchRepo      repositories.MatchRepository
	userRepo       repositories.UserRepository
	db             repositories.SQLExecutor
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	db repositories.SQLExecutor,
	tournamentRepo repositories.TournamentRepository,
	competitorRepo repositories.CompetitorRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		competitorRepo: competitorRepo,
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.Game == "" {
		return nil, fmt.Errorf("%w: game title is required", ErrValidationFailed)
	}
	if input.MaxCompetitors <= 0 {
		return nil, ErrTournamentInvalidCap
	}
	if err := validateTournamentDates(input.RegDeadline, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Name:           input.Name,
		Slug:           slug.Make(input.Name),
		Game:           input.Game,
		Description:    input.Description,
		OrganizerID:    organizerID,
		RegDeadline:    input.RegDeadline,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		MaxCompetitors: input.MaxCompetitors,
		Status:         models.TournamentStatusUpcoming,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, translateTournamentRepoError(err)
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}
	s.populateLogoURL(tournament)
	return tournament, nil
}

// GetDetails loads the tournament together with its competitors and matches.
// The two child collections are independent, so they load concurrently.
func (s *tournamentService) GetDetails(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		competitors, err := s.competitorRepo.ListByTournament(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load competitors: %w", err)
		}
		tournament.Competitors = dereferenceCompetitors(competitors)
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, id, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		tournament.Matches = dereferenceMatches(matches)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if organizer, err := s.userRepo.GetByID(ctx, tournament.OrganizerID); err == nil {
		organizer.PasswordHash = ""
		tournament.Organizer = organizer
	} else if s.logger != nil {
		s.logger.WarnContext(ctx, "failed to populate organizer",
			slog.Int("tournament_id", id), slog.Any("error", err))
	}

	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	tournaments, err := s.tournamentRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for _, tournament := range tournaments {
		s.populateLogoURL(tournament)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id, actorID int, actorRole models.UserRole, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
		}
		tournament.Name = *input.Name
		tournament.Slug = slug.Make(*input.Name)
	}
	if input.Game != nil {
		tournament.Game = *input.Game
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.RegDeadline != nil {
		tournament.RegDeadline = *input.RegDeadline
	}
	if input.StartDate != nil {
		tournament.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		tournament.EndDate = *input.EndDate
	}
	if input.MaxCompetitors != nil {
		if *input.MaxCompetitors <= 0 {
			return nil, ErrTournamentInvalidCap
		}
		tournament.MaxCompetitors = *input.MaxCompetitors
	}

	if err := validateTournamentDates(tournament.RegDeadline, tournament.StartDate, tournament.EndDate); err != nil {
		return nil, err
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, translateTournamentRepoError(err)
	}
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id, actorID int, actorRole models.UserRole, status models.TournamentStatus) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	switch status {
	case models.TournamentStatusUpcoming, models.TournamentStatusRegistration,
		models.TournamentStatusActive, models.TournamentStatusCompleted,
		models.TournamentStatusCancelled:
	default:
		return nil, ErrTournamentInvalidStatus
	}

	if !isValidTournamentTransition(tournament.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentBadTransition, tournament.Status, status)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, translateTournamentRepoError(err)
	}
	tournament.Status = status
	return tournament, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id, actorID int, actorRole models.UserRole, contentType string, content io.Reader) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	key, err := uploadImage(ctx, s.uploader, fmt.Sprintf("tournaments/%d", id), contentType, content)
	if err != nil {
		return nil, err
	}

	oldKey := tournament.LogoKey
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &key); err != nil {
		return nil, translateTournamentRepoError(err)
	}
	if oldKey != nil && *oldKey != "" {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete previous tournament logo",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	tournament.LogoKey = &key
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error {
	if _, err := s.authorize(ctx, id, actorID, actorRole); err != nil {
		return err
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return translateTournamentRepoError(err)
	}
	return nil
}

// GenerateFixtures creates a single round-robin schedule for all registered
// competitors: each pair meets once, matches spaced an hour apart starting at
// startAt.
func (s *tournamentService) GenerateFixtures(ctx context.Context, id, actorID int, actorRole models.UserRole, startAt time.Time, bestOf int) ([]*models.Match, error) {
	if _, err := s.authorize(ctx, id, actorID, actorRole); err != nil {
		return nil, err
	}
	if bestOf < 1 {
		return nil, ErrMatchInvalidBestOf
	}
	if startAt.IsZero() {
		return nil, ErrMatchDateRequired
	}

	competitors, err := s.competitorRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitors for tournament %d: %w", id, err)
	}
	if len(competitors) < 2 {
		return nil, ErrNotEnoughCompetitors
	}

	matches := make([]*models.Match, 0, len(competitors)*(len(competitors)-1)/2)
	slot := 0
	for i := 0; i < len(competitors); i++ {
		for j := i + 1; j < len(competitors); j++ {
			matches = append(matches, &models.Match{
				TournamentID: id,
				TeamAID:      competitors[i].ID,
				TeamBID:      competitors[j].ID,
				Round:        1,
				Bracket:      models.BracketGroup,
				BestOf:       bestOf,
				ScheduledAt:  startAt.Add(time.Duration(slot) * time.Hour),
				Status:       models.MatchStatusScheduled,
			})
			slot++
		}
	}

	for _, match := range matches {
		if err := s.matchRepo.Create(ctx, s.db, match); err != nil {
			return nil, translateMatchRepoError(err)
		}
	}
	return matches, nil
}

// authorize loads the tournament and checks the actor may mutate it: the
// owning organizer, or an admin.
func (s *tournamentService) authorize(ctx context.Context, id, actorID int, actorRole models.UserRole) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}
	if actorRole != models.RoleAdmin && tournament.OrganizerID != actorID {
		return nil, ErrForbiddenOperation
	}
	return tournament, nil
}

func (s *tournamentService) populateLogoURL(tournament *models.Tournament) {
	if tournament == nil || tournament.LogoKey == nil || *tournament.LogoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*tournament.LogoKey); url != "" {
		tournament.LogoURL = &url
	}
}

func validateTournamentDates(regDeadline, start, end time.Time) error {
	if regDeadline.IsZero() || start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: registration deadline, start and end dates are required", ErrValidationFailed)
	}
	if regDeadline.After(start) {
		return fmt.Errorf("%w: deadline %s is after start %s",
			ErrTournamentInvalidRegDate, regDeadline.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s, end %s",
			ErrTournamentInvalidDates, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func isValidTournamentTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentStatusUpcoming:     {models.TournamentStatusRegistration, models.TournamentStatusCancelled},
		models.TournamentStatusRegistration: {models.TournamentStatusActive, models.TournamentStatusCancelled},
		models.TournamentStatusActive:       {models.TournamentStatusCompleted, models.TournamentStatusCancelled},
		models.TournamentStatusCompleted:    {},
		models.TournamentStatusCancelled:    {},
	}
	for _, status := range allowed[current] {
		if next == status {
			return true
		}
	}
	return false
}

func translateTournamentRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentSlugConflict):
		return ErrTournamentSlugConflict
	case errors.Is(err, repositories.ErrTournamentOwnerInvalid):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrTournamentHasDependents):
		return fmt.Errorf("%w: tournament still has matches, competitors or highlights", ErrValidationFailed)
	}
	return err
}

func dereferenceCompetitors(slice []*models.Competitor) []models.Competitor {
	result := make([]models.Competitor, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

func dereferenceMatches(slice []*models.Match) []models.Match {
	result := make([]models.Match, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}
