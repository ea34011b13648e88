package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/esportium/esports-arena/models"
	"github.com/esportium/esports-arena/repositories"
	"github.com/esportium/esports-arena/storage"
)

type RegisterCompetitorInput struct {
	Name string  `json:"name"`
	Tag  *string `json:"tag,omitempty"`
}

type CompetitorService interface {
	Register(ctx context.Context, tournamentID, ownerID int, input RegisterCompetitorInput) (*models.Competitor, error)
	GetByID(ctx context.Context, id int) (*models.Competitor, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Competitor, error)
	UploadLogo(ctx context.Context, id, actorID int, actorRole models.UserRole, contentType string, content io.Reader) (*models.Competitor, error)
	Remove(ctx context.Context, id, actorID int, actorRole models.UserRole) error
}

type competitorService struct {
	competitorRepo repositories.CompetitorRepository
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	now            func() time.Time
}

func NewCompetitorService(
	competitorRepo repositories.CompetitorRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
) CompetitorService {
	return &competitorService{
		competitorRepo: competitorRepo,
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		now:            time.Now,
	}
}

// Register enrolls a competitor in a tournament, enforcing the registration
// window and the capacity limit.
func (s *competitorService) Register(ctx context.Context, tournamentID, ownerID int, input RegisterCompetitorInput) (*models.Competitor, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: competitor name is required", ErrValidationFailed)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}
	if tournament.Status != models.TournamentStatusRegistration {
		return nil, ErrRegistrationNotOpen
	}
	if s.now().After(tournament.RegDeadline) {
		return nil, ErrRegistrationClosed
	}

	count, err := s.competitorRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count competitors: %w", err)
	}
	if count >= tournament.MaxCompetitors {
		return nil, ErrTournamentFull
	}

	competitor := &models.Competitor{
		TournamentID: tournamentID,
		Name:         input.Name,
		Tag:          input.Tag,
		OwnerID:      &ownerID,
	}
	if err := s.competitorRepo.Create(ctx, competitor); err != nil {
		return nil, translateCompetitorRepoError(err)
	}
	return competitor, nil
}

func (s *competitorService) GetByID(ctx context.Context, id int) (*models.Competitor, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateCompetitorRepoError(err)
	}
	s.populateLogoURL(competitor)
	return competitor, nil
}

func (s *competitorService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Competitor, error) {
	competitors, err := s.competitorRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors for tournament %d: %w", tournamentID, err)
	}
	for _, competitor := range competitors {
		s.populateLogoURL(competitor)
	}
	return competitors, nil
}

func (s *competitorService) UploadLogo(ctx context.Context, id, actorID int, actorRole models.UserRole, contentType string, content io.Reader) (*models.Competitor, error) {
	competitor, err := s.authorize(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	key, err := uploadImage(ctx, s.uploader, fmt.Sprintf("competitors/%d", id), contentType, content)
	if err != nil {
		return nil, err
	}
	if err := s.competitorRepo.UpdateLogoKey(ctx, id, &key); err != nil {
		return nil, translateCompetitorRepoError(err)
	}

	competitor.LogoKey = &key
	s.populateLogoURL(competitor)
	return competitor, nil
}

func (s *competitorService) Remove(ctx context.Context, id, actorID int, actorRole models.UserRole) error {
	if _, err := s.authorize(ctx, id, actorID, actorRole); err != nil {
		return err
	}
	if err := s.competitorRepo.Delete(ctx, id); err != nil {
		return translateCompetitorRepoError(err)
	}
	return nil
}

// authorize permits the competitor's owner, the tournament organizer, or an
// admin.
func (s *competitorService) authorize(ctx context.Context, id, actorID int, actorRole models.UserRole) (*models.Competitor, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateCompetitorRepoError(err)
	}
	if actorRole == models.RoleAdmin {
		return competitor, nil
	}
	if competitor.OwnerID != nil && *competitor.OwnerID == actorID {
		return competitor, nil
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, competitor.TournamentID)
	if err == nil && tournament.OrganizerID == actorID {
		return competitor, nil
	}
	return nil, ErrForbiddenOperation
}

func (s *competitorService) populateLogoURL(competitor *models.Competitor) {
	if competitor == nil || competitor.LogoKey == nil || *competitor.LogoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*competitor.LogoKey); url != "" {
		competitor.LogoURL = &url
	}
}

func translateCompetitorRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCompetitorNotFound):
		return ErrCompetitorNotFound
	case errors.Is(err, repositories.ErrCompetitorNameConflict):
		return ErrCompetitorNameConflict
	case errors.Is(err, repositories.ErrCompetitorTournamentInvalid):
		return ErrTournamentNotFound
	}
	return err
}
