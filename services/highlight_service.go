package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/esportium/esports-arena/models"
	"github.com/esportium/esports-arena/repositories"
	"github.com/esportium/esports-arena/storage"
)

type CreateHighlightInput struct {
	TournamentID int     `json:"tournament_id"`
	MatchID      *int    `json:"match_id,omitempty"`
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
}

type HighlightService interface {
	Create(ctx context.Context, uploaderID int, input CreateHighlightInput) (*models.Highlight, error)
	GetByID(ctx context.Context, id int) (*models.Highlight, error)
	List(ctx context.Context, limit, offset int) ([]*models.Highlight, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Highlight, error)
	UploadVideo(ctx context.Context, id, actorID int, actorRole models.UserRole, contentType string, content io.Reader) (*models.Highlight, error)
	Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error
	RegisterView(ctx context.Context, id int) (int64, error)
	RegisterLike(ctx context.Context, id int) (int64, error)
}

type highlightService struct {
	highlightRepo  repositories.HighlightRepository
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewHighlightService(
	highlightRepo repositories.HighlightRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) HighlightService {
	return &highlightService{
		highlightRepo:  highlightRepo,
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *highlightService) Create(ctx context.Context, uploaderID int, input CreateHighlightInput) (*models.Highlight, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: highlight title is required", ErrValidationFailed)
	}

	exists, err := s.tournamentRepo.Exists(ctx, input.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tournament %d: %w", input.TournamentID, err)
	}
	if !exists {
		return nil, ErrTournamentNotFound
	}

	highlight := &models.Highlight{
		TournamentID: input.TournamentID,
		MatchID:      input.MatchID,
		UploaderID:   uploaderID,
		Title:        input.Title,
		Description:  input.Description,
	}
	if err := s.highlightRepo.Create(ctx, highlight); err != nil {
		return nil, translateHighlightRepoError(err)
	}
	return highlight, nil
}

func (s *highlightService) GetByID(ctx context.Context, id int) (*models.Highlight, error) {
	highlight, err := s.highlightRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateHighlightRepoError(err)
	}
	s.populateVideoURL(highlight)
	return highlight, nil
}

func (s *highlightService) List(ctx context.Context, limit, offset int) ([]*models.Highlight, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	highlights, err := s.highlightRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list highlights: %w", err)
	}
	for _, highlight := range highlights {
		s.populateVideoURL(highlight)
	}
	return highlights, nil
}

func (s *highlightService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Highlight, error) {
	highlights, err := s.highlightRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list highlights for tournament %d: %w", tournamentID, err)
	}
	for _, highlight := range highlights {
		s.populateVideoURL(highlight)
	}
	return highlights, nil
}

func (s *highlightService) UploadVideo(ctx context.Context, id, actorID int, actorRole models.UserRole, contentType string, content io.Reader) (*models.Highlight, error) {
	highlight, err := s.authorize(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	key, err := uploadVideo(ctx, s.uploader, fmt.Sprintf("highlights/%d", id), contentType, content)
	if err != nil {
		return nil, err
	}

	oldKey := highlight.VideoKey
	if err := s.highlightRepo.UpdateVideoKey(ctx, id, &key); err != nil {
		return nil, translateHighlightRepoError(err)
	}
	if oldKey != nil && *oldKey != "" {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete previous highlight video",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	highlight.VideoKey = &key
	s.populateVideoURL(highlight)
	return highlight, nil
}

func (s *highlightService) Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error {
	highlight, err := s.authorize(ctx, id, actorID, actorRole)
	if err != nil {
		return err
	}
	if err := s.highlightRepo.Delete(ctx, id); err != nil {
		return translateHighlightRepoError(err)
	}
	if highlight.VideoKey != nil && *highlight.VideoKey != "" {
		if delErr := s.uploader.Delete(ctx, *highlight.VideoKey); delErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete highlight video",
				slog.String("key", *highlight.VideoKey), slog.Any("error", delErr))
		}
	}
	return nil
}

func (s *highlightService) RegisterView(ctx context.Context, id int) (int64, error) {
	value, err := s.highlightRepo.IncrementViews(ctx, id)
	if err != nil {
		return 0, translateHighlightRepoError(err)
	}
	return value, nil
}

func (s *highlightService) RegisterLike(ctx context.Context, id int) (int64, error) {
	value, err := s.highlightRepo.IncrementLikes(ctx, id)
	if err != nil {
		return 0, translateHighlightRepoError(err)
	}
	return value, nil
}

func (s *highlightService) authorize(ctx context.Context, id, actorID int, actorRole models.UserRole) (*models.Highlight, error) {
	highlight, err := s.highlightRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateHighlightRepoError(err)
	}
	if actorRole != models.RoleAdmin && highlight.UploaderID != actorID {
		return nil, ErrForbiddenOperation
	}
	return highlight, nil
}

func (s *highlightService) populateVideoURL(highlight *models.Highlight) {
	if highlight == nil || highlight.VideoKey == nil || *highlight.VideoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*highlight.VideoKey); url != "" {
		highlight.VideoURL = &url
	}
}

func translateHighlightRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrHighlightNotFound):
		return ErrHighlightNotFound
	case errors.Is(err, repositories.ErrHighlightTournamentInvalid):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrHighlightMatchInvalid):
		return ErrMatchNotFound
	}
	return err
}
