package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/esportium/esports-arena/models"
	"github.com/esportium/esports-arena/repositories"
	"github.com/esportium/esports-arena/storage"
	"github.com/gosimple/slug"
)

type CreateNewsInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UpdateNewsInput struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

type NewsService interface {
	Create(ctx context.Context, authorID int, input CreateNewsInput) (*models.News, error)
	GetByID(ctx context.Context, id int) (*models.News, error)
	GetBySlug(ctx context.Context, slugValue string) (*models.News, error)
	List(ctx context.Context, limit, offset int) ([]*models.News, error)
	Update(ctx context.Context, id, actorID int, actorRole models.UserRole, input UpdateNewsInput) (*models.News, error)
	UploadCover(ctx context.Context, id, actorID int, actorRole models.UserRole, contentType string, content io.Reader) (*models.News, error)
	Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error
	RegisterView(ctx context.Context, id int) (int64, error)
	RegisterLike(ctx context.Context, id int) (int64, error)
	RegisterShare(ctx context.Context, id int) (int64, error)
}

type newsService struct {
	newsRepo repositories.NewsRepository
	uploader storage.FileUploader
}

func NewNewsService(newsRepo repositories.NewsRepository, uploader storage.FileUploader) NewsService {
	return &newsService{newsRepo: newsRepo, uploader: uploader}
}

func (s *newsService) Create(ctx context.Context, authorID int, input CreateNewsInput) (*models.News, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: news title is required", ErrValidationFailed)
	}
	if input.Body == "" {
		return nil, fmt.Errorf("%w: news body is required", ErrValidationFailed)
	}

	post := &models.News{
		AuthorID: authorID,
		Title:    input.Title,
		Slug:     slug.Make(input.Title),
		Body:     input.Body,
	}
	if err := s.newsRepo.Create(ctx, post); err != nil {
		return nil, translateNewsRepoError(err)
	}
	return post, nil
}

func (s *newsService) GetByID(ctx context.Context, id int) (*models.News, error) {
	post, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateNewsRepoError(err)
	}
	s.populateCoverURL(post)
	return post, nil
}

func (s *newsService) GetBySlug(ctx context.Context, slugValue string) (*models.News, error) {
	post, err := s.newsRepo.GetBySlug(ctx, slugValue)
	if err != nil {
		return nil, translateNewsRepoError(err)
	}
	s.populateCoverURL(post)
	return post, nil
}

func (s *newsService) List(ctx context.Context, limit, offset int) ([]*models.News, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.newsRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list news posts: %w", err)
	}
	for _, post := range posts {
		s.populateCoverURL(post)
	}
	return posts, nil
}

func (s *newsService) Update(ctx context.Context, id, actorID int, actorRole models.UserRole, input UpdateNewsInput) (*models.News, error) {
	post, err := s.authorize(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, fmt.Errorf("%w: news title is required", ErrValidationFailed)
		}
		post.Title = *input.Title
		post.Slug = slug.Make(*input.Title)
	}
	if input.Body != nil {
		if *input.Body == "" {
			return nil, fmt.Errorf("%w: news body is required", ErrValidationFailed)
		}
		post.Body = *input.Body
	}

	if err := s.newsRepo.Update(ctx, post); err != nil {
		return nil, translateNewsRepoError(err)
	}
	s.populateCoverURL(post)
	return post, nil
}

func (s *newsService) UploadCover(ctx context.Context, id, actorID int, actorRole models.UserRole, contentType string, content io.Reader) (*models.News, error) {
	post, err := s.authorize(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	key, err := uploadImage(ctx, s.uploader, fmt.Sprintf("news/%d", id), contentType, content)
	if err != nil {
		return nil, err
	}
	if err := s.newsRepo.UpdateCoverKey(ctx, id, &key); err != nil {
		return nil, translateNewsRepoError(err)
	}

	post.CoverKey = &key
	s.populateCoverURL(post)
	return post, nil
}

func (s *newsService) Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error {
	if _, err := s.authorize(ctx, id, actorID, actorRole); err != nil {
		return err
	}
	if err := s.newsRepo.Delete(ctx, id); err != nil {
		return translateNewsRepoError(err)
	}
	return nil
}

func (s *newsService) RegisterView(ctx context.Context, id int) (int64, error) {
	value, err := s.newsRepo.IncrementViews(ctx, id)
	if err != nil {
		return 0, translateNewsRepoError(err)
	}
	return value, nil
}

func (s *newsService) RegisterLike(ctx context.Context, id int) (int64, error) {
	value, err := s.newsRepo.IncrementLikes(ctx, id)
	if err != nil {
		return 0, translateNewsRepoError(err)
	}
	return value, nil
}

func (s *newsService) RegisterShare(ctx context.Context, id int) (int64, error) {
	value, err := s.newsRepo.IncrementShares(ctx, id)
	if err != nil {
		return 0, translateNewsRepoError(err)
	}
	return value, nil
}

func (s *newsService) authorize(ctx context.Context, id, actorID int, actorRole models.UserRole) (*models.News, error) {
	post, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateNewsRepoError(err)
	}
	if actorRole != models.RoleAdmin && post.AuthorID != actorID {
		return nil, ErrForbiddenOperation
	}
	return post, nil
}

func (s *newsService) populateCoverURL(post *models.News) {
	if post == nil || post.CoverKey == nil || *post.CoverKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*post.CoverKey); url != "" {
		post.CoverURL = &url
	}
}

func translateNewsRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNewsNotFound):
		return ErrNewsNotFound
	case errors.Is(err, repositories.ErrNewsSlugConflict):
		return ErrNewsSlugConflict
	}
	return err
}
