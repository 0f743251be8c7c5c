package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/models"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

type contentRepository interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.Content, int, error)
	FindByID(ctx context.Context, id string) (*models.Content, error)
	Create(ctx context.Context, item *models.Content) error
	Update(ctx context.Context, item *models.Content) error
	Delete(ctx context.Context, id string) error
	CountChildren(ctx context.Context, id string) (int, error)
}

type contentTopicReader interface {
	FindByID(ctx context.Context, id string) (*models.Topic, error)
}

// ContentService handles content item use-cases.
type ContentService struct {
	repo        contentRepository
	topics      contentTopicReader
	invalidator hierarchyInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewContentService constructs the content service.
func NewContentService(repo contentRepository, topics contentTopicReader, invalidator hierarchyInvalidator, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{repo: repo, topics: topics, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns content items and pagination metadata.
func (s *ContentService) List(ctx context.Context, filter models.ContentFilter) ([]models.Content, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list content")
	}
	return items, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a content item by id.
func (s *ContentService) Get(ctx context.Context, id string) (*models.Content, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "content not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
	}
	return item, nil
}

// Create registers a new content item.
func (s *ContentService) Create(ctx context.Context, req dto.CreateContentRequest) (*models.Content, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}
	item := &models.Content{
		Title:        strings.TrimSpace(req.Title),
		ParentID:     trimmedPtr(req.ParentID),
		TopicID:      trimmedPtr(req.TopicID),
		Subjects:     normaliseContentSubjects(req.Subjects),
		DisplayOrder: req.DisplayOrder,
		ShowStudent:  req.ShowStudent,
	}
	if err := s.ensureReferences(ctx, item); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create content")
	}
	s.invalidate(ctx, "content created")
	return item, nil
}

// Update modifies an existing content item.
func (s *ContentService) Update(ctx context.Context, id string, req dto.UpdateContentRequest) (*models.Content, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Title = strings.TrimSpace(req.Title)
	item.ParentID = trimmedPtr(req.ParentID)
	item.TopicID = trimmedPtr(req.TopicID)
	item.Subjects = normaliseContentSubjects(req.Subjects)
	item.DisplayOrder = req.DisplayOrder
	item.ShowStudent = req.ShowStudent
	if err := s.ensureReferences(ctx, item); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update content")
	}
	s.invalidate(ctx, "content updated")
	return item, nil
}

// Delete removes a content item and its collection placements.
func (s *ContentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check content children")
	}
	if children > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "content still has nested items")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete content")
	}
	s.invalidate(ctx, "content deleted")
	return nil
}

func (s *ContentService) ensureReferences(ctx context.Context, item *models.Content) error {
	if item.TopicID != nil {
		if _, err := s.topics.FindByID(ctx, *item.TopicID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "topic not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic")
		}
	}
	if item.ParentID == nil {
		return nil
	}
	if *item.ParentID == item.ID {
		return appErrors.Clone(appErrors.ErrHierarchyCycle, "content cannot be its own parent")
	}
	if _, err := s.repo.FindByID(ctx, *item.ParentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "parent content not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent content")
	}
	return nil
}

func (s *ContentService) invalidate(ctx context.Context, reason string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, reason)
	}
}

// normaliseContentSubjects trims tags and drops blanks and repeats, keeping
// first-seen order.
func normaliseContentSubjects(values []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, raw := range values {
		subject := strings.TrimSpace(raw)
		if subject == "" || seen[subject] {
			continue
		}
		seen[subject] = true
		out = append(out, subject)
	}
	return out
}
