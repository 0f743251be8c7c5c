package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/models"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

type topicRepository interface {
	List(ctx context.Context, filter models.TopicFilter) ([]models.Topic, int, error)
	FindByID(ctx context.Context, id string) (*models.Topic, error)
	AncestorIDs(ctx context.Context, id string) ([]string, error)
	Create(ctx context.Context, topic *models.Topic) error
	Update(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, id string) error
	CountDependents(ctx context.Context, id string) (int, error)
}

type hierarchyInvalidator interface {
	Invalidate(ctx context.Context, reason string)
}

// TopicService handles topic use-cases.
type TopicService struct {
	repo        topicRepository
	invalidator hierarchyInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTopicService constructs the topic service.
func NewTopicService(repo topicRepository, invalidator hierarchyInvalidator, validate *validator.Validate, logger *zap.Logger) *TopicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicService{repo: repo, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns topics and pagination metadata.
func (s *TopicService) List(ctx context.Context, filter models.TopicFilter) ([]models.Topic, *models.Pagination, error) {
	topics, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list topics")
	}
	return topics, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a topic by id.
func (s *TopicService) Get(ctx context.Context, id string) (*models.Topic, error) {
	topic, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "topic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic")
	}
	return topic, nil
}

// Create registers a new topic.
func (s *TopicService) Create(ctx context.Context, req dto.CreateTopicRequest) (*models.Topic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topic payload")
	}
	parentID := trimmedPtr(req.ParentID)
	if err := s.ensureParent(ctx, "", parentID); err != nil {
		return nil, err
	}
	topic := &models.Topic{
		Title:        strings.TrimSpace(req.Title),
		ParentID:     parentID,
		Subject:      trimmedPtr(req.Subject),
		DisplayOrder: req.DisplayOrder,
	}
	if err := s.repo.Create(ctx, topic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create topic")
	}
	s.invalidate(ctx, "topic created")
	return topic, nil
}

// Update modifies an existing topic. Reparenting under one of its own
// descendants is rejected.
func (s *TopicService) Update(ctx context.Context, id string, req dto.UpdateTopicRequest) (*models.Topic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topic payload")
	}
	topic, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	parentID := trimmedPtr(req.ParentID)
	if err := s.ensureParent(ctx, id, parentID); err != nil {
		return nil, err
	}
	topic.Title = strings.TrimSpace(req.Title)
	topic.ParentID = parentID
	topic.Subject = trimmedPtr(req.Subject)
	topic.DisplayOrder = req.DisplayOrder
	if err := s.repo.Update(ctx, topic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update topic")
	}
	s.invalidate(ctx, "topic updated")
	return topic, nil
}

// Delete removes a topic that nothing references anymore.
func (s *TopicService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	dependents, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check topic dependents")
	}
	if dependents > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "topic still has child topics or content")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete topic")
	}
	s.invalidate(ctx, "topic deleted")
	return nil
}

func (s *TopicService) ensureParent(ctx context.Context, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return appErrors.Clone(appErrors.ErrHierarchyCycle, "topic cannot be its own parent")
	}
	if _, err := s.repo.FindByID(ctx, *parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "parent topic not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent topic")
	}
	if id == "" {
		return nil
	}
	ancestors, err := s.repo.AncestorIDs(ctx, *parentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve topic ancestors")
	}
	for _, ancestor := range ancestors {
		if ancestor == id {
			return appErrors.WithDetails(appErrors.ErrHierarchyCycle, map[string]interface{}{
				"topic_id":  id,
				"parent_id": *parentID,
				"ancestors": ancestors,
			})
		}
	}
	return nil
}

func (s *TopicService) invalidate(ctx context.Context, reason string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, reason)
	}
}

func newPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return models.StringPtr(strings.TrimSpace(*value))
}
