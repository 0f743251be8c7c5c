package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/models"
	"github.com/noah-isme/lms-content-api/internal/repository"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

type collectionRepository interface {
	List(ctx context.Context, filter models.CollectionFilter) ([]models.Collection, int, error)
	FindByID(ctx context.Context, id string) (*models.Collection, error)
	ExistsByRoute(ctx context.Context, route string, excludeID string) (bool, error)
	Create(ctx context.Context, collection *models.Collection) error
	Update(ctx context.Context, collection *models.Collection) error
	Deactivate(ctx context.Context, id string) error
	ListMappings(ctx context.Context, collectionID string) ([]models.CollectionContentMapping, error)
	FindMapping(ctx context.Context, collectionID, mappingID string) (*models.CollectionContentMapping, error)
	AddMapping(ctx context.Context, mapping *models.CollectionContentMapping) error
	RemoveMapping(ctx context.Context, collectionID, mappingID string) error
	ReorderMappings(ctx context.Context, collectionID string, positions []repository.MappingPosition) error
}

type mappingTopicReader interface {
	FindByID(ctx context.Context, id string) (*models.Topic, error)
}

type mappingContentReader interface {
	FindByID(ctx context.Context, id string) (*models.Content, error)
}

// CollectionService handles collections and their mapping rows.
type CollectionService struct {
	repo        collectionRepository
	topics      mappingTopicReader
	content     mappingContentReader
	invalidator hierarchyInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCollectionService constructs the collection service.
func NewCollectionService(repo collectionRepository, topics mappingTopicReader, content mappingContentReader, invalidator hierarchyInvalidator, validate *validator.Validate, logger *zap.Logger) *CollectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollectionService{repo: repo, topics: topics, content: content, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns collections and pagination metadata.
func (s *CollectionService) List(ctx context.Context, filter models.CollectionFilter) ([]models.Collection, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collections")
	}
	return items, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a collection by id, active or not.
func (s *CollectionService) Get(ctx context.Context, id string) (*models.Collection, error) {
	collection, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collection not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection")
	}
	return collection, nil
}

// Create registers a new collection.
func (s *CollectionService) Create(ctx context.Context, req dto.CreateCollectionRequest) (*models.Collection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collection payload")
	}
	criteria, err := normaliseCriteria(req.FilterCriteria)
	if err != nil {
		return nil, err
	}
	route := trimmedPtr(req.PageRoute)
	if err := s.ensureRouteFree(ctx, route, ""); err != nil {
		return nil, err
	}
	collection := &models.Collection{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		PageRoute:      route,
		DisplayType:    displayTypeOrDefault(req.DisplayType),
		FilterCriteria: criteria,
		SortField:      sortFieldOrDefault(req.SortField),
		SortOrder:      sortOrderOrDefault(req.SortOrder),
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, collection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create collection")
	}
	s.invalidate(ctx, "collection created")
	return collection, nil
}

// Update modifies a collection.
func (s *CollectionService) Update(ctx context.Context, id string, req dto.UpdateCollectionRequest) (*models.Collection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collection payload")
	}
	collection, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	criteria, err := normaliseCriteria(req.FilterCriteria)
	if err != nil {
		return nil, err
	}
	route := trimmedPtr(req.PageRoute)
	active := collection.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if active {
		if err := s.ensureRouteFree(ctx, route, id); err != nil {
			return nil, err
		}
	}

	collection.Name = strings.TrimSpace(req.Name)
	collection.Description = req.Description
	collection.PageRoute = route
	collection.DisplayType = displayTypeOrDefault(req.DisplayType)
	collection.FilterCriteria = criteria
	collection.SortField = sortFieldOrDefault(req.SortField)
	collection.SortOrder = sortOrderOrDefault(req.SortOrder)
	collection.IsActive = active
	if err := s.repo.Update(ctx, collection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update collection")
	}
	s.invalidate(ctx, "collection updated")
	return collection, nil
}

// Deactivate soft deletes a collection. Its mappings are kept.
func (s *CollectionService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate collection")
	}
	s.invalidate(ctx, "collection deactivated")
	return nil
}

// ListMappings returns the mapping rows of a collection in display order.
func (s *CollectionService) ListMappings(ctx context.Context, collectionID string) ([]models.CollectionContentMapping, error) {
	if _, err := s.Get(ctx, collectionID); err != nil {
		return nil, err
	}
	mappings, err := s.repo.ListMappings(ctx, collectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collection mappings")
	}
	if mappings == nil {
		mappings = []models.CollectionContentMapping{}
	}
	return mappings, nil
}

// AddMapping places one topic, content item or group card in a collection.
// New rows go to the end unless a display order is given.
func (s *CollectionService) AddMapping(ctx context.Context, collectionID string, req dto.AddMappingRequest) (*models.CollectionContentMapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping payload")
	}
	if _, err := s.Get(ctx, collectionID); err != nil {
		return nil, err
	}

	mapping := &models.CollectionContentMapping{
		CollectionID: collectionID,
		TopicID:      trimmedPtr(req.TopicID),
		ContentID:    trimmedPtr(req.ContentID),
		GroupcardID:  trimmedPtr(req.GroupcardID),
		IsFeatured:   req.IsFeatured,
	}
	kind, targetID, ok := mapping.Target()
	if !ok {
		return nil, appErrors.ErrInvalidMapping
	}
	if err := s.ensureTarget(ctx, kind, targetID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListMappings(ctx, collectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collection mappings")
	}
	next := 0
	for _, m := range existing {
		if k, id, ok := m.Target(); ok && k == kind && id == targetID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "entity already mapped into collection")
		}
		if m.DisplayOrder >= next {
			next = m.DisplayOrder + 1
		}
	}
	mapping.DisplayOrder = next
	if req.DisplayOrder != nil {
		mapping.DisplayOrder = *req.DisplayOrder
	}

	if err := s.repo.AddMapping(ctx, mapping); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add collection mapping")
	}
	s.invalidate(ctx, "collection mapping added")
	return mapping, nil
}

// RemoveMapping deletes a mapping row.
func (s *CollectionService) RemoveMapping(ctx context.Context, collectionID, mappingID string) error {
	if _, err := s.repo.FindMapping(ctx, collectionID, mappingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "collection mapping not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection mapping")
	}
	if err := s.repo.RemoveMapping(ctx, collectionID, mappingID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove collection mapping")
	}
	s.invalidate(ctx, "collection mapping removed")
	return nil
}

// ReorderMappings applies new display orders in one transaction.
func (s *CollectionService) ReorderMappings(ctx context.Context, collectionID string, req dto.ReorderMappingsRequest) ([]models.CollectionContentMapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}
	if _, err := s.Get(ctx, collectionID); err != nil {
		return nil, err
	}

	positions := make([]repository.MappingPosition, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		if seen[item.MappingID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "mapping listed twice")
		}
		seen[item.MappingID] = true
		positions = append(positions, repository.MappingPosition{MappingID: item.MappingID, DisplayOrder: item.DisplayOrder})
	}

	if err := s.repo.ReorderMappings(ctx, collectionID, positions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collection mapping not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder collection mappings")
	}
	s.invalidate(ctx, "collection mappings reordered")
	return s.ListMappings(ctx, collectionID)
}

func (s *CollectionService) ensureRouteFree(ctx context.Context, route *string, excludeID string) error {
	if route == nil {
		return nil
	}
	exists, err := s.repo.ExistsByRoute(ctx, *route, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate page route")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "page route already used by an active collection")
	}
	return nil
}

func (s *CollectionService) ensureTarget(ctx context.Context, kind models.MappingTargetKind, id string) error {
	var err error
	switch kind {
	case models.MappingTopic:
		_, err = s.topics.FindByID(ctx, id)
	case models.MappingContent:
		_, err = s.content.FindByID(ctx, id)
	default:
		// Group cards live in another service and are not checked here.
		return nil
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrValidation, string(kind)+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mapping target")
}

func (s *CollectionService) invalidate(ctx context.Context, reason string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, reason)
	}
}

// normaliseCriteria accepts an absent value or a JSON object.
func normaliseCriteria(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "filter_criteria must be a JSON object")
	}
	return json.RawMessage(trimmed), nil
}

func displayTypeOrDefault(value string) models.DisplayType {
	if value == "" {
		return models.DisplayGrid
	}
	return models.DisplayType(value)
}

func sortFieldOrDefault(value string) string {
	if value == "" {
		return "display_order"
	}
	return value
}

func sortOrderOrDefault(value string) models.SortOrder {
	if value == "" {
		return models.SortAsc
	}
	return models.SortOrder(value)
}
