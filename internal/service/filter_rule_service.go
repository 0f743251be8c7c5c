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
	"github.com/noah-isme/lms-content-api/internal/repository"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

type filterRuleRepository interface {
	List(ctx context.Context, q repository.FilterRuleQuery) ([]models.FilterRule, error)
	FindByID(ctx context.Context, id string) (*models.FilterRule, error)
	Create(ctx context.Context, rule *models.FilterRule) error
	Update(ctx context.Context, rule *models.FilterRule) error
	Delete(ctx context.Context, id string) error
}

// FilterRuleService manages per-level filter rules.
type FilterRuleService struct {
	repo        filterRuleRepository
	invalidator hierarchyInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewFilterRuleService constructs the filter rule service.
func NewFilterRuleService(repo filterRuleRepository, invalidator hierarchyInvalidator, validate *validator.Validate, logger *zap.Logger) *FilterRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilterRuleService{repo: repo, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns rules, optionally for one level.
func (s *FilterRuleService) List(ctx context.Context, level *int, activeOnly bool) ([]models.FilterRule, error) {
	rules, err := s.repo.List(ctx, repository.FilterRuleQuery{Level: level, ActiveOnly: activeOnly})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list filter rules")
	}
	if rules == nil {
		rules = []models.FilterRule{}
	}
	return rules, nil
}

// Get returns a rule by id.
func (s *FilterRuleService) Get(ctx context.Context, id string) (*models.FilterRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filter rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filter rule")
	}
	return rule, nil
}

// Create stores a new rule. Rules are active unless stated otherwise.
func (s *FilterRuleService) Create(ctx context.Context, req dto.FilterRuleRequest) (*models.FilterRule, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	rule := &models.FilterRule{IsActive: true}
	applyFilterRuleRequest(rule, req)
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create filter rule")
	}
	s.invalidate(ctx, "filter rule created")
	return rule, nil
}

// Update replaces a rule definition.
func (s *FilterRuleService) Update(ctx context.Context, id string, req dto.FilterRuleRequest) (*models.FilterRule, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyFilterRuleRequest(rule, req)
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update filter rule")
	}
	s.invalidate(ctx, "filter rule updated")
	return rule, nil
}

// Delete removes a rule.
func (s *FilterRuleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete filter rule")
	}
	s.invalidate(ctx, "filter rule deleted")
	return nil
}

func (s *FilterRuleService) validate(req dto.FilterRuleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter rule payload")
	}
	if req.ParentLevel != nil && *req.ParentLevel >= req.Level {
		return appErrors.Clone(appErrors.ErrValidation, "parent_level must be above level")
	}
	return nil
}

func (s *FilterRuleService) invalidate(ctx context.Context, reason string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, reason)
	}
}

func applyFilterRuleRequest(rule *models.FilterRule, req dto.FilterRuleRequest) {
	rule.Name = strings.TrimSpace(req.Name)
	rule.Level = req.Level
	rule.ParentLevel = req.ParentLevel
	rule.FilterType = models.FilterType(req.FilterType)
	rule.ColumnName = strings.TrimSpace(req.ColumnName)
	rule.ColumnValue = req.ColumnValue
	rule.FilterLogic = models.FilterLogic(req.FilterLogic)
	if rule.FilterType == models.FilterColumnValue && rule.FilterLogic == "" {
		rule.FilterLogic = models.LogicEquals
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
}
