package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-content-api/internal/models"
)

const filterRuleColumns = "id, name, level, parent_level, filter_type, column_name, column_value, filter_logic, is_active, created_at, updated_at"

// FilterRuleQuery narrows rule listings.
type FilterRuleQuery struct {
	Level      *int
	ActiveOnly bool
}

// FilterRuleRepository handles persistence for hierarchy filter rules.
type FilterRuleRepository struct {
	db *sqlx.DB
}

// NewFilterRuleRepository creates a new repository instance.
func NewFilterRuleRepository(db *sqlx.DB) *FilterRuleRepository {
	return &FilterRuleRepository{db: db}
}

// List returns rules ordered by level then name.
func (r *FilterRuleRepository) List(ctx context.Context, q FilterRuleQuery) ([]models.FilterRule, error) {
	query := fmt.Sprintf("SELECT %s FROM hierarchy_filter_rules WHERE 1=1", filterRuleColumns)
	var conditions []string
	var args []interface{}
	if q.Level != nil {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, *q.Level)
	}
	if q.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY level ASC, name ASC"

	var rules []models.FilterRule
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, fmt.Errorf("list filter rules: %w", err)
	}
	return rules, nil
}

// FindByID returns a rule by id.
func (r *FilterRuleRepository) FindByID(ctx context.Context, id string) (*models.FilterRule, error) {
	query := fmt.Sprintf("SELECT %s FROM hierarchy_filter_rules WHERE id = $1", filterRuleColumns)
	var rule models.FilterRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create persists a new rule.
func (r *FilterRuleRepository) Create(ctx context.Context, rule *models.FilterRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO hierarchy_filter_rules (id, name, level, parent_level, filter_type, column_name, column_value, filter_logic, is_active, created_at, updated_at) VALUES (:id, :name, :level, :parent_level, :filter_type, :column_name, :column_value, :filter_logic, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create filter rule: %w", err)
	}
	return nil
}

// Update modifies a rule.
func (r *FilterRuleRepository) Update(ctx context.Context, rule *models.FilterRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE hierarchy_filter_rules SET name = :name, level = :level, parent_level = :parent_level, filter_type = :filter_type, column_name = :column_name, column_value = :column_value, filter_logic = :filter_logic, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update filter rule: %w", err)
	}
	return nil
}

// Delete removes a rule.
func (r *FilterRuleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM hierarchy_filter_rules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete filter rule: %w", err)
	}
	return nil
}
