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

const contentColumns = "id, title, parent_id, topic_id, subjects, display_order, show_student, created_at, updated_at"

// ContentRepository handles persistence for content items.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new repository instance.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// List returns content matching filters with pagination metadata.
func (r *ContentRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.Content, int, error) {
	base := "FROM content WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TopicID != "" {
		conditions = append(conditions, fmt.Sprintf("topic_id = $%d", len(args)+1))
		args = append(args, filter.TopicID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(subjects)", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"title":         true,
		"display_order": true,
		"created_at":    true,
		"updated_at":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "display_order"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	size, offset := normalisePage(filter.Page, filter.PageSize)

	orderBy := sortBy + " " + order
	if sortBy != "title" {
		orderBy += ", title ASC"
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", contentColumns, base, orderBy, size, offset)
	var items []models.Content
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list content: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count content: %w", err)
	}

	return items, total, nil
}

// ListAll returns every content item, used as the snapshot for tree builds.
func (r *ContentRepository) ListAll(ctx context.Context) ([]models.Content, error) {
	query := fmt.Sprintf("SELECT %s FROM content ORDER BY display_order ASC, title ASC", contentColumns)
	var items []models.Content
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list all content: %w", err)
	}
	return items, nil
}

// FindByID returns a content item by id.
func (r *ContentRepository) FindByID(ctx context.Context, id string) (*models.Content, error) {
	query := fmt.Sprintf("SELECT %s FROM content WHERE id = $1", contentColumns)
	var item models.Content
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create persists a new content item.
func (r *ContentRepository) Create(ctx context.Context, item *models.Content) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO content (id, title, parent_id, topic_id, subjects, display_order, show_student, created_at, updated_at) VALUES (:id, :title, :parent_id, :topic_id, :subjects, :display_order, :show_student, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create content: %w", err)
	}
	return nil
}

// Update modifies a content item.
func (r *ContentRepository) Update(ctx context.Context, item *models.Content) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE content SET title = :title, parent_id = :parent_id, topic_id = :topic_id, subjects = :subjects, display_order = :display_order, show_student = :show_student, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	return nil
}

// Delete removes a content item and its collection placements.
func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete content: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM collection_content_mappings WHERE content_id = $1`, id); err != nil {
		return fmt.Errorf("delete content mappings: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM content WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete content: %w", err)
	}
	return nil
}

// CountChildren returns the number of content items nested under id.
func (r *ContentRepository) CountChildren(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM content WHERE parent_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count content children: %w", err)
	}
	return count, nil
}

