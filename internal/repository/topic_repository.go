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

const topicColumns = "id, title, parent_id, subject, display_order, created_at, updated_at"

// maxAncestorDepth bounds the recursive parent walk so corrupt data cannot loop forever.
const maxAncestorDepth = 64

// TopicRepository handles persistence for topics.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository creates a new repository instance.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// List returns topics matching filters with pagination metadata.
func (r *TopicRepository) List(ctx context.Context, filter models.TopicFilter) ([]models.Topic, int, error) {
	base := "FROM topics WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RootsOnly {
		conditions = append(conditions, "parent_id IS NULL")
	} else if filter.ParentID != "" {
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", len(args)+1))
		args = append(args, filter.ParentID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", topicColumns, base, orderBy, size, offset)
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list topics: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count topics: %w", err)
	}

	return topics, total, nil
}

// ListAll returns every topic, used as the snapshot for tree builds.
func (r *TopicRepository) ListAll(ctx context.Context) ([]models.Topic, error) {
	query := fmt.Sprintf("SELECT %s FROM topics ORDER BY display_order ASC, title ASC", topicColumns)
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query); err != nil {
		return nil, fmt.Errorf("list all topics: %w", err)
	}
	return topics, nil
}

// FindByID returns a topic by id.
func (r *TopicRepository) FindByID(ctx context.Context, id string) (*models.Topic, error) {
	query := fmt.Sprintf("SELECT %s FROM topics WHERE id = $1", topicColumns)
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, err
	}
	return &topic, nil
}

// AncestorIDs walks the parent chain of id, nearest parent first.
func (r *TopicRepository) AncestorIDs(ctx context.Context, id string) ([]string, error) {
	const query = `WITH RECURSIVE chain(id, parent_id, depth) AS (
		SELECT id, parent_id, 0 FROM topics WHERE id = $1
		UNION ALL
		SELECT t.id, t.parent_id, c.depth + 1 FROM topics t JOIN chain c ON t.id = c.parent_id WHERE c.depth < $2
	) SELECT id FROM chain WHERE depth > 0 ORDER BY depth`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, id, maxAncestorDepth); err != nil {
		return nil, fmt.Errorf("topic ancestors: %w", err)
	}
	return ids, nil
}

// Create persists a new topic.
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = now
	}
	topic.UpdatedAt = now

	const query = `INSERT INTO topics (id, title, parent_id, subject, display_order, created_at, updated_at) VALUES (:id, :title, :parent_id, :subject, :display_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

// Update modifies a topic.
func (r *TopicRepository) Update(ctx context.Context, topic *models.Topic) error {
	topic.UpdatedAt = time.Now().UTC()
	const query = `UPDATE topics SET title = :title, parent_id = :parent_id, subject = :subject, display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	return nil
}

// Delete removes a topic record.
func (r *TopicRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return nil
}

// CountDependents returns how many child topics and content items reference the topic.
func (r *TopicRepository) CountDependents(ctx context.Context, id string) (int, error) {
	const query = `SELECT (SELECT COUNT(*) FROM topics WHERE parent_id = $1) + (SELECT COUNT(*) FROM content WHERE topic_id = $1 OR parent_id = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count topic dependents: %w", err)
	}
	return count, nil
}

// normalisePage returns the LIMIT and OFFSET for a 1-based page.
func normalisePage(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
