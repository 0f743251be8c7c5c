package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-content-api/internal/models"
)

const (
	collectionColumns = "id, name, description, page_route, display_type, filter_criteria, sort_field, sort_order, is_active, created_at, updated_at"
	mappingColumns    = "id, collection_id, topic_id, content_id, groupcard_id, display_order, is_featured, created_at"
)

// MappingPosition assigns a display order to one mapping row.
type MappingPosition struct {
	MappingID    string
	DisplayOrder int
}

// CollectionRepository handles persistence for collections and their mappings.
type CollectionRepository struct {
	db *sqlx.DB
}

// NewCollectionRepository creates a new repository instance.
func NewCollectionRepository(db *sqlx.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// List returns collections matching filters with pagination metadata.
func (r *CollectionRepository) List(ctx context.Context, filter models.CollectionFilter) ([]models.Collection, int, error) {
	base := "FROM collections WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.PageRoute != "" {
		conditions = append(conditions, fmt.Sprintf("page_route = $%d", len(args)+1))
		args = append(args, filter.PageRoute)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", collectionColumns, base, size, offset)
	var collections []models.Collection
	if err := r.db.SelectContext(ctx, &collections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	return collections, total, nil
}

// FindByID returns a collection by id.
func (r *CollectionRepository) FindByID(ctx context.Context, id string) (*models.Collection, error) {
	query := fmt.Sprintf("SELECT %s FROM collections WHERE id = $1", collectionColumns)
	var collection models.Collection
	if err := r.db.GetContext(ctx, &collection, query, id); err != nil {
		return nil, err
	}
	return &collection, nil
}

// ExistsByRoute checks that a page route is not bound to another active collection.
func (r *CollectionRepository) ExistsByRoute(ctx context.Context, route string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM collections WHERE page_route = $1 AND is_active = TRUE"
	args := []interface{}{route}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check collection route: %w", err)
	}
	return true, nil
}

// Create persists a new collection.
func (r *CollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	if collection.ID == "" {
		collection.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = now
	}
	collection.UpdatedAt = now

	const query = `INSERT INTO collections (id, name, description, page_route, display_type, filter_criteria, sort_field, sort_order, is_active, created_at, updated_at) VALUES (:id, :name, :description, :page_route, :display_type, :filter_criteria, :sort_field, :sort_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, collection); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Update modifies a collection.
func (r *CollectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	collection.UpdatedAt = time.Now().UTC()
	const query = `UPDATE collections SET name = :name, description = :description, page_route = :page_route, display_type = :display_type, filter_criteria = :filter_criteria, sort_field = :sort_field, sort_order = :sort_order, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, collection); err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	return nil
}

// Deactivate soft deletes a collection.
func (r *CollectionRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE collections SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate collection: %w", err)
	}
	return nil
}

// ListMappings returns the mapping rows of a collection in display order.
func (r *CollectionRepository) ListMappings(ctx context.Context, collectionID string) ([]models.CollectionContentMapping, error) {
	query := fmt.Sprintf("SELECT %s FROM collection_content_mappings WHERE collection_id = $1 ORDER BY display_order ASC, created_at ASC", mappingColumns)
	var mappings []models.CollectionContentMapping
	if err := r.db.SelectContext(ctx, &mappings, query, collectionID); err != nil {
		return nil, fmt.Errorf("list collection mappings: %w", err)
	}
	return mappings, nil
}

// FindMapping returns one mapping row of a collection.
func (r *CollectionRepository) FindMapping(ctx context.Context, collectionID, mappingID string) (*models.CollectionContentMapping, error) {
	query := fmt.Sprintf("SELECT %s FROM collection_content_mappings WHERE collection_id = $1 AND id = $2", mappingColumns)
	var mapping models.CollectionContentMapping
	if err := r.db.GetContext(ctx, &mapping, query, collectionID, mappingID); err != nil {
		return nil, err
	}
	return &mapping, nil
}

// AddMapping persists a new mapping row.
func (r *CollectionRepository) AddMapping(ctx context.Context, mapping *models.CollectionContentMapping) error {
	if mapping.ID == "" {
		mapping.ID = uuid.NewString()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO collection_content_mappings (id, collection_id, topic_id, content_id, groupcard_id, display_order, is_featured, created_at) VALUES (:id, :collection_id, :topic_id, :content_id, :groupcard_id, :display_order, :is_featured, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mapping); err != nil {
		return fmt.Errorf("add collection mapping: %w", err)
	}
	return nil
}

// RemoveMapping deletes a mapping row from a collection.
func (r *CollectionRepository) RemoveMapping(ctx context.Context, collectionID, mappingID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collection_content_mappings WHERE collection_id = $1 AND id = $2`, collectionID, mappingID); err != nil {
		return fmt.Errorf("remove collection mapping: %w", err)
	}
	return nil
}

// ReorderMappings applies new display orders within a single transaction.
func (r *CollectionRepository) ReorderMappings(ctx context.Context, collectionID string, positions []MappingPosition) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder collection mappings: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, pos := range positions {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `UPDATE collection_content_mappings SET display_order = $3 WHERE collection_id = $1 AND id = $2`, collectionID, pos.MappingID, pos.DisplayOrder)
		if err != nil {
			return fmt.Errorf("reorder mapping %s: %w", pos.MappingID, err)
		}
		var affected int64
		if affected, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("reorder mapping %s: %w", pos.MappingID, err)
		}
		if affected == 0 {
			err = sql.ErrNoRows
			return fmt.Errorf("reorder mapping %s: %w", pos.MappingID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder collection mappings: %w", err)
	}
	return nil
}
