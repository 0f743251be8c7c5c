package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-content-api/internal/models"
)

func TestCollectionRepositoryListActiveOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "page_route", "display_type", "filter_criteria", "sort_field", "sort_order", "is_active", "created_at", "updated_at"}).
		AddRow("col", "Debate", "", "/debate", "custom", []byte(`{"showstudent":true}`), "display_order", "asc", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM collections WHERE 1=1 AND is_active = TRUE ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM collections WHERE 1=1 AND is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.CollectionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"showstudent":true}`, string(list[0].FilterCriteria))
	assert.Equal(t, models.DisplayCustom, list[0].DisplayType)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepositoryExistsByRoute(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM collections WHERE page_route = $1 AND is_active = TRUE AND id <> $2 LIMIT 1")).
		WithArgs("/debate", "col").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByRoute(context.Background(), "/debate", "col")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCollectionRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE collections SET is_active = FALSE")).
		WithArgs("col", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "col"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepositoryMappings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "collection_id", "topic_id", "content_id", "groupcard_id", "display_order", "is_featured", "created_at"}).
		AddRow("m1", "col", "bio", nil, nil, 0, true, time.Now()).
		AddRow("m2", "col", nil, "c5", nil, 1, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM collection_content_mappings WHERE collection_id = $1 ORDER BY display_order ASC, created_at ASC")).
		WithArgs("col").
		WillReturnRows(rows)

	mappings, err := repo.ListMappings(context.Background(), "col")
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	kind, id, ok := mappings[1].Target()
	assert.True(t, ok)
	assert.Equal(t, models.MappingContent, kind)
	assert.Equal(t, "c5", id)

	mock.ExpectExec("INSERT INTO collection_content_mappings").
		WithArgs(sqlmock.AnyArg(), "col", "bio", nil, nil, 3, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.AddMapping(context.Background(), &models.CollectionContentMapping{CollectionID: "col", TopicID: models.StringPtr("bio"), DisplayOrder: 3}))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM collection_content_mappings WHERE collection_id = $1 AND id = $2")).
		WithArgs("col", "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RemoveMapping(context.Background(), "col", "m1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepositoryReorderMappings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE collection_content_mappings SET display_order").
		WithArgs("col", "m2", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE collection_content_mappings SET display_order").
		WithArgs("col", "m1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReorderMappings(context.Background(), "col", []MappingPosition{{MappingID: "m2", DisplayOrder: 0}, {MappingID: "m1", DisplayOrder: 1}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepositoryReorderUnknownMappingRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE collection_content_mappings SET display_order").
		WithArgs("col", "ghost", 0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ReorderMappings(context.Background(), "col", []MappingPosition{{MappingID: "ghost"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
