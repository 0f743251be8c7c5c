package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-content-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func topicRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "parent_id", "subject", "display_order", "created_at", "updated_at"})
}

func TestTopicRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	rows := topicRows().AddRow("cells", "Cells", "bio", nil, 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, parent_id, subject, display_order, created_at, updated_at FROM topics WHERE 1=1 AND parent_id = $1 AND LOWER(title) LIKE $2 ORDER BY display_order ASC, title ASC LIMIT 20 OFFSET 0")).
		WithArgs("bio", "%cel%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM topics WHERE 1=1 AND parent_id = $1 AND LOWER(title) LIKE $2")).
		WithArgs("bio", "%cel%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.TopicFilter{ParentID: "bio", Search: "Cel"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bio", models.StringValue(list[0].ParentID))
	assert.Nil(t, list[0].Subject)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepositoryListRootsSortedByTitle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM topics WHERE 1=1 AND parent_id IS NULL ORDER BY title DESC LIMIT 50 OFFSET 50")).
		WillReturnRows(topicRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM topics WHERE 1=1 AND parent_id IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.TopicFilter{RootsOnly: true, ParentID: "ignored", SortBy: "title", SortOrder: "desc", Page: 2, PageSize: 50})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM topics WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTopicRepositoryAncestorIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	mock.ExpectQuery("WITH RECURSIVE chain").
		WithArgs("leaf", maxAncestorDepth).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mid").AddRow("root"))

	ids, err := repo.AncestorIDs(context.Background(), "leaf")
	require.NoError(t, err)
	assert.Equal(t, []string{"mid", "root"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepositoryCreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	mock.ExpectExec("INSERT INTO topics").
		WithArgs(sqlmock.AnyArg(), "Biology", nil, "Science", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	topic := &models.Topic{Title: "Biology", Subject: models.StringPtr("Science"), DisplayOrder: 1}
	require.NoError(t, repo.Create(context.Background(), topic))
	assert.NotEmpty(t, topic.ID)
	assert.False(t, topic.CreatedAt.IsZero())

	mock.ExpectExec("UPDATE topics SET title").
		WithArgs("Life Science", nil, "Science", 1, sqlmock.AnyArg(), topic.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	topic.Title = "Life Science"
	require.NoError(t, repo.Update(context.Background(), topic))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM topics WHERE id = $1")).
		WithArgs(topic.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), topic.ID))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepositoryCountDependents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT (SELECT COUNT(*) FROM topics WHERE parent_id = $1) + (SELECT COUNT(*) FROM content WHERE topic_id = $1 OR parent_id = $1)")).
		WithArgs("bio").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountDependents(context.Background(), "bio")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepositoryCountDependentsIncludesContentParentLinks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	// Content attached to the topic only through parent_id.
	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM content WHERE topic_id = $1 OR parent_id = $1)")).
		WithArgs("cells").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountDependents(context.Background(), "cells")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
