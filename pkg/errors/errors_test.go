package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesPredefinedByCode(t *testing.T) {
	err := fmt.Errorf("load topic: %w", Clone(ErrNotFound, "topic not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "topic not found", FromError(err).Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
	assert.Nil(t, FromError(nil))
}

func TestWithDetailsDoesNotTouchOriginal(t *testing.T) {
	detailed := WithDetails(ErrHierarchyCycle, map[string]interface{}{"topic_id": "bio"})

	assert.Equal(t, ErrHierarchyCycle.Code, detailed.Code)
	assert.NotNil(t, detailed.Details)
	assert.Nil(t, ErrHierarchyCycle.Details)
	assert.Nil(t, WithDetails(nil, "x"))
}
