package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-api/internal/models"
)

func TestSettingRepositoryUpsertAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings (key, value, description, updated_at)")).
		WithArgs("institute_phone", "0141-2200000", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Upsert(context.Background(), &models.Setting{Key: "institute_phone", Value: "0141-2200000"}))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value, description, updated_at FROM settings ORDER BY key ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "description", "updated_at"}).
			AddRow("institute_phone", "0141-2200000", nil, time.Now()))
	settings, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, "0141-2200000", settings[0].Value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM settings WHERE key = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	deleted, err := repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
