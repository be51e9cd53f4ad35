package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/appblock/internal/model"
)

func newMockRepository(t *testing.T) (*PreferenceRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPreferenceRepository(&Connection{DB: db}), mock
}

func TestPreferenceRepository_GetAll(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT name, value FROM preferences`)

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		rows := sqlmock.NewRows([]string{"name", "value"}).
			AddRow(model.KeyBlockEnabled, "true").
			AddRow(model.KeyEmail, "me@example.com")
		mock.ExpectQuery(query).WillReturnRows(rows)

		values, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			model.KeyBlockEnabled: "true",
			model.KeyEmail:        "me@example.com",
		}, values)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"name", "value"}))

		values, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(query).WillReturnError(errors.New("disk I/O error"))

		_, err := repo.GetAll(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query preferences")
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		rows := sqlmock.NewRows([]string{"name", "value"}).
			AddRow(model.KeyBlockEnabled, "true").
			RowError(0, errors.New("corrupt page"))
		mock.ExpectQuery(query).WillReturnRows(rows)

		_, err := repo.GetAll(ctx)
		assert.Error(t, err)
	})
}

func TestPreferenceRepository_Set(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO preferences (name, value, updated_at)`)

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectExec(query).WithArgs(model.KeyBlockEnabled, "true").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Set(ctx, model.KeyBlockEnabled, "true"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectExec(query).WithArgs(model.KeyBlockEnabled, "true").
			WillReturnError(errors.New("database is locked"))

		err := repo.Set(ctx, model.KeyBlockEnabled, "true")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set preference isOn")
	})
}

func TestPreferenceRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := NewConnection(ctx, DriverSQLite, "file:"+t.TempDir()+"/prefs.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewPreferenceRepository(conn)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, repo.Set(ctx, model.KeyEmail, "first@example.com"))
	require.NoError(t, repo.Set(ctx, model.KeyEmail, "second@example.com"))

	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{model.KeyEmail: "second@example.com"}, all)
}

func TestNewConnection_UnsupportedDriver(t *testing.T) {
	_, err := NewConnection(context.Background(), "mysql", "root@/db")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
