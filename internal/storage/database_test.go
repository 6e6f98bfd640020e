package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/pkg/apperr"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return WrapDB(sqlx.NewDb(mockDB, "sqlmock"), zap.NewNop()), mock
}

func TestCreateChatPairConflict(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectQuery("INSERT INTO chats").
		WithArgs("Go developer", int64(4), int64(9), "key-1", nil).
		WillReturnError(&pq.Error{Code: "23505"})

	err := db.CreateChat(context.Background(), &models.Chat{
		Title:   "Go developer",
		User1ID: 4,
		User2ID: 9,
		ChatKey: "key-1",
	})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateChatReturnsID(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectQuery("INSERT INTO chats").
		WithArgs("Go developer", int64(4), int64(9), "key-1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	chat := &models.Chat{Title: "Go developer", User1ID: 4, User2ID: 9, ChatKey: "key-1"}
	require.NoError(t, db.CreateChat(context.Background(), chat))
	assert.Equal(t, int64(7), chat.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWorkerExtrasByID(t *testing.T) {
	t.Run("missing worker yields nil", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectQuery("SELECT \\* FROM worker_extras").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

		extras, err := db.GetWorkerExtrasByID(context.Background(), 99)
		require.NoError(t, err)
		assert.Nil(t, extras)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing worker", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectQuery("SELECT \\* FROM worker_extras").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(int64(3), int64(42)))

		extras, err := db.GetWorkerExtrasByID(context.Background(), 3)
		require.NoError(t, err)
		require.NotNil(t, extras)
		assert.Equal(t, int64(3), extras.ID)
		assert.Equal(t, int64(42), extras.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
