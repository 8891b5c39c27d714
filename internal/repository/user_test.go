package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swfilms/swfilms-go/internal/model"
)

var errDupEntry = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var userCols = []string{"id", "name", "username", "password_hash", "role", "created_at", "updated_at"}

func TestNewRepositories(t *testing.T) {
	assert.NotNil(t, NewUserRepository(nil))
	assert.NotNil(t, NewMovieRepository(nil))
}

func TestSentinelErrors(t *testing.T) {
	assert.EqualError(t, ErrUserNotFound, "user not found")
	assert.EqualError(t, ErrDuplicateUsername, "username already exists")
	assert.EqualError(t, ErrMovieNotFound, "movie not found")
	assert.EqualError(t, ErrDuplicateEpisode, "episode already exists")
}

func TestIsDuplicateEntryError(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '4' for key 'uq_movies_episode_id'"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrUserNotFound, false},
		{"duplicate entry", dup, true},
		{"wrapped duplicate entry", fmt.Errorf("insert: %w", dup), true},
		{"other mysql error", &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, false},
		{"plain text mentioning duplicate", errors.New("Duplicate entry"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateEntryError(tt.err))
		})
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := splitStatements(initSchemaSQL)

	assert.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, stmts[0], "UNIQUE KEY uq_users_username (username)")
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS movies")
	assert.Contains(t, stmts[1], "UNIQUE KEY uq_movies_episode_id (episode_id)")
}

func TestSplitStatementsSkipsBlanks(t *testing.T) {
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, splitStatements("SELECT 1;\n\n ;SELECT 2;\n"))
	assert.Empty(t, splitStatements("  \n"))
}

func TestEnsureSchemaAppliesEveryStatement(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS movies").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
}

func TestEnsureSchemaStopsOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("access denied"))

	err := EnsureSchema(context.Background(), db)
	assert.ErrorContains(t, err, "access denied")
}

func TestUserCreate(t *testing.T) {
	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{"inserted", nil, nil},
		{"duplicate username", errDupEntry, ErrDuplicateUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			exp := mock.ExpectExec("INSERT INTO users").
				WithArgs("Leia Organa", "leia", "hash", model.RoleRegular, sqlmock.AnyArg(), sqlmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(7, 1))
			}

			user := &model.User{Name: "Leia Organa", Username: "leia", PasswordHash: "hash", Role: model.RoleRegular}
			err := NewUserRepository(db).Create(context.Background(), user)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, user.ID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), user.ID)
			assert.False(t, user.CreatedAt.IsZero())
		})
	}
}

func TestUserGetByUsername(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = ?").
		WithArgs("leia").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "Leia Organa", "leia", "hash", "ADMIN", now, now))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = ?").
		WithArgs("vader").
		WillReturnRows(sqlmock.NewRows(userCols))

	repo := NewUserRepository(db)

	user, err := repo.GetByUsername(context.Background(), "leia")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Equal(t, now, user.CreatedAt)

	_, err = repo.GetByUsername(context.Background(), "vader")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserCreateIfAbsentInserts(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	admin := &model.User{Name: "Administrator", Username: "admin", PasswordHash: "new-hash", Role: model.RoleAdmin}
	created, err := NewUserRepository(db).CreateIfAbsent(context.Background(), admin)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), admin.ID)
}

func TestUserCreateIfAbsentLeavesExistingAlone(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	// no UPDATE may follow the rejected insert
	mock.ExpectExec("INSERT INTO users").WillReturnError(errDupEntry)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = ?").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(9, "Someone", "admin", "old-hash", "REGULAR", now, now))

	admin := &model.User{Name: "Administrator", Username: "admin", PasswordHash: "new-hash", Role: model.RoleAdmin}
	created, err := NewUserRepository(db).CreateIfAbsent(context.Background(), admin)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(9), admin.ID)
	assert.Equal(t, "old-hash", admin.PasswordHash)
	assert.Equal(t, model.RoleRegular, admin.Role)
}

func TestUserCreateIfAbsentPropagatesErrors(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	created, err := NewUserRepository(db).CreateIfAbsent(context.Background(), &model.User{Username: "admin"})
	assert.ErrorContains(t, err, "connection reset")
	assert.False(t, created)
}
