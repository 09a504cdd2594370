package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "email", "first_name", "last_name", "display_name", "role",
	"sso_provider_id", "is_active", "created_at", "updated_at", "last_login_at",
}

func TestUserStore_FindByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Now()
		mock.ExpectQuery("FROM users").
			WithArgs("jo@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
				int64(1), "jo@example.com", "Jo", "Smith", "Jo Smith", "client",
				nil, true, now, now, nil))

		store := NewUserStore(db)
		user, err := store.FindByEmail(context.Background(), "jo@example.com")

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Nil(t, user.SSOProviderID)
		assert.Nil(t, user.LastLoginAt)
	})

	t.Run("missing passes through sql.ErrNoRows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("FROM users").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns))

		store := NewUserStore(db)
		user, err := store.FindByEmail(context.Background(), "nobody@example.com")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestUserStore_CreateUser(t *testing.T) {
	t.Run("assigns id", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO users").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

		providerID := int64(1)
		user := &User{
			Email:         "jo@example.com",
			FirstName:     "Jo",
			LastName:      "Smith",
			DisplayName:   "Jo Smith",
			Role:          RoleClient,
			SSOProviderID: &providerID,
		}

		store := NewUserStore(db)
		require.NoError(t, store.CreateUser(context.Background(), user))
		assert.Equal(t, int64(7), user.ID)
		assert.True(t, user.IsActive)
	})

	t.Run("unique violation maps to ErrDuplicateEmail", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505"})

		store := NewUserStore(db)
		err = store.CreateUser(context.Background(), &User{Email: "jo@example.com", Role: RoleClient})

		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("other database errors pass through", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "53300"})

		store := NewUserStore(db)
		err = store.CreateUser(context.Background(), &User{Email: "jo@example.com", Role: RoleClient})

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestUserStore_TouchLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET last_login_at").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewUserStore(db)
	require.NoError(t, store.TouchLogin(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
