package sso

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxtravel/portico/pkg/auth"
	"github.com/luxtravel/portico/pkg/errs"
)

var userTestColumns = []string{
	"id", "email", "first_name", "last_name", "display_name", "role",
	"sso_provider_id", "is_active", "created_at", "updated_at", "last_login_at",
}

func userRow(id int64, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userTestColumns).AddRow(
		id, email, "Jo", "Smith", "Jo Smith", "client", int64(1), true, now, now, now)
}

func testIdentity() *ExternalIdentity {
	return &ExternalIdentity{
		SubjectID: "subject-1",
		Email:     "jo@example.com",
		FirstName: "Jo",
		LastName:  "Smith",
	}
}

func TestFindOrCreateUser_ExistingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users").
		WithArgs("jo@example.com").
		WillReturnRows(userRow(10, "jo@example.com"))
	mock.ExpectExec("UPDATE users SET last_login_at").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resolver := NewIdentityResolver(auth.NewUserStore(db))
	user, isNew, err := resolver.FindOrCreateUser(context.Background(), testIdentity(), testProvider())

	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, int64(10), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateUser_Provisions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users").
		WithArgs("jo@example.com").
		WillReturnRows(sqlmock.NewRows(userTestColumns))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	resolver := NewIdentityResolver(auth.NewUserStore(db))
	provider := testProvider()
	user, isNew, err := resolver.FindOrCreateUser(context.Background(), testIdentity(), provider)

	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, int64(11), user.ID)
	assert.Equal(t, "jo@example.com", user.Email)
	assert.Equal(t, provider.DefaultRole, user.Role)
	require.NotNil(t, user.SSOProviderID)
	assert.Equal(t, provider.ID, *user.SSOProviderID)
	assert.Equal(t, "Jo Smith", user.DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateUser_AutoProvisionDisabled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users").
		WithArgs("jo@example.com").
		WillReturnRows(sqlmock.NewRows(userTestColumns))

	provider := testProvider()
	provider.AutoProvision = false

	resolver := NewIdentityResolver(auth.NewUserStore(db))
	user, isNew, err := resolver.FindOrCreateUser(context.Background(), testIdentity(), provider)

	assert.Nil(t, user)
	assert.False(t, isNew)
	var denied *errs.AuthorizationError
	require.ErrorAs(t, err, &denied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateUser_LosesCreateRace(t *testing.T) {
	// A concurrent callback created the user between our lookup and insert.
	// The unique-violation fallback fetches the winner's row and reports the
	// user as pre-existing.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users").
		WithArgs("jo@example.com").
		WillReturnRows(sqlmock.NewRows(userTestColumns))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery("FROM users").
		WithArgs("jo@example.com").
		WillReturnRows(userRow(12, "jo@example.com"))

	resolver := NewIdentityResolver(auth.NewUserStore(db))
	user, isNew, err := resolver.FindOrCreateUser(context.Background(), testIdentity(), testProvider())

	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, int64(12), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		identity *ExternalIdentity
		want     string
	}{
		{
			name:     "explicit display name wins",
			identity: &ExternalIdentity{Email: "jo@example.com", FirstName: "Jo", LastName: "Smith", DisplayName: "JS"},
			want:     "JS",
		},
		{
			name:     "composed from name parts",
			identity: &ExternalIdentity{Email: "jo@example.com", FirstName: "Jo", LastName: "Smith"},
			want:     "Jo Smith",
		},
		{
			name:     "falls back to email",
			identity: &ExternalIdentity{Email: "jo@example.com", FirstName: "Jo"},
			want:     "jo@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(tt.identity))
		})
	}
}
