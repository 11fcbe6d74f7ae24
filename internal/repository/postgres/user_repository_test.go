package postgres

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func TestUserCreate_DuplicatePhone(t *testing.T) {
	it(func() {
		user := &entity.User{ID: "u-1", Username: "lan", Phone: null.StringFrom("+84912345678"), Role: entity.RoleResident, CreatedAt: fixedTime}
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_phone_key"})

		repo := NewUserRepository(db)
		err := repo.Create(context.Background(), user)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})
}

func TestUserGetByPhone(t *testing.T) {
	it(func() {
		rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "full_name", "phone", "email", "role", "management_area_code", "created_at", "last_login_at"}).
			AddRow("u-1", "lan", "$2a$10$hash", "Nguyen Thi Lan", "+84912345678", nil, "WARD_OFFICIAL", "HN-HK-01", fixedTime, nil)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone = $1")).
			WithArgs("+84912345678").
			WillReturnRows(rows)

		repo := NewUserRepository(db)
		user, err := repo.GetByPhone(context.Background(), "+84912345678")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, entity.RoleWardOfficial, user.Role)
		assert.Equal(t, "HN-HK-01", user.ManagementAreaCode.String)
		assert.False(t, user.Email.Valid)
	})
}

func TestUserGetByEmail_Missing(t *testing.T) {
	it(func() {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewUserRepository(db)
		user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}
