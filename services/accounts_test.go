package services

import (
	"context"
	"testing"
	"time"

	"catalog/apperr"
	"catalog/auth"
	"catalog/db/dbtest"
	"catalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccounts(t *testing.T) *AccountService {
	return NewAccountService(dbtest.New(t), auth.NewTokenManager("secret", "test", time.Hour))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newAccounts(t)
	ctx := context.Background()

	acc, err := s.Register(ctx, models.RoleAdmin, RegisterInput{Name: "Root", Email: " Root@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", acc.Email)
	assert.Equal(t, models.RoleAdmin, acc.Role)
	assert.NotEqual(t, "secret1", acc.Password)

	sess, err := s.Login(ctx, models.RoleAdmin, LoginInput{Email: "root@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, err = s.Login(ctx, models.RoleAdmin, LoginInput{Email: "root@example.com", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	// admins and users live in separate tables
	_, err = s.Login(ctx, models.RoleUser, LoginInput{Email: "root@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newAccounts(t)
	ctx := context.Background()
	in := RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"}

	_, err := s.Register(ctx, models.RoleUser, in)
	require.NoError(t, err)
	_, err = s.Register(ctx, models.RoleUser, in)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRegisterValidation(t *testing.T) {
	s := newAccounts(t)
	_, err := s.Register(context.Background(), models.RoleUser, RegisterInput{Name: "Ann", Email: "not-an-email", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.Register(context.Background(), models.RoleUser, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "123"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestChangePassword(t *testing.T) {
	s := newAccounts(t)
	ctx := context.Background()
	_, err := s.Register(ctx, models.RoleUser, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)
	sess, err := s.Login(ctx, models.RoleUser, LoginInput{Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := s.tokens.Parse(sess.Token)
	require.NoError(t, err)

	err = s.ChangePassword(ctx, claims, PasswordChange{CurrentPassword: "nope", NewPassword: "secret2"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, s.ChangePassword(ctx, claims, PasswordChange{CurrentPassword: "secret1", NewPassword: "secret2"}))
	_, err = s.Login(ctx, models.RoleUser, LoginInput{Email: "ann@example.com", Password: "secret2"})
	assert.NoError(t, err)
}

func TestAdminExists(t *testing.T) {
	s := newAccounts(t)
	ctx := context.Background()

	exists, err := s.AdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Register(ctx, models.RoleAdmin, RegisterInput{Name: "Root", Email: "root@example.com", Password: "secret1"})
	require.NoError(t, err)
	exists, err = s.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}
