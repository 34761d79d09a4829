package services_test

import (
	"context"
	"testing"
	"time"

	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
	"tokoshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) (*services.UserService, *services.AuthService, *models.User) {
	t.Helper()
	users := repositories.NewMockUserRepository()
	auth := services.NewAuthService(users, testJWTSecret, time.Hour, true)
	user, err := auth.RegisterUser(context.Background(), services.RegisterInput{
		FirstName: "Test", LastName: "User", Email: "test@example.com", Password: "password123",
	})
	require.NoError(t, err)
	return services.NewUserService(users), auth, user
}

func TestUserService_List(t *testing.T) {
	svc, auth, user := newUserFixture(t)
	ctx := context.Background()
	_, err := auth.RegisterUser(ctx, services.RegisterInput{FirstName: "Other", Email: "other@example.com", Password: "password123"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.List(ctx, "TEST@example.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, user.ID, found[0].ID)

	none, err := svc.List(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserService_UpdateLeavesNilFieldsAlone(t *testing.T) {
	svc, _, user := newUserFixture(t)
	ctx := context.Background()

	empty := ""
	updated, err := svc.Update(ctx, user.ID, services.UserUpdate{
		LastName: &empty,
		Roles:    []models.Role{models.RoleCustomer, models.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, "Test", updated.FirstName)
	assert.Empty(t, updated.LastName)
	assert.Equal(t, "test@example.com", updated.Email)
	assert.Equal(t, int64(0), updated.TokenVersion)

	stored, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.Role{models.RoleCustomer, models.RoleAdmin}, stored.Roles)
}

func TestUserService_PasswordResetRevokesTokens(t *testing.T) {
	svc, auth, user := newUserFixture(t)
	ctx := context.Background()
	token, err := auth.LoginUser(ctx, "test@example.com", "password123")
	require.NoError(t, err)

	password := "reset-password"
	_, err = svc.Update(ctx, user.ID, services.UserUpdate{Password: &password})
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, token)
	assert.Error(t, err)
	_, err = auth.LoginUser(ctx, "test@example.com", password)
	assert.NoError(t, err)
}

func TestUserService_UpdateAndDeleteErrors(t *testing.T) {
	svc, auth, user := newUserFixture(t)
	ctx := context.Background()
	_, err := auth.RegisterUser(ctx, services.RegisterInput{FirstName: "Other", Email: "other@example.com", Password: "password123"})
	require.NoError(t, err)

	taken := "other@example.com"
	_, err = svc.Update(ctx, user.ID, services.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	_, err = svc.Update(ctx, "missing", services.UserUpdate{})
	assert.ErrorIs(t, err, services.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, user.ID))
	assert.ErrorIs(t, svc.Delete(ctx, user.ID), services.ErrNotFound)
	_, err = auth.LoginUser(ctx, "test@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}
