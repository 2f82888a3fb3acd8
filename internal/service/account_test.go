package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
)

type accountServices struct {
	auth    *AuthService
	admin   *AdminService
	users   *UserService
	profile *ProfileService
}

func newAccountServices(env *testEnv) accountServices {
	auth := NewAuthService(env.users, env.profiles, env.hub, "test-secret", false, time.Hour, "America/Sao_Paulo")
	return accountServices{
		auth:    auth,
		admin:   NewAdminService(env.users, env.profiles, auth, env.email, "America/Sao_Paulo"),
		users:   NewUserService(env.users, env.profiles, nil, env.email, env.hub),
		profile: NewProfileService(env.profiles, env.hub, time.UTC),
	}
}

func TestAdminCreateUserRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	svc := newAccountServices(env)
	_, regular := env.createUser(t, "regular@example.com", model.RoleUser)

	input := CreateUserInput{FullName: "New Person", Email: "new@example.com", Password: "temp123"}

	_, _, err := svc.admin.CreateUser(context.Background(), regular, input)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.admin.CreateUser(context.Background(), nil, input)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.users.ByEmail("new@example.com")
	assert.Error(t, err)
}

func TestAdminCreateUser(t *testing.T) {
	env := newTestEnv(t)
	svc := newAccountServices(env)
	_, admin := env.createUser(t, "admin@example.com", model.RoleAdmin)

	user, profile, err := svc.admin.CreateUser(context.Background(), admin, CreateUserInput{
		FullName: " Maria Silva ",
		Email:    "Maria@Example.com",
		Phone:    "+55 11 99999-0000",
		Password: "temp123",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, "Maria Silva", profile.FullName)
	assert.Equal(t, model.RoleUser, profile.Role)
	assert.True(t, profile.MustChangePassword)
	assert.Equal(t, "America/Sao_Paulo", profile.Timezone)

	_, err = svc.auth.Login("maria@example.com", "temp123")
	require.NoError(t, err)

	_, _, err = svc.admin.CreateUser(context.Background(), admin, CreateUserInput{
		FullName: "Maria Again", Email: "maria@example.com", Password: "temp123",
	})
	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, _, err = svc.admin.CreateUser(context.Background(), admin, CreateUserInput{
		FullName: "Root", Email: "root@example.com", Password: "temp123", Role: "owner",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, _, err = svc.admin.CreateUser(context.Background(), admin, CreateUserInput{
		FullName: "Shorty", Email: "short@example.com", Password: "123",
	})
	assert.True(t, IsValidation(err))
}

func TestBootstrapAdmin(t *testing.T) {
	env := newTestEnv(t)
	svc := newAccountServices(env)

	user, err := svc.admin.Bootstrap(CreateUserInput{FullName: "First Admin", Email: "first@example.com", Password: "secret1"})
	require.NoError(t, err)

	profile, err := env.profiles.ByUserID(user.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin())
	assert.False(t, profile.MustChangePassword)
}

func TestLoginAndSession(t *testing.T) {
	env := newTestEnv(t)
	svc := newAccountServices(env)
	_, admin := env.createUser(t, "admin@example.com", model.RoleAdmin)

	user, _, err := svc.admin.CreateUser(context.Background(), admin, CreateUserInput{
		FullName: "Login Test", Email: "login@example.com", Password: "right-password",
	})
	require.NoError(t, err)

	_, err = svc.auth.Login("login@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.auth.Login("nobody@example.com", "right-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// accounts created through Google have no password
	_, err = svc.auth.Login("admin@example.com", "anything")
	assert.ErrorIs(t, err, ErrPasswordlessLogin)

	token, expiry, err := svc.auth.GenerateJWT(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)

	claims, err := svc.auth.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	other := NewAuthService(env.users, env.profiles, env.hub, "other-secret", false, time.Hour, "UTC")
	_, err = other.VerifyJWT(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestForcedPasswordChange(t *testing.T) {
	env := newTestEnv(t)
	svc := newAccountServices(env)
	_, admin := env.createUser(t, "admin@example.com", model.RoleAdmin)

	user, profile, err := svc.admin.CreateUser(context.Background(), admin, CreateUserInput{
		FullName: "Forced Change", Email: "forced@example.com", Password: "temp123",
	})
	require.NoError(t, err)
	changes := env.recordChanges(t, user.ID)

	err = svc.users.ChangePassword(context.Background(), user.ID, PasswordChangeInput{NewPassword: "newpass1", Confirmation: "different"})
	assert.True(t, IsValidation(err))

	err = svc.users.ChangePassword(context.Background(), user.ID, PasswordChangeInput{NewPassword: "abc", Confirmation: "abc"})
	assert.True(t, IsValidation(err))

	// no current password is needed while the flag is set
	err = svc.users.ChangePassword(context.Background(), user.ID, PasswordChangeInput{NewPassword: "newpass1", Confirmation: "newpass1"})
	require.NoError(t, err)

	updated, err := env.profiles.ByUserID(user.ID)
	require.NoError(t, err)
	assert.False(t, updated.MustChangePassword)
	require.Len(t, *changes, 1)
	assert.Equal(t, realtime.TableProfiles, (*changes)[0].Table)
	assert.Equal(t, profile.ID, (*changes)[0].RecordID)

	_, err = svc.auth.Login("forced@example.com", "newpass1")
	require.NoError(t, err)

	// afterwards the current password is required
	err = svc.users.ChangePassword(context.Background(), user.ID, PasswordChangeInput{CurrentPassword: "wrong", NewPassword: "another1", Confirmation: "another1"})
	assert.ErrorIs(t, err, ErrInvalidCurrentPassword)

	err = svc.users.ChangePassword(context.Background(), user.ID, PasswordChangeInput{CurrentPassword: "newpass1", NewPassword: "another1", Confirmation: "another1"})
	require.NoError(t, err)
}

func TestProfileUpdate(t *testing.T) {
	env := newTestEnv(t)
	svc := newAccountServices(env)
	user, _ := env.createUser(t, "profile@example.com", model.RoleUser)

	name := "  Ana Souza "
	tz := "Asia/Tokyo"
	profile, err := svc.profile.Update(user.ID, ProfileInput{FullName: &name, Timezone: &tz})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", profile.FullName)
	assert.Equal(t, "Asia/Tokyo", svc.profile.Location(profile).String())

	short := "A"
	_, err = svc.profile.Update(user.ID, ProfileInput{FullName: &short})
	assert.True(t, IsValidation(err))

	badTZ := "Mars/Olympus"
	_, err = svc.profile.Update(user.ID, ProfileInput{Timezone: &badTZ})
	assert.True(t, IsValidation(err))

	badPhone := "call me"
	_, err = svc.profile.Update(user.ID, ProfileInput{Phone: &badPhone})
	assert.True(t, IsValidation(err))
}

func TestAuthenticateOAuthCreatesUserOnce(t *testing.T) {
	env := newTestEnv(t)
	svc := newAccountServices(env)

	first, err := svc.auth.AuthenticateOAuth("Google.User@example.com", "Google User", "google")
	require.NoError(t, err)
	assert.False(t, first.HasPassword())

	profile, err := env.profiles.ByUserID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Google User", profile.FullName)
	assert.Equal(t, model.RoleUser, profile.Role)

	second, err := svc.auth.AuthenticateOAuth("google.user@example.com", "Google User", "google")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
