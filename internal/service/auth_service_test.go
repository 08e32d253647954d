package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/repository"
	"github.com/liqtags/relaychat/pkg/jwt"
)

func newAuthService(t *testing.T) (AuthService, *jwt.Manager) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.UserModel{}))

	tokens, err := jwt.NewManager("test-secret", 15*time.Minute, 24*time.Hour, "relaychat-test")
	require.NoError(t, err)

	return NewAuthService(repository.NewGormUserRepository(db), tokens), tokens
}

func register(t *testing.T, svc AuthService) *domain.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return resp
}

func TestAuthService_Register(t *testing.T) {
	svc, tokens := newAuthService(t)

	resp := register(t, svc)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEmpty(t, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := tokens.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Username: "bob",
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Username: "alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Username: "alice",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginUnknownUser(t *testing.T) {
	svc, _ := newAuthService(t)

	// Unknown users and wrong passwords are indistinguishable.
	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Username: "nobody",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, tokens := newAuthService(t)
	resp := register(t, svc)

	pair, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)

	claims, err := tokens.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestAuthService_RefreshWithAccessToken(t *testing.T) {
	svc, _ := newAuthService(t)
	resp := register(t, svc)

	_, err := svc.Refresh(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	svc, tokens := newAuthService(t)
	resp := register(t, svc)

	require.NoError(t, svc.Logout(context.Background(), resp.User.ID))

	_, err := tokens.ValidateAccessToken(resp.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrRevokedToken)
}

func TestAuthService_Me(t *testing.T) {
	svc, _ := newAuthService(t)
	resp := register(t, svc)

	me, err := svc.Me(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	_, err = svc.Me(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
