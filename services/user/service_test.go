package user

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unplan-backend/pkg/config"
	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/middleware"
	"unplan-backend/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &User{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "unplan-test"
	cfg.JWT.Expiry = time.Hour

	return NewService(ServiceParams{DB: db, Node: node, Config: cfg})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)

	u, err := svc.Register(context.Background(), RegisterInput{
		Email:    "host@example.com",
		Password: "correct-horse",
		Name:     "Ana",
		Role:     RoleHost,
	})
	require.NoError(t, err)
	require.Equal(t, RoleHost, u.Role)
	require.NotEqual(t, "correct-horse", u.PasswordHash)

	res, err := svc.Login(context.Background(), LoginInput{Email: "host@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := middleware.ParseToken(svc.config, res.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, "HOST", claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "password1", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "password2", Name: "B"})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Status())
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "password1", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "nope-nope"})
	require.Error(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@b.c", Password: "password1"})
	require.Error(t, err)
}
