package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Password: "secret", InitialBank: 10000, InitialCash: 5000})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.True(t, u.IsActive)
	assert.Equal(t, int64(10000), u.BankBalance)
	assert.NotEqual(t, "secret", u.HashedPassword)

	token, err := env.auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "token-alice", token)

	_, err = env.auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, RegisterInput{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_NegativeInitialBalance(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Register(context.Background(), RegisterInput{Username: "alice", Password: "secret", InitialCash: -1})
	assert.ErrorIs(t, err, ErrInvalidInitialBalance)
}

func TestInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	u, err = env.auth.SetActive(ctx, "alice", false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = env.auth.Login(ctx, "alice", "secret")
	assert.ErrorIs(t, err, ErrUserInactive)
	_, err = env.auth.ResolveUser(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserInactive)

	// 重复停用不报错
	_, err = env.auth.SetActive(ctx, "alice", false)
	require.NoError(t, err)

	_, err = env.auth.SetActive(ctx, "alice", true)
	require.NoError(t, err)
	_, err = env.auth.ResolveUser(ctx, "alice")
	assert.NoError(t, err)

	_, err = env.auth.SetActive(ctx, "ghost", false)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", 0, 0)

	u, err := env.auth.ResolveUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = env.auth.ResolveUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
