package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swfilms/swfilms-go/internal/crypto"
	"github.com/swfilms/swfilms-go/internal/model"
	"github.com/swfilms/swfilms-go/internal/repository/memory"
)

var fastHasher = crypto.NewPasswordHasher(crypto.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

func TestSeedAdminCreatesAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore()
	var out bytes.Buffer

	require.NoError(t, seedAdmin(ctx, store, fastHasher, "", &out))

	admin, err := store.GetByUsername(ctx, adminUsername)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Equal(t, adminName, admin.Name)

	printed := bytes.TrimSpace(bytes.TrimPrefix(out.Bytes(), []byte("generated admin password: ")))
	require.NotEmpty(t, printed)
	ok, err := fastHasher.Verify(string(printed), admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeedAdminConfiguredPasswordIsNotPrinted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore()
	var out bytes.Buffer

	require.NoError(t, seedAdmin(ctx, store, fastHasher, "correct-horse", &out))
	assert.Empty(t, out.String())

	admin, err := store.GetByUsername(ctx, adminUsername)
	require.NoError(t, err)
	ok, err := fastHasher.Verify("correct-horse", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeedAdminLeavesExistingAdminAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore()
	require.NoError(t, seedAdmin(ctx, store, fastHasher, "first-password", &bytes.Buffer{}))
	before, err := store.GetByUsername(ctx, adminUsername)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, seedAdmin(ctx, store, fastHasher, "", &out))

	after, err := store.GetByUsername(ctx, adminUsername)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Empty(t, out.String())
	assert.Equal(t, 1, store.Len())
}

func TestSeedAdminRefusesRegularAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore()

	hash, err := fastHasher.Hash("registered")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, &model.User{
		Name: "Someone", Username: adminUsername, PasswordHash: hash, Role: model.RoleRegular,
	}))

	var out bytes.Buffer
	err = seedAdmin(ctx, store, fastHasher, "", &out)
	assert.ErrorIs(t, err, errNotAdmin)
	assert.Empty(t, out.String())

	stored, err := store.GetByUsername(ctx, adminUsername)
	require.NoError(t, err)
	assert.Equal(t, model.RoleRegular, stored.Role)
	assert.Equal(t, hash, stored.PasswordHash)
}

type failingStore struct{}

func (failingStore) CreateIfAbsent(context.Context, *model.User) (bool, error) {
	return false, errors.New("connection refused")
}

func TestSeedAdminStoreFailure(t *testing.T) {
	var out bytes.Buffer
	err := seedAdmin(context.Background(), failingStore{}, fastHasher, "", &out)
	assert.ErrorContains(t, err, "connection refused")
	assert.Empty(t, out.String())
}
