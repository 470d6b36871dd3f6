package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenet/db"
)

func setupUserDB(t *testing.T) {
	t.Helper()
	require.NoError(t, db.ConnectTestDB())
}

func uniqueUsername(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func TestProvisionDerivesHandleAndDID(t *testing.T) {
	setupUserDB(t)
	ctx := context.Background()
	us := NewUserService()

	username := uniqueUsername("alice")
	user, err := us.Provision(ctx, "  "+username+"  ", "Alice", "s3cret-password")
	require.NoError(t, err)

	assert.Equal(t, username, user.Username)
	assert.Equal(t, username+".tenetapp.space", user.Handle)
	assert.Contains(t, user.DID, "did:plc:"+user.Handle+":")
	assert.Equal(t, "provisioned", string(user.ProvisionStatus))
	assert.NotEqual(t, "s3cret-password", user.Password, "password must be stored hashed")
}

func TestProvisionRejectsDuplicateUsername(t *testing.T) {
	setupUserDB(t)
	ctx := context.Background()
	us := NewUserService()

	username := uniqueUsername("bob")
	_, err := us.Provision(ctx, username, "Bob", "password-one")
	require.NoError(t, err)

	// Case-insensitive: usernames are lowered before the uniqueness check.
	_, err = us.Provision(ctx, " "+username+" ", "Bob Again", "password-two")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestLoginAndTokenResolution(t *testing.T) {
	setupUserDB(t)
	ctx := context.Background()
	us := NewUserService()

	username := uniqueUsername("carol")
	created, err := us.Provision(ctx, username, "Carol", "carol-password")
	require.NoError(t, err)

	token, user, err := us.Login(ctx, username, "carol-password")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, created.ID, user.ID)

	resolved, err := us.UserByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	// A second login rotates the token and invalidates the old one.
	token2, _, err := us.Login(ctx, username, "carol-password")
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	_, err = us.UserByToken(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	setupUserDB(t)
	ctx := context.Background()
	us := NewUserService()

	username := uniqueUsername("dave")
	_, err := us.Provision(ctx, username, "Dave", "dave-password")
	require.NoError(t, err)

	_, _, err = us.Login(ctx, username, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = us.Login(ctx, "nobody-here", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutDropsToken(t *testing.T) {
	setupUserDB(t)
	ctx := context.Background()
	us := NewUserService()

	username := uniqueUsername("erin")
	user, err := us.Provision(ctx, username, "Erin", "erin-password")
	require.NoError(t, err)
	token, _, err := us.Login(ctx, username, "erin-password")
	require.NoError(t, err)

	require.NoError(t, us.Logout(ctx, user.ID))
	_, err = us.UserByToken(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
