package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douglascorrea/todo-api/internal/store"
)

func TestUserCreate(t *testing.T) {
	svc := NewUserService(newMemUsers())

	user, err := svc.Create(context.Background(), "Jane Doe", "jane@example.com")

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Nil(t, user.MicrosoftUserID)
}

func TestUserCreateValidation(t *testing.T) {
	svc := NewUserService(newMemUsers())

	_, err := svc.Create(context.Background(), "Jo", "not-an-email")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "name", verr.Fields[0].Field)
	assert.Equal(t, "email", verr.Fields[1].Field)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	svc := NewUserService(newMemUsers())
	_, err := svc.Create(context.Background(), "Jane Doe", "jane@example.com")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "Other Jane", "jane@example.com")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Fields[0].Field)
}

func TestUserUpdateKeepsOwnEmail(t *testing.T) {
	users := newMemUsers()
	svc := NewUserService(users)
	created, err := svc.Create(context.Background(), "Jane Doe", "jane@example.com")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, "Jane Smith", "jane@example.com")

	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", updated.Name)
}

func TestUserUpdateRejectsTakenEmail(t *testing.T) {
	svc := NewUserService(newMemUsers())
	_, err := svc.Create(context.Background(), "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), "John Doe", "john@example.com")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), other.ID, "John Doe", "jane@example.com")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUserLinkMicrosoftAccount(t *testing.T) {
	users := newMemUsers()
	svc := NewUserService(users)
	created, err := svc.Create(context.Background(), "Jane Doe", "jane@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.LinkMicrosoftAccount(context.Background(), created.ID, "oid.tid"))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MicrosoftUserID)
	assert.Equal(t, "oid.tid", *got.MicrosoftUserID)
}

func TestUserLinkRequiresAccountID(t *testing.T) {
	svc := NewUserService(newMemUsers())

	err := svc.LinkMicrosoftAccount(context.Background(), uuid.New(), "")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUserGetMissing(t *testing.T) {
	svc := NewUserService(newMemUsers())

	_, err := svc.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNewPageClamps(t *testing.T) {
	p := NewPage(-5, 0, true)
	assert.Equal(t, 0, p.Skip)
	assert.Equal(t, defaultTake, p.Take)
	assert.True(t, p.Desc)

	p = NewPage(20, 10_000, false)
	assert.Equal(t, 20, p.Skip)
	assert.Equal(t, maxTake, p.Take)
}
