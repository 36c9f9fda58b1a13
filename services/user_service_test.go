package services_test

import (
	"context"
	"testing"

	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProfile(t *testing.T) {
	b := newBakery(t)
	images, _ := services.NewMockImageService()
	users := services.NewUserService(b.db, images, b.log)
	ctx := context.Background()

	profile, err := users.GetProfile(ctx, as(b.customer))
	require.NoError(t, err)
	assert.Equal(t, "carla", profile.Username)
	assert.Nil(t, profile.ProfileImageURL)

	updated, err := users.UpdateProfile(ctx, as(b.customer), services.UpdateProfileInput{FullName: strPtr(" Carla C. ")})
	require.NoError(t, err)
	assert.Equal(t, "Carla C.", updated.FullName)
	assert.Equal(t, "carla", updated.Username)

	_, err = users.UpdateProfile(ctx, as(b.customer), services.UpdateProfileInput{Username: strPtr("maria")})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	_, err = users.UpdateProfile(ctx, as(b.customer), services.UpdateProfileInput{FullName: strPtr("")})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = users.FindUser(ctx, 9999)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestSetProfileImage(t *testing.T) {
	b := newBakery(t)
	images, store := services.NewMockImageService()
	users := services.NewUserService(b.db, images, b.log)
	ctx := context.Background()

	user, err := users.SetProfileImage(ctx, as(b.customer), testutil.ImageFileHeader(t, "me.png", testutil.PNGContent))
	require.NoError(t, err)
	require.NotNil(t, user.ProfileImageURL)
	assert.Contains(t, *user.ProfileImageURL, "profiles/mock_me.png")

	_, err = users.SetProfileImage(ctx, as(b.customer), testutil.ImageFileHeader(t, "me.png", testutil.PNGContent))
	require.NoError(t, err)
	assert.True(t, store.FileExists("profiles/mock_me.png"), "re-uploading under the same key keeps the image")

	_, err = users.SetProfileImage(ctx, as(b.customer), testutil.ImageFileHeader(t, "new.png", testutil.PNGContent))
	require.NoError(t, err)
	assert.False(t, store.FileExists("profiles/mock_me.png"))

	profile, err := users.GetProfile(ctx, as(b.customer))
	require.NoError(t, err)
	require.NotNil(t, profile.ProfileImageURL)
	assert.Contains(t, *profile.ProfileImageURL, "profiles/mock_new.png")
}
