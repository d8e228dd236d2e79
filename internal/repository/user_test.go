package repository

import (
	"context"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserRepository_LikedPostsMirror(t *testing.T) {
	db := requireMongo(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	u := seedUser(t, users, "liker")
	postID := primitive.NewObjectID()

	require.NoError(t, users.AddLikedPost(ctx, u.ID, postID))
	require.NoError(t, users.AddLikedPost(ctx, u.ID, postID))

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{postID}, got.LikedPosts)
	assert.Empty(t, got.Password)

	require.NoError(t, users.RemoveLikedPost(ctx, u.ID, postID))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LikedPosts)

	err = users.AddLikedPost(ctx, primitive.NewObjectID(), postID)
	assert.True(t, models.IsNotFound(err, "User"))
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db := requireMongo(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	u := seedUser(t, users, "named")
	got, err := users.GetByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.GetByUsername(ctx, "nobody-"+primitive.NewObjectID().Hex())
	assert.True(t, models.IsNotFound(err, "User"))

	dup := &models.User{Username: u.Username}
	assert.True(t, models.HasCode(users.Create(ctx, dup), models.CodeValidation))
}
