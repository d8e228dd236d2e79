package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPostHasContent(t *testing.T) {
	t.Parallel()

	assert.False(t, (&Post{}).HasContent())
	assert.False(t, (&Post{Text: "   "}).HasContent())
	assert.True(t, (&Post{Text: "hi"}).HasContent())
	assert.True(t, (&Post{Img: "https://cdn.example/a.png"}).HasContent())
}

func TestPostFindComment(t *testing.T) {
	t.Parallel()

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	post := &Post{Comments: []Comment{{ID: first, Text: "a"}, {ID: second, Text: "b"}}}

	c, ok := post.FindComment(second)
	assert.True(t, ok)
	assert.Equal(t, "b", c.Text)

	_, ok = post.FindComment(primitive.NewObjectID())
	assert.False(t, ok)
}

func TestPostLikedBy(t *testing.T) {
	t.Parallel()

	u := primitive.NewObjectID()
	post := &Post{Likes: []primitive.ObjectID{primitive.NewObjectID(), u}}
	assert.True(t, post.LikedBy(u))
	assert.False(t, post.LikedBy(primitive.NewObjectID()))
}
