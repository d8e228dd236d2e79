package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCommentLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.users.AddUser("alice")
	bob := env.users.AddUser("bob")

	_, body := env.do(t, http.MethodPost, "/api/posts/create", env.token(t, alice.ID),
		map[string]string{"text": "discuss"})
	var post models.Post
	require.NoError(t, json.Unmarshal(body, &post))

	resp, body := env.do(t, http.MethodPost, "/api/posts/comment/"+post.ID.Hex(), env.token(t, bob.ID),
		map[string]string{"text": "nice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &post))
	require.Len(t, post.Comments, 1)
	commentID := post.Comments[0].ID

	resp, _ = env.do(t, http.MethodPost, "/api/posts/comment/"+post.ID.Hex(), env.token(t, bob.ID),
		map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	updatePath := "/api/posts/comment/update/" + post.ID.Hex() + "/" + commentID.Hex()
	resp, body = env.do(t, http.MethodPost, updatePath, env.token(t, bob.ID),
		map[string]string{"text": "very nice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		UpdatedComment models.Comment `json:"updatedComment"`
	}
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "very nice", updated.UpdatedComment.Text)

	missing := "/api/posts/comment/update/" + post.ID.Hex() + "/" + primitive.NewObjectID().Hex()
	resp, body = env.do(t, http.MethodPost, missing, env.token(t, bob.ID), map[string]string{"text": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Comment")

	deletePath := "/api/posts/comment/delete/" + post.ID.Hex() + "/" + commentID.Hex()
	resp, _ = env.do(t, http.MethodPost, deletePath, env.token(t, bob.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, deletePath, env.token(t, bob.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = env.do(t, http.MethodGet, "/api/posts/"+post.ID.Hex(), "", nil)
	require.NoError(t, json.Unmarshal(body, &post))
	assert.Empty(t, post.Comments)
}
