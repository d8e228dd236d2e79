package repository

import (
	"context"
	"time"

	"chirp/internal/database"
	"chirp/internal/models"
	"chirp/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines persistence operations for the post aggregate.
// Likes and comments are mutated with per-field atomic operators so that
// concurrent writers never overwrite each other's array changes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetView(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, upd PostContentUpdate) (*models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)

	AddLike(ctx context.Context, postID, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) ([]primitive.ObjectID, error)

	AppendComment(ctx context.Context, postID primitive.ObjectID, comment *models.Comment) (*models.Post, error)
	RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) error
	UpdateCommentText(ctx context.Context, postID, commentID primitive.ObjectID, text string) (*models.Comment, error)

	EachLikeSet(ctx context.Context, fn func(postID primitive.ObjectID, likes []primitive.ObjectID) error) error
}

// PostContentUpdate lists the scalar fields an update may set. Nil fields
// are left untouched.
type PostContentUpdate struct {
	Text       *string
	Img        *string
	ImgAssetID *string
}

type filterKind int

const (
	filterAll filterKind = iota
	filterAuthors
	filterIDs
)

// PostFilter selects the posts returned by List.
type PostFilter struct {
	kind filterKind
	ids  []primitive.ObjectID
}

// AllPosts selects every post.
func AllPosts() PostFilter { return PostFilter{kind: filterAll} }

// PostsByAuthors selects posts written by any of the given users.
func PostsByAuthors(ids ...primitive.ObjectID) PostFilter {
	return PostFilter{kind: filterAuthors, ids: ids}
}

// PostsByIDs selects the given posts.
func PostsByIDs(ids ...primitive.ObjectID) PostFilter {
	return PostFilter{kind: filterIDs, ids: ids}
}

// Match returns the selector document. ok is false when the filter can match
// nothing, which lets callers skip the round trip.
func (f PostFilter) Match() (match bson.M, ok bool) {
	switch f.kind {
	case filterAuthors:
		return bson.M{"user": bson.M{"$in": f.ids}}, len(f.ids) > 0
	case filterIDs:
		return bson.M{"_id": bson.M{"$in": f.ids}}, len(f.ids) > 0
	default:
		return bson.M{}, true
	}
}

// Matches reports whether post is selected by the filter.
func (f PostFilter) Matches(post *models.Post) bool {
	switch f.kind {
	case filterAuthors:
		return models.ContainsID(f.ids, post.UserID)
	case filterIDs:
		return models.ContainsID(f.ids, post.ID)
	default:
		return true
	}
}

type postRepository struct {
	posts  *mongo.Collection
	logger *observability.RepoLogger
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *mongo.Database) PostRepository {
	return &postRepository{
		posts:  db.Collection(database.PostsCollection),
		logger: observability.NewRepoLogger(database.PostsCollection),
	}
}

func (r *postRepository) op(ctx context.Context, method string) (context.Context, func(error)) {
	return startOp(ctx, "mongodb", method, database.PostsCollection)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, done := r.op(ctx, "Create")
	defer func() { done(err) }()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	// arrays must exist for $addToSet / $push to apply
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}

	if _, err = r.posts.InsertOne(ctx, post); err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"post_id": post.ID.Hex(), "user_id": post.UserID.Hex()})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id primitive.ObjectID) (_ *models.Post, err error) {
	ctx, done := r.op(ctx, "GetByID")
	defer func() { done(err) }()

	var post models.Post
	if err = r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translate(err, "Post", id.Hex())
	}
	return &post, nil
}

func (r *postRepository) GetView(ctx context.Context, id primitive.ObjectID) (_ *models.Post, err error) {
	ctx, done := r.op(ctx, "GetView")
	defer func() { done(err) }()

	posts, err := r.aggregate(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, models.NewNotFoundError("Post", id.Hex())
	}
	return posts[0], nil
}

func (r *postRepository) UpdateContent(ctx context.Context, id primitive.ObjectID, upd PostContentUpdate) (_ *models.Post, err error) {
	ctx, done := r.op(ctx, "UpdateContent")
	defer func() { done(err) }()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Text != nil {
		set["text"] = *upd.Text
	}
	if upd.Img != nil {
		set["img"] = *upd.Img
	}
	if upd.ImgAssetID != nil {
		set["imgAssetId"] = *upd.ImgAssetID
	}

	var post models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err = r.posts.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&post); err != nil {
		return nil, translate(err, "Post", id.Hex())
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"post_id": id.Hex()})
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id primitive.ObjectID) (err error) {
	ctx, done := r.op(ctx, "Delete")
	defer func() { done(err) }()

	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Post", id.Hex())
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"post_id": id.Hex()})
	return nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) (_ []*models.Post, err error) {
	ctx, done := r.op(ctx, "List")
	defer func() { done(err) }()

	match, ok := filter.Match()
	if !ok {
		return []*models.Post{}, nil
	}
	return r.aggregate(ctx, match)
}

func (r *postRepository) AddLike(ctx context.Context, postID, userID primitive.ObjectID) (_ []primitive.ObjectID, err error) {
	ctx, done := r.op(ctx, "AddLike")
	defer func() { done(err) }()
	return r.updateLikes(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (_ []primitive.ObjectID, err error) {
	ctx, done := r.op(ctx, "RemoveLike")
	defer func() { done(err) }()
	return r.updateLikes(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *postRepository) updateLikes(ctx context.Context, postID primitive.ObjectID, update bson.M) ([]primitive.ObjectID, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var post models.Post
	if err := r.posts.FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, opts).Decode(&post); err != nil {
		return nil, translate(err, "Post", postID.Hex())
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	return post.Likes, nil
}

func (r *postRepository) AppendComment(ctx context.Context, postID primitive.ObjectID, comment *models.Comment) (_ *models.Post, err error) {
	ctx, done := r.op(ctx, "AppendComment")
	defer func() { done(err) }()

	now := time.Now().UTC()
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	comment.CreatedAt = now
	comment.UpdatedAt = now

	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": now},
	}
	var post models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err = r.posts.FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, opts).Decode(&post); err != nil {
		return nil, translate(err, "Post", postID.Hex())
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"post_id": postID.Hex(), "comment_id": comment.ID.Hex(), "op": "append_comment"})
	return &post, nil
}

func (r *postRepository) RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) (err error) {
	ctx, done := r.op(ctx, "RemoveComment")
	defer func() { done(err) }()

	res, err := r.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "comments._id": commentID},
		bson.M{
			"$pull": bson.M{"comments": bson.M{"_id": commentID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return r.missingComment(ctx, postID, commentID)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"post_id": postID.Hex(), "comment_id": commentID.Hex(), "op": "remove_comment"})
	return nil
}

func (r *postRepository) UpdateCommentText(ctx context.Context, postID, commentID primitive.ObjectID, text string) (_ *models.Comment, err error) {
	ctx, done := r.op(ctx, "UpdateCommentText")
	defer func() { done(err) }()

	now := time.Now().UTC()
	var post models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = r.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID, "comments._id": commentID},
		bson.M{"$set": bson.M{
			"comments.$.text":      text,
			"comments.$.updatedAt": now,
			"updatedAt":            now,
		}},
		opts,
	).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, r.missingComment(ctx, postID, commentID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	comment, ok := post.FindComment(commentID)
	if !ok {
		return nil, models.NewNotFoundError("Comment", commentID.Hex())
	}
	return comment, nil
}

// missingComment tells apart a missing post from a missing comment after a
// comment-scoped write matched nothing.
func (r *postRepository) missingComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	n, err := r.posts.CountDocuments(ctx, bson.M{"_id": postID}, options.Count().SetLimit(1))
	if err != nil {
		return models.NewInternalError(err)
	}
	if n == 0 {
		return models.NewNotFoundError("Post", postID.Hex())
	}
	return models.NewNotFoundError("Comment", commentID.Hex())
}

func (r *postRepository) EachLikeSet(ctx context.Context, fn func(primitive.ObjectID, []primitive.ObjectID) error) (err error) {
	ctx, done := r.op(ctx, "EachLikeSet")
	defer func() { done(err) }()

	cur, err := r.posts.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"likes": 1}))
	if err != nil {
		return models.NewInternalError(err)
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		var row struct {
			ID    primitive.ObjectID   `bson:"_id"`
			Likes []primitive.ObjectID `bson:"likes"`
		}
		if err := cur.Decode(&row); err != nil {
			return models.NewInternalError(err)
		}
		if err := fn(row.ID, row.Likes); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// postRow is a post decoded from the population pipeline.
type postRow struct {
	models.Post    `bson:",inline"`
	AuthorDocs     []models.UserSummary `bson:"authorDocs"`
	CommentAuthors []models.UserSummary `bson:"commentAuthors"`
}

var summaryProjection = bson.D{
	{Key: "username", Value: 1},
	{Key: "fullName", Value: 1},
	{Key: "profileImg", Value: 1},
}

// aggregate runs the population pipeline: matching posts, newest first,
// with the author and each commenter joined from users (password excluded).
func (r *postRepository) aggregate(ctx context.Context, match bson.M) ([]*models.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: database.UsersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "pipeline", Value: bson.A{bson.D{{Key: "$project", Value: summaryProjection}}}},
			{Key: "as", Value: "authorDocs"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: database.UsersCollection},
			{Key: "localField", Value: "comments.user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "pipeline", Value: bson.A{bson.D{{Key: "$project", Value: summaryProjection}}}},
			{Key: "as", Value: "commentAuthors"},
		}}},
	}

	cur, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.LogError(ctx, err, "aggregate")
		return nil, models.NewInternalError(err)
	}
	var rows []postRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, models.NewInternalError(err)
	}

	posts := make([]*models.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].populate())
	}
	r.logger.LogRead(ctx, map[string]interface{}{"count": len(posts)})
	return posts, nil
}

func (row *postRow) populate() *models.Post {
	post := row.Post
	if len(row.AuthorDocs) > 0 {
		author := row.AuthorDocs[0]
		post.Author = &author
	}
	byID := make(map[primitive.ObjectID]*models.UserSummary, len(row.CommentAuthors))
	for i := range row.CommentAuthors {
		byID[row.CommentAuthors[i].ID] = &row.CommentAuthors[i]
	}
	for i := range post.Comments {
		post.Comments[i].Author = byID[post.Comments[i].UserID]
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return &post
}
