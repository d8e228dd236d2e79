package repository

import (
	"context"
	"strings"

	"chirp/internal/database"
	"chirp/internal/models"
	"chirp/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the user operations this service needs. The only
// mutated field is likedPosts, the mirror of post like sets.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error

	AddLikedPost(ctx context.Context, userID, postID primitive.ObjectID) error
	RemoveLikedPost(ctx context.Context, userID, postID primitive.ObjectID) error
	EachLikedPosts(ctx context.Context, fn func(userID primitive.ObjectID, liked []primitive.ObjectID) error) error
}

type userRepository struct {
	users  *mongo.Collection
	logger *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		users:  db.Collection(database.UsersCollection),
		logger: observability.NewRepoLogger(database.UsersCollection),
	}
}

var withoutPassword = options.FindOne().SetProjection(bson.M{"password": 0})

func (r *userRepository) op(ctx context.Context, method string) (context.Context, func(error)) {
	return startOp(ctx, "mongodb", method, database.UsersCollection)
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (_ *models.User, err error) {
	ctx, done := r.op(ctx, "GetByID")
	defer func() { done(err) }()

	var user models.User
	if err = r.users.FindOne(ctx, bson.M{"_id": id}, withoutPassword).Decode(&user); err != nil {
		return nil, translate(err, "User", id.Hex())
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (_ *models.User, err error) {
	ctx, done := r.op(ctx, "GetByUsername")
	defer func() { done(err) }()

	username = strings.TrimSpace(username)
	var user models.User
	if err = r.users.FindOne(ctx, bson.M{"username": username}, withoutPassword).Decode(&user); err != nil {
		return nil, translate(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := r.op(ctx, "Create")
	defer func() { done(err) }()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.LikedPosts == nil {
		user.LikedPosts = []primitive.ObjectID{}
	}
	if _, err = r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewValidationError("username already taken")
		}
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"user_id": user.ID.Hex()})
	return nil
}

func (r *userRepository) AddLikedPost(ctx context.Context, userID, postID primitive.ObjectID) (err error) {
	ctx, done := r.op(ctx, "AddLikedPost")
	defer func() { done(err) }()
	return r.mirror(ctx, userID, bson.M{"$addToSet": bson.M{"likedPosts": postID}})
}

func (r *userRepository) RemoveLikedPost(ctx context.Context, userID, postID primitive.ObjectID) (err error) {
	ctx, done := r.op(ctx, "RemoveLikedPost")
	defer func() { done(err) }()
	return r.mirror(ctx, userID, bson.M{"$pull": bson.M{"likedPosts": postID}})
}

func (r *userRepository) mirror(ctx context.Context, userID primitive.ObjectID, update bson.M) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		r.logger.LogError(ctx, err, "mirror_liked_posts")
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User", userID.Hex())
	}
	return nil
}

func (r *userRepository) EachLikedPosts(ctx context.Context, fn func(primitive.ObjectID, []primitive.ObjectID) error) (err error) {
	ctx, done := r.op(ctx, "EachLikedPosts")
	defer func() { done(err) }()

	cur, err := r.users.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"likedPosts": 1}))
	if err != nil {
		return models.NewInternalError(err)
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		var row struct {
			ID         primitive.ObjectID   `bson:"_id"`
			LikedPosts []primitive.ObjectID `bson:"likedPosts"`
		}
		if err := cur.Decode(&row); err != nil {
			return models.NewInternalError(err)
		}
		if err := fn(row.ID, row.LikedPosts); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
