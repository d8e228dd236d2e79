// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"chirp/internal/models"
	"chirp/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Failures lets a test make a named store method fail. Keys are method
// names such as "AddLikedPost".
type Failures struct {
	mu   sync.Mutex
	errs map[string]error
}

// FailOn makes every later call to method return err. A nil err clears it.
func (f *Failures) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

func (f *Failures) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[method]
}

// PostStore is an in-memory repository.PostRepository. Array mutations hold
// the store lock for their whole duration, matching the per-document
// atomicity of the Mongo operators they stand in for.
type PostStore struct {
	Failures

	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
	users *UserStore
	clock time.Time
}

var _ repository.PostRepository = (*PostStore)(nil)

// NewPostStore returns an empty store. users, when non-nil, is used to
// populate author summaries on GetView and List.
func NewPostStore(users *UserStore) *PostStore {
	return &PostStore{
		posts: make(map[primitive.ObjectID]*models.Post),
		users: users,
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so recency order is stable.
func (s *PostStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func clonePost(p *models.Post) *models.Post {
	out := *p
	out.Likes = append([]primitive.ObjectID{}, p.Likes...)
	out.Comments = append([]models.Comment{}, p.Comments...)
	return &out
}

// Len returns the number of stored posts.
func (s *PostStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// Put stores post as-is, bypassing Create. Useful for legacy documents.
func (s *PostStore) Put(post *models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.tick()
	}
	s.posts[post.ID] = clonePost(post)
}

func (s *PostStore) Create(_ context.Context, post *models.Post) error {
	if err := s.check("Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	now := s.tick()
	post.CreatedAt, post.UpdatedAt = now, now
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	s.posts[post.ID] = clonePost(post)
	return nil
}

func (s *PostStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	if err := s.check("GetByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id.Hex())
	}
	return clonePost(p), nil
}

func (s *PostStore) GetView(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populate(p)
	return p, nil
}

func (s *PostStore) UpdateContent(_ context.Context, id primitive.ObjectID, upd repository.PostContentUpdate) (*models.Post, error) {
	if err := s.check("UpdateContent"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id.Hex())
	}
	if upd.Text != nil {
		p.Text = *upd.Text
	}
	if upd.Img != nil {
		p.Img = *upd.Img
	}
	if upd.ImgAssetID != nil {
		p.ImgAssetID = *upd.ImgAssetID
	}
	p.UpdatedAt = s.tick()
	return clonePost(p), nil
}

func (s *PostStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if err := s.check("Delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return models.NewNotFoundError("Post", id.Hex())
	}
	delete(s.posts, id)
	return nil
}

func (s *PostStore) List(_ context.Context, filter repository.PostFilter) ([]*models.Post, error) {
	if err := s.check("List"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if filter.Matches(p) {
			out = append(out, clonePost(p))
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	for _, p := range out {
		s.populate(p)
	}
	return out, nil
}

func (s *PostStore) populate(p *models.Post) {
	if s.users == nil {
		return
	}
	p.Author = s.users.summary(p.UserID)
	for i := range p.Comments {
		p.Comments[i].Author = s.users.summary(p.Comments[i].UserID)
	}
}

func (s *PostStore) AddLike(_ context.Context, postID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if err := s.check("AddLike"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, models.NewNotFoundError("Post", postID.Hex())
	}
	if !models.ContainsID(p.Likes, userID) {
		p.Likes = append(p.Likes, userID)
	}
	return append([]primitive.ObjectID{}, p.Likes...), nil
}

func (s *PostStore) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if err := s.check("RemoveLike"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, models.NewNotFoundError("Post", postID.Hex())
	}
	p.Likes = without(p.Likes, userID)
	return append([]primitive.ObjectID{}, p.Likes...), nil
}

func (s *PostStore) AppendComment(_ context.Context, postID primitive.ObjectID, comment *models.Comment) (*models.Post, error) {
	if err := s.check("AppendComment"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, models.NewNotFoundError("Post", postID.Hex())
	}
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	now := s.tick()
	comment.CreatedAt, comment.UpdatedAt = now, now
	p.Comments = append(p.Comments, *comment)
	p.UpdatedAt = now
	return clonePost(p), nil
}

func (s *PostStore) RemoveComment(_ context.Context, postID, commentID primitive.ObjectID) error {
	if err := s.check("RemoveComment"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return models.NewNotFoundError("Post", postID.Hex())
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
			p.UpdatedAt = s.tick()
			return nil
		}
	}
	return models.NewNotFoundError("Comment", commentID.Hex())
}

func (s *PostStore) UpdateCommentText(_ context.Context, postID, commentID primitive.ObjectID, text string) (*models.Comment, error) {
	if err := s.check("UpdateCommentText"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, models.NewNotFoundError("Post", postID.Hex())
	}
	c, ok := p.FindComment(commentID)
	if !ok {
		return nil, models.NewNotFoundError("Comment", commentID.Hex())
	}
	c.Text = text
	c.UpdatedAt = s.tick()
	out := *c
	return &out, nil
}

func (s *PostStore) EachLikeSet(_ context.Context, fn func(primitive.ObjectID, []primitive.ObjectID) error) error {
	if err := s.check("EachLikeSet"); err != nil {
		return err
	}
	s.mu.Lock()
	snapshot := make(map[primitive.ObjectID][]primitive.ObjectID, len(s.posts))
	for id, p := range s.posts {
		snapshot[id] = append([]primitive.ObjectID{}, p.Likes...)
	}
	s.mu.Unlock()

	for id, likes := range snapshot {
		if err := fn(id, likes); err != nil {
			return err
		}
	}
	return nil
}

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	Failures

	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

var _ repository.UserRepository = (*UserStore)(nil)

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	out := *u
	out.Following = append([]primitive.ObjectID{}, u.Following...)
	out.LikedPosts = append([]primitive.ObjectID{}, u.LikedPosts...)
	out.Password = ""
	return &out
}

// AddUser creates a user with the given username and returns it.
func (s *UserStore) AddUser(username string, following ...primitive.ObjectID) *models.User {
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		FullName:  username,
		Following: following,
	}
	_ = s.Create(context.Background(), u)
	return u
}

// SetLikedPosts overwrites a user's mirror, for seeding drift in tests.
func (s *UserStore) SetLikedPosts(userID primitive.ObjectID, liked ...primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.LikedPosts = append([]primitive.ObjectID{}, liked...)
	}
}

func (s *UserStore) summary(id primitive.ObjectID) *models.UserSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Summary()
	}
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if err := s.check("GetByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id.Hex())
	}
	return cloneUser(u), nil
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if err := s.check("GetByUsername"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, models.NewNotFoundError("User", username)
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	if err := s.check("Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return models.NewValidationError("username already taken")
		}
	}
	stored := *user
	stored.Following = append([]primitive.ObjectID{}, user.Following...)
	stored.LikedPosts = append([]primitive.ObjectID{}, user.LikedPosts...)
	s.users[user.ID] = &stored
	return nil
}

func (s *UserStore) AddLikedPost(_ context.Context, userID, postID primitive.ObjectID) error {
	if err := s.check("AddLikedPost"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.NewNotFoundError("User", userID.Hex())
	}
	if !models.ContainsID(u.LikedPosts, postID) {
		u.LikedPosts = append(u.LikedPosts, postID)
	}
	return nil
}

func (s *UserStore) RemoveLikedPost(_ context.Context, userID, postID primitive.ObjectID) error {
	if err := s.check("RemoveLikedPost"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.NewNotFoundError("User", userID.Hex())
	}
	u.LikedPosts = without(u.LikedPosts, postID)
	return nil
}

func (s *UserStore) EachLikedPosts(_ context.Context, fn func(primitive.ObjectID, []primitive.ObjectID) error) error {
	if err := s.check("EachLikedPosts"); err != nil {
		return err
	}
	s.mu.Lock()
	snapshot := make(map[primitive.ObjectID][]primitive.ObjectID, len(s.users))
	for id, u := range s.users {
		snapshot[id] = append([]primitive.ObjectID{}, u.LikedPosts...)
	}
	s.mu.Unlock()

	for id, liked := range snapshot {
		if err := fn(id, liked); err != nil {
			return err
		}
	}
	return nil
}

func without(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
