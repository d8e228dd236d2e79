package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chirp/internal/models"
	"chirp/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectStore is a recording storage.ObjectStore. Uploaded assets get
// sequential ids and URLs under https://img.test/.
type ObjectStore struct {
	mu         sync.Mutex
	Calls      []string
	UploadErr  error
	DestroyErr error
	next       int
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

const objectStoreBase = "https://img.test/"

func (s *ObjectStore) Upload(_ context.Context, src string) (storage.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "upload:"+src)
	if s.UploadErr != nil {
		return storage.UploadResult{}, s.UploadErr
	}
	s.next++
	id := fmt.Sprintf("asset%d", s.next)
	return storage.UploadResult{URL: objectStoreBase + id + ".jpg", AssetID: id}, nil
}

func (s *ObjectStore) Destroy(_ context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "destroy:"+assetID)
	return s.DestroyErr
}

func (s *ObjectStore) Owns(url string) bool {
	return strings.HasPrefix(url, objectStoreBase)
}

func (s *ObjectStore) Name() string { return "test" }

// CallLog returns a copy of the recorded calls.
func (s *ObjectStore) CallLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.Calls...)
}

// Emitted is one recorded notification.
type Emitted struct {
	From, To primitive.ObjectID
	Type     models.NotificationType
}

// Emitter records notifications in memory.
type Emitter struct {
	mu     sync.Mutex
	events []Emitted
	Err    error
}

func (e *Emitter) Emit(_ context.Context, from, to primitive.ObjectID, kind models.NotificationType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.events = append(e.events, Emitted{From: from, To: to, Type: kind})
	return nil
}

// Events returns a copy of the recorded notifications.
func (e *Emitter) Events() []Emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Emitted{}, e.events...)
}
