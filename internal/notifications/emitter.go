package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/observability"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Emitter records a notification from one user to another.
type Emitter interface {
	Emit(ctx context.Context, from, to primitive.ObjectID, kind models.NotificationType) error
}

// Store persists notification records.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Event is the payload published on a user's channel.
type Event struct {
	Type string               `json:"type"`
	Data *models.Notification `json:"data"`
}

// Dispatcher persists a notification and then publishes it to the
// recipient's channel. Only the persist step can fail the call; a publish
// failure is logged and counted.
type Dispatcher struct {
	store    Store
	notifier *Notifier
}

// NewDispatcher returns an Emitter backed by store and notifier. notifier may
// be nil.
func NewDispatcher(store Store, notifier *Notifier) *Dispatcher {
	return &Dispatcher{store: store, notifier: notifier}
}

func (d *Dispatcher) Emit(ctx context.Context, from, to primitive.ObjectID, kind models.NotificationType) error {
	n := &models.Notification{
		FromUser: from.Hex(),
		ToUser:   to.Hex(),
		Type:     kind,
	}
	if err := d.store.Create(ctx, n); err != nil {
		observability.NotificationEmitFailures.WithLabelValues(string(kind), "persist").Inc()
		return fmt.Errorf("persist notification: %w", err)
	}

	payload, err := json.Marshal(Event{Type: "notification", Data: n})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := d.notifier.PublishUser(ctx, n.ToUser, string(payload)); err != nil {
		observability.NotificationEmitFailures.WithLabelValues(string(kind), "publish").Inc()
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			"to_user", n.ToUser, "type", kind, "error", err)
	}
	return nil
}
