// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"chirp/internal/models"
	"chirp/internal/observability"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
)

// startOp opens a span and a latency timer for one repository call. The
// returned function must be called with the call's final error.
func startOp(ctx context.Context, system, method, collection string) (context.Context, func(error)) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, system, method, collection)
	stop := observability.TrackQuery(method, collection)
	return ctx, func(err error) {
		stop()
		if err != nil && !models.IsNotFound(err, "") {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// translate maps driver errors onto AppErrors: a missing document becomes
// NotFound(resource, id), anything else Internal.
func translate(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if _, ok := models.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
