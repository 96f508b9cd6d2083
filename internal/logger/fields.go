package logger

import (
	"context"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/domain"
)

// MessageFields returns the fields every stage logs for an envelope
func MessageFields(msg domain.ProcessMessage) []zap.Field {
	fields := []zap.Field{
		zap.String("identifier", msg.Identifier),
		zap.String("identifier_type", string(msg.IdentifierType)),
		zap.Int64("vendor", msg.VendorID),
		zap.String("operation", string(msg.Operation)),
	}
	if msg.ImageID != 0 {
		fields = append(fields, zap.Int64("image_id", msg.ImageID))
	}
	return fields
}

// Vendor returns the vendor field used outside of message handling
func Vendor(id int64, name string) zap.Field {
	return zap.Dict("vendor", zap.Int64("id", id), zap.String("name", name))
}

// WithStage returns a context carrying a cloned sentry hub tagged with the
// stage and message key, so errors reported while handling one message are
// grouped under it
func WithStage(ctx context.Context, stage string, msg domain.ProcessMessage) context.Context {
	if sentryClient == nil {
		return ctx
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.NewHub(sentryClient, sentry.NewScope())
	} else {
		hub = hub.Clone()
	}
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", stage)
		scope.SetTag("source", msg.SourceKey().String())
		scope.SetContext("message", sentry.Context{
			"identifier":      msg.Identifier,
			"identifier_type": string(msg.IdentifierType),
			"operation":       string(msg.Operation),
		})
	})
	return sentry.SetHubOnContext(ctx, hub)
}
