package messaging

import (
	"context"

	"github.com/bibcovers/cover-indexer/internal/domain"
)

// Handler processes one delivery and decides how it is settled
type Handler interface {
	Handle(ctx context.Context, data []byte) domain.Outcome
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, data []byte) domain.Outcome

func (f HandlerFunc) Handle(ctx context.Context, data []byte) domain.Outcome {
	return f(ctx, data)
}

// Consumer delivers messages of one topic to a handler until ctx is done
type Consumer interface {
	Run(ctx context.Context, topic Topic, handler Handler) error
	Close()
}
