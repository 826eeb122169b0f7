// Package ledger implements the fund-accounting state-transition engine.
//
// The engine owns every campaign record and is the single authority for
// balances. Mutating operations are fully serialized: each one validates,
// stages its bookkeeping, performs the external value transfer if the
// operation requires one, and only then commits. A failed transfer aborts the
// whole operation, so no partially applied state is ever observable.
//
// Every committed transition appends an immutable Event to the engine's log;
// events are the sole mechanism for reconstructing campaign state (Restore)
// and per-campaign transaction history.
package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/pkg/metrics"
)

// TransferChannel moves real value to a recipient address. Implementations
// are external collaborators and may fail; the engine treats any error as a
// hard abort of the surrounding operation.
type TransferChannel interface {
	Transfer(ctx context.Context, recipient string, amount domain.Amount) error
}

// EventSink receives every committed event exactly once, in sequence order.
// Sink errors are logged, never surfaced: durability of emitted events is the
// sink's own concern (the journal buffers them locally).
type EventSink interface {
	Record(ctx context.Context, ev domain.Event) error
}

// Options configures an Engine. Transfer is required for expense and
// withdrawal operations; everything else is optional.
type Options struct {
	Transfer TransferChannel
	Sink     EventSink
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Clock    func() time.Time
}

func (o *Options) fill() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}
