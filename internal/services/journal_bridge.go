package services

import (
	"context"
	"fmt"

	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/ledger"
)

// JournalBridge adapts the journal processor to the engine's EventSink port,
// keeping the ledger package free of infrastructure imports.
type JournalBridge struct {
	processor *JournalProcessor
}

func NewJournalBridge(processor *JournalProcessor) *JournalBridge {
	return &JournalBridge{processor: processor}
}

func (b *JournalBridge) Record(ctx context.Context, ev domain.Event) error {
	if b.processor == nil {
		return fmt.Errorf("journal processor not configured")
	}
	return b.processor.Record(ctx, ev)
}

var _ ledger.EventSink = (*JournalBridge)(nil)
