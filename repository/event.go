package repository

import (
	"context"

	"github.com/clearfund/backend/domain"
)

// EventFilter narrows event queries. CampaignID 0 selects all campaigns,
// AfterSeq 0 starts from the beginning.
type EventFilter struct {
	CampaignID uint64
	AfterSeq   uint64
	Limit      int
}

// EventRepository persists the append-only ledger event log. Append must be
// idempotent on sequence so the journal can safely retry a flush.
type EventRepository interface {
	Append(ctx context.Context, ev domain.Event) error
	List(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	MaxSequence(ctx context.Context) (uint64, error)
}
