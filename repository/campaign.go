package repository

import (
	"context"

	"github.com/clearfund/backend/domain"
)

// CampaignRepository stores campaign snapshots projected from the event log.
// The snapshots exist for external consumers and SQL tooling; the engine
// never reads them back.
type CampaignRepository interface {
	Upsert(ctx context.Context, c domain.Campaign) error
	Get(ctx context.Context, id uint64) (*domain.Campaign, error)
	List(ctx context.Context) ([]domain.Campaign, error)
}
