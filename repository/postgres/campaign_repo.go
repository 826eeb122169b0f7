package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/repository"
)

type campaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a Postgres-backed implementation of CampaignRepository.
func NewCampaignRepository(pool *pgxpool.Pool) repository.CampaignRepository {
	return &campaignRepository{pool: pool}
}

func (r *campaignRepository) Upsert(ctx context.Context, c domain.Campaign) error {
	const query = `
	INSERT INTO campaign_snapshots
		(id, owner_address, metadata, active, balance, total_donations, total_expenses, total_withdrawn, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		active = EXCLUDED.active,
		balance = EXCLUDED.balance,
		total_donations = EXCLUDED.total_donations,
		total_expenses = EXCLUDED.total_expenses,
		total_withdrawn = EXCLUDED.total_withdrawn,
		updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		int64(c.ID),
		c.Owner,
		c.Metadata,
		c.Active,
		c.Balance.String(),
		c.TotalDonations.String(),
		c.TotalExpenses.String(),
		c.TotalWithdrawn.String(),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *campaignRepository) Get(ctx context.Context, id uint64) (*domain.Campaign, error) {
	const query = `
	SELECT id, owner_address, metadata, active, balance, total_donations, total_expenses, total_withdrawn, created_at, updated_at
	FROM campaign_snapshots
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, int64(id))
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *campaignRepository) List(ctx context.Context) ([]domain.Campaign, error) {
	const query = `
	SELECT id, owner_address, metadata, active, balance, total_donations, total_expenses, total_withdrawn, created_at, updated_at
	FROM campaign_snapshots
	ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func scanCampaign(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Campaign, error) {
	var c domain.Campaign
	var id int64
	var balance, donations, expenses, withdrawn string
	if err := row.Scan(
		&id,
		&c.Owner,
		&c.Metadata,
		&c.Active,
		&balance,
		&donations,
		&expenses,
		&withdrawn,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.ID = uint64(id)

	var err error
	if c.Balance, err = domain.ParseAmount(balance); err != nil {
		return nil, err
	}
	if c.TotalDonations, err = domain.ParseAmount(donations); err != nil {
		return nil, err
	}
	if c.TotalExpenses, err = domain.ParseAmount(expenses); err != nil {
		return nil, err
	}
	if c.TotalWithdrawn, err = domain.ParseAmount(withdrawn); err != nil {
		return nil, err
	}
	return &c, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 1000
	}
	return limit
}
