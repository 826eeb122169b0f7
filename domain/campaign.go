package domain

import "time"

// Campaign is a permanent, append-only financial record for one fundraising
// effort. Owner and metadata are immutable after creation; the accumulators
// only ever grow, and Balance always equals
// TotalDonations - TotalExpenses - TotalWithdrawn.
type Campaign struct {
	ID             uint64    `json:"id"`
	Owner          string    `json:"owner"`
	Metadata       string    `json:"metadata"`
	Active         bool      `json:"active"`
	Balance        Amount    `json:"balance"`
	TotalDonations Amount    `json:"total_donations"`
	TotalExpenses  Amount    `json:"total_expenses"`
	TotalWithdrawn Amount    `json:"total_withdrawn"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Contribution is the cumulative value one donor has given to one campaign.
// Repeat donations from the same donor accumulate rather than replace.
type Contribution struct {
	CampaignID uint64 `json:"campaign_id"`
	Donor      string `json:"donor"`
	Amount     Amount `json:"amount"`
}
