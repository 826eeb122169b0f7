package domain

import "time"

// Expense is an immutable record of an owner-authorized outflow to a named
// recipient. Expenses are append-only and ordered by Sequence within their
// campaign.
type Expense struct {
	CampaignID  uint64    `json:"campaign_id"`
	Sequence    uint64    `json:"sequence"`
	Recipient   string    `json:"recipient"`
	Amount      Amount    `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
