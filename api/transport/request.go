package transport

// CreateCampaignRequest starts a new campaign owned by the caller.
type CreateCampaignRequest struct {
	Metadata string `json:"metadata"`
}

// DonationRequest credits value to a campaign. Amount is a decimal string in
// the smallest unit of value.
type DonationRequest struct {
	Amount string `json:"amount"`
}

// ExpenseRequest authorizes an outflow to a recipient address.
type ExpenseRequest struct {
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// WithdrawalRequest moves part of the balance to the campaign owner.
type WithdrawalRequest struct {
	Amount string `json:"amount"`
}
