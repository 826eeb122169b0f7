package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind identifies a completed state transition.
type EventKind string

const (
	EventCampaignCreated  EventKind = "campaign_created"
	EventDonationReceived EventKind = "donation_received"
	EventExpenseRecorded  EventKind = "expense_recorded"
	EventFundsWithdrawn   EventKind = "funds_withdrawn"
	EventCampaignToggled  EventKind = "campaign_toggled"
)

// Event is an immutable record of a committed ledger transition. Events are
// the sole durable mechanism for reconstructing campaign state and
// per-campaign transaction history; Sequence is a ledger-wide monotonically
// increasing ordinal.
type Event struct {
	ID         string          `json:"id"`
	Sequence   uint64          `json:"sequence"`
	CampaignID uint64          `json:"campaign_id"`
	Kind       EventKind       `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CampaignCreatedPayload captures the immutable facts of campaign creation.
type CampaignCreatedPayload struct {
	Owner    string `json:"owner"`
	Metadata string `json:"metadata"`
}

// DonationReceivedPayload records a credited donation.
type DonationReceivedPayload struct {
	Donor  string `json:"donor"`
	Amount Amount `json:"amount"`
}

// ExpenseRecordedPayload records an authorized outflow to a recipient.
// ExpenseSeq is the per-campaign expense ordinal so replay can rebuild the
// ordered expense list exactly.
type ExpenseRecordedPayload struct {
	Recipient   string `json:"recipient"`
	Amount      Amount `json:"amount"`
	Description string `json:"description"`
	ExpenseSeq  uint64 `json:"expense_seq"`
}

// FundsWithdrawnPayload records an owner withdrawal.
type FundsWithdrawnPayload struct {
	Owner  string `json:"owner"`
	Amount Amount `json:"amount"`
}

// CampaignToggledPayload records the active flag after a toggle. The flag has
// no financial effect but must survive replay.
type CampaignToggledPayload struct {
	Active bool `json:"active"`
}

// EncodePayload serializes an event payload struct.
func EncodePayload(payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode event payload: %w", err)
	}
	return raw, nil
}

// DecodePayload deserializes an event payload into the given struct pointer.
func DecodePayload(ev Event, into any) error {
	if err := json.Unmarshal(ev.Payload, into); err != nil {
		return fmt.Errorf("decode %s payload of event %s: %w", ev.Kind, ev.ID, err)
	}
	return nil
}
