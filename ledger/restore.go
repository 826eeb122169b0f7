package ledger

import (
	"fmt"

	"github.com/clearfund/backend/domain"
)

// Restore rebuilds engine state by replaying a durable event log. Events must
// be ordered by sequence and are applied as recorded facts: no validation
// beyond structural decoding, no transfers, no re-emission. Restore is meant
// for an empty engine at startup.
func (e *Engine) Restore(events []domain.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ev := range events {
		if err := e.apply(ev); err != nil {
			return fmt.Errorf("replay event seq %d: %w", ev.Sequence, err)
		}
	}
	return nil
}

func (e *Engine) apply(ev domain.Event) error {
	switch ev.Kind {
	case domain.EventCampaignCreated:
		var p domain.CampaignCreatedPayload
		if err := domain.DecodePayload(ev, &p); err != nil {
			return err
		}
		e.store.putCampaign(domain.Campaign{
			ID:        ev.CampaignID,
			Owner:     p.Owner,
			Metadata:  p.Metadata,
			Active:    true,
			CreatedAt: ev.CreatedAt,
			UpdatedAt: ev.CreatedAt,
		})
		if ev.CampaignID > e.store.lastID {
			e.store.lastID = ev.CampaignID
		}

	case domain.EventDonationReceived:
		var p domain.DonationReceivedPayload
		if err := domain.DecodePayload(ev, &p); err != nil {
			return err
		}
		c, ok := e.store.campaign(ev.CampaignID)
		if !ok {
			return fmt.Errorf("donation for unknown campaign %d", ev.CampaignID)
		}
		c.Balance = c.Balance.Add(p.Amount)
		c.TotalDonations = c.TotalDonations.Add(p.Amount)
		c.UpdatedAt = ev.CreatedAt
		e.store.putCampaign(c)
		e.store.addContribution(ev.CampaignID, p.Donor, p.Amount)

	case domain.EventExpenseRecorded:
		var p domain.ExpenseRecordedPayload
		if err := domain.DecodePayload(ev, &p); err != nil {
			return err
		}
		c, ok := e.store.campaign(ev.CampaignID)
		if !ok {
			return fmt.Errorf("expense for unknown campaign %d", ev.CampaignID)
		}
		balance, ok := c.Balance.Sub(p.Amount)
		if !ok {
			return fmt.Errorf("expense of %s exceeds replayed balance %s of campaign %d",
				p.Amount, c.Balance, ev.CampaignID)
		}
		c.Balance = balance
		c.TotalExpenses = c.TotalExpenses.Add(p.Amount)
		c.UpdatedAt = ev.CreatedAt
		e.store.putCampaign(c)
		e.store.appendExpense(domain.Expense{
			CampaignID:  ev.CampaignID,
			Sequence:    p.ExpenseSeq,
			Recipient:   p.Recipient,
			Amount:      p.Amount,
			Description: p.Description,
			CreatedAt:   ev.CreatedAt,
		})

	case domain.EventFundsWithdrawn:
		var p domain.FundsWithdrawnPayload
		if err := domain.DecodePayload(ev, &p); err != nil {
			return err
		}
		c, ok := e.store.campaign(ev.CampaignID)
		if !ok {
			return fmt.Errorf("withdrawal for unknown campaign %d", ev.CampaignID)
		}
		balance, ok := c.Balance.Sub(p.Amount)
		if !ok {
			return fmt.Errorf("withdrawal of %s exceeds replayed balance %s of campaign %d",
				p.Amount, c.Balance, ev.CampaignID)
		}
		c.Balance = balance
		c.TotalWithdrawn = c.TotalWithdrawn.Add(p.Amount)
		c.UpdatedAt = ev.CreatedAt
		e.store.putCampaign(c)

	case domain.EventCampaignToggled:
		var p domain.CampaignToggledPayload
		if err := domain.DecodePayload(ev, &p); err != nil {
			return err
		}
		c, ok := e.store.campaign(ev.CampaignID)
		if !ok {
			return fmt.Errorf("toggle for unknown campaign %d", ev.CampaignID)
		}
		c.Active = p.Active
		c.UpdatedAt = ev.CreatedAt
		e.store.putCampaign(c)

	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	e.store.appendEvent(ev)
	return nil
}
