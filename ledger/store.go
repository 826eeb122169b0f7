package ledger

import "github.com/clearfund/backend/domain"

// store is the in-memory ledger state. It is an explicit object owned by the
// Engine (never package-level), so tests can run isolated ledgers side by
// side. All access is guarded by the Engine's mutex.
type store struct {
	campaigns     map[uint64]domain.Campaign
	contributions map[uint64]map[string]domain.Amount
	expenses      map[uint64][]domain.Expense
	events        []domain.Event

	lastID  uint64 // campaign ids are sequential starting at 1
	lastSeq uint64 // ledger-wide event sequence
}

func newStore() *store {
	return &store{
		campaigns:     make(map[uint64]domain.Campaign),
		contributions: make(map[uint64]map[string]domain.Amount),
		expenses:      make(map[uint64][]domain.Expense),
	}
}

func (s *store) campaign(id uint64) (domain.Campaign, bool) {
	c, ok := s.campaigns[id]
	return c, ok
}

func (s *store) putCampaign(c domain.Campaign) {
	s.campaigns[c.ID] = c
}

func (s *store) addContribution(campaignID uint64, donor string, amount domain.Amount) {
	byDonor, ok := s.contributions[campaignID]
	if !ok {
		byDonor = make(map[string]domain.Amount)
		s.contributions[campaignID] = byDonor
	}
	byDonor[donor] = byDonor[donor].Add(amount)
}

func (s *store) contribution(campaignID uint64, donor string) domain.Amount {
	return s.contributions[campaignID][donor]
}

func (s *store) appendExpense(exp domain.Expense) {
	s.expenses[exp.CampaignID] = append(s.expenses[exp.CampaignID], exp)
}

func (s *store) expenseList(campaignID uint64) []domain.Expense {
	src := s.expenses[campaignID]
	out := make([]domain.Expense, len(src))
	copy(out, src)
	return out
}

func (s *store) appendEvent(ev domain.Event) {
	s.events = append(s.events, ev)
	if ev.Sequence > s.lastSeq {
		s.lastSeq = ev.Sequence
	}
}

// eventsAfter returns up to limit events with Sequence > after, optionally
// filtered by campaign (campaignID 0 means all campaigns).
func (s *store) eventsAfter(campaignID, after uint64, limit int) []domain.Event {
	var out []domain.Event
	for _, ev := range s.events {
		if ev.Sequence <= after {
			continue
		}
		if campaignID != 0 && ev.CampaignID != campaignID {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
