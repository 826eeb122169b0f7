package ledger

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearfund/backend/domain"
)

// Engine validates and applies every ledger state transition and exposes
// read-only projections of campaign state.
type Engine struct {
	mu     sync.RWMutex
	store  *store
	stream *stream
	opts   Options
}

// New creates an empty ledger engine.
func New(opts Options) *Engine {
	opts.fill()
	return &Engine{
		store:  newStore(),
		stream: newStream(opts.Logger),
		opts:   opts,
	}
}

// AttachSink sets the durable event sink. The sink usually needs the engine
// as its snapshot source, so it is attached after construction, before the
// engine starts accepting writes.
func (e *Engine) AttachSink(sink EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Sink = sink
}

// CreateCampaign allocates the next sequential campaign id and stores an
// active campaign owned by the caller. Metadata is trimmed and must be
// non-empty.
func (e *Engine) CreateCampaign(ctx context.Context, caller, metadata string) (id uint64, err error) {
	defer e.observe("create_campaign", &err)()

	caller, err = normalizeCaller(caller)
	if err != nil {
		return 0, err
	}
	metadata = strings.TrimSpace(metadata)
	if metadata == "" {
		return 0, domain.ErrEmptyMetadata
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.opts.Clock().UTC()
	c := domain.Campaign{
		ID:        e.store.lastID + 1,
		Owner:     caller,
		Metadata:  metadata,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.store.lastID = c.ID
	e.store.putCampaign(c)

	e.emit(ctx, domain.EventCampaignCreated, c.ID, domain.CampaignCreatedPayload{
		Owner:    caller,
		Metadata: metadata,
	})
	return c.ID, nil
}

// Donate credits amount to an active campaign. Value acceptance and
// bookkeeping are a single step under the ledger lock, so there is no state
// in which value is received but not recorded.
func (e *Engine) Donate(ctx context.Context, caller string, campaignID uint64, amount domain.Amount) (err error) {
	defer e.observe("donate", &err)()

	caller, err = normalizeCaller(caller)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.store.campaign(campaignID)
	if !ok {
		return domain.ErrCampaignNotFound
	}
	if !c.Active {
		return domain.ErrCampaignInactive
	}
	if amount.IsZero() {
		return domain.ErrAmountNotPositive
	}

	c.Balance = c.Balance.Add(amount)
	c.TotalDonations = c.TotalDonations.Add(amount)
	c.UpdatedAt = e.opts.Clock().UTC()
	e.store.putCampaign(c)
	e.store.addContribution(campaignID, caller, amount)

	e.emit(ctx, domain.EventDonationReceived, campaignID, domain.DonationReceivedPayload{
		Donor:  caller,
		Amount: amount,
	})
	return nil
}

// RecordExpense authorizes an outflow to recipient, appends an immutable
// expense record and performs the external transfer. Bookkeeping is staged
// before the transfer is attempted and committed only after the channel
// confirms; a rejected transfer leaves the ledger untouched.
func (e *Engine) RecordExpense(ctx context.Context, caller string, campaignID uint64, recipient string, amount domain.Amount, description string) (err error) {
	defer e.observe("record_expense", &err)()

	caller, err = normalizeCaller(caller)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.store.campaign(campaignID)
	if !ok {
		return domain.ErrCampaignNotFound
	}
	if c.Owner != caller {
		return domain.ErrNotCampaignOwner
	}
	if amount.IsZero() {
		return domain.ErrAmountNotPositive
	}
	if !domain.ValidAddress(recipient) || domain.NormalizeAddress(recipient) == domain.ZeroAddress {
		return domain.ErrBadRecipient
	}
	recipient = domain.NormalizeAddress(recipient)
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.ErrEmptyDescription
	}

	balance, ok := c.Balance.Sub(amount)
	if !ok {
		return domain.ErrInsufficientBalance
	}

	// Apply phase: stage the deduction and the expense record.
	now := e.opts.Clock().UTC()
	c.Balance = balance
	c.TotalExpenses = c.TotalExpenses.Add(amount)
	c.UpdatedAt = now
	exp := domain.Expense{
		CampaignID:  campaignID,
		Sequence:    uint64(len(e.store.expenses[campaignID])) + 1,
		Recipient:   recipient,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	}

	if err := e.transfer(ctx, recipient, amount); err != nil {
		return err
	}

	// Commit phase: the transfer confirmed, make the staged state visible.
	e.store.putCampaign(c)
	e.store.appendExpense(exp)

	e.emit(ctx, domain.EventExpenseRecorded, campaignID, domain.ExpenseRecordedPayload{
		Recipient:   recipient,
		Amount:      amount,
		Description: description,
		ExpenseSeq:  exp.Sequence,
	})
	return nil
}

// WithdrawFunds moves part of the campaign balance to its owner, with the
// same staged-commit discipline as RecordExpense.
func (e *Engine) WithdrawFunds(ctx context.Context, caller string, campaignID uint64, amount domain.Amount) (err error) {
	defer e.observe("withdraw_funds", &err)()

	caller, err = normalizeCaller(caller)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.store.campaign(campaignID)
	if !ok {
		return domain.ErrCampaignNotFound
	}
	if c.Owner != caller {
		return domain.ErrNotCampaignOwner
	}
	if amount.IsZero() {
		return domain.ErrAmountNotPositive
	}
	balance, ok := c.Balance.Sub(amount)
	if !ok {
		return domain.ErrInsufficientBalance
	}

	c.Balance = balance
	c.TotalWithdrawn = c.TotalWithdrawn.Add(amount)
	c.UpdatedAt = e.opts.Clock().UTC()

	if err := e.transfer(ctx, caller, amount); err != nil {
		return err
	}

	e.store.putCampaign(c)

	e.emit(ctx, domain.EventFundsWithdrawn, campaignID, domain.FundsWithdrawnPayload{
		Owner:  caller,
		Amount: amount,
	})
	return nil
}

// ToggleCampaign flips the active flag and returns the new state. No
// financial effect.
func (e *Engine) ToggleCampaign(ctx context.Context, caller string, campaignID uint64) (active bool, err error) {
	defer e.observe("toggle_campaign", &err)()

	caller, err = normalizeCaller(caller)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.store.campaign(campaignID)
	if !ok {
		return false, domain.ErrCampaignNotFound
	}
	if c.Owner != caller {
		return false, domain.ErrNotCampaignOwner
	}

	c.Active = !c.Active
	c.UpdatedAt = e.opts.Clock().UTC()
	e.store.putCampaign(c)

	e.emit(ctx, domain.EventCampaignToggled, campaignID, domain.CampaignToggledPayload{
		Active: c.Active,
	})
	return c.Active, nil
}

// Campaign returns a snapshot of one campaign.
func (e *Engine) Campaign(campaignID uint64) (domain.Campaign, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, ok := e.store.campaign(campaignID)
	if !ok {
		return domain.Campaign{}, domain.ErrCampaignNotFound
	}
	return c, nil
}

// Campaigns returns snapshots of all campaigns ordered by id.
func (e *Engine) Campaigns() []domain.Campaign {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Campaign, 0, e.store.lastID)
	for id := uint64(1); id <= e.store.lastID; id++ {
		if c, ok := e.store.campaign(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// Balance returns the current spendable balance of a campaign.
func (e *Engine) Balance(campaignID uint64) (domain.Amount, error) {
	c, err := e.Campaign(campaignID)
	if err != nil {
		return domain.Amount{}, err
	}
	return c.Balance, nil
}

// Expenses returns the ordered expense records of a campaign.
func (e *Engine) Expenses(campaignID uint64) ([]domain.Expense, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.campaign(campaignID); !ok {
		return nil, domain.ErrCampaignNotFound
	}
	return e.store.expenseList(campaignID), nil
}

// DonationAmount returns the cumulative contribution of one donor to a
// campaign. A donor with no donations has a zero contribution.
func (e *Engine) DonationAmount(campaignID uint64, donor string) (domain.Amount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.campaign(campaignID); !ok {
		return domain.Amount{}, domain.ErrCampaignNotFound
	}
	return e.store.contribution(campaignID, domain.NormalizeAddress(donor)), nil
}

// TotalCampaigns returns the number of campaigns ever created.
func (e *Engine) TotalCampaigns() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.lastID
}

// Events returns committed events with sequence greater than after, oldest
// first. campaignID 0 selects all campaigns; limit 0 means no limit.
func (e *Engine) Events(campaignID, after uint64, limit int) []domain.Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.eventsAfter(campaignID, after, limit)
}

// LastSequence returns the sequence of the most recent committed event.
func (e *Engine) LastSequence() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.lastSeq
}

// Subscribe registers a live event subscription. campaignID 0 subscribes to
// every campaign. The returned cancel func must be called to release the
// subscription.
func (e *Engine) Subscribe(campaignID uint64) (<-chan domain.Event, func()) {
	return e.stream.subscribe(campaignID)
}

func (e *Engine) transfer(ctx context.Context, recipient string, amount domain.Amount) error {
	if e.opts.Transfer == nil {
		return domain.NewError(domain.ErrCodeTransferFailed, "no transfer channel configured")
	}
	if err := e.opts.Transfer.Transfer(ctx, recipient, amount); err != nil {
		return domain.WrapError(domain.ErrCodeTransferFailed, "value transfer rejected", err)
	}
	return nil
}

// emit appends a committed event to the log and fans it out. Called with the
// write lock held, after all bookkeeping for the transition has been applied.
func (e *Engine) emit(ctx context.Context, kind domain.EventKind, campaignID uint64, payload any) {
	raw, err := domain.EncodePayload(payload)
	if err != nil {
		// Payload structs marshal unconditionally; reaching this is a bug.
		e.opts.Logger.Error("failed to encode event payload", zap.Error(err))
		return
	}

	ev := domain.Event{
		ID:         uuid.NewString(),
		Sequence:   e.store.lastSeq + 1,
		CampaignID: campaignID,
		Kind:       kind,
		Payload:    raw,
		CreatedAt:  e.opts.Clock().UTC(),
	}
	e.store.appendEvent(ev)
	e.opts.Metrics.Event(string(kind))
	e.stream.publish(ev)

	if e.opts.Sink != nil {
		if err := e.opts.Sink.Record(ctx, ev); err != nil {
			e.opts.Logger.Warn("event sink rejected event",
				zap.String("event_id", ev.ID),
				zap.Uint64("sequence", ev.Sequence),
				zap.Error(err))
		}
	}
}

func (e *Engine) observe(op string, err *error) func() {
	started := e.opts.Clock()
	return func() {
		e.opts.Metrics.Operation(op, *err, started)
	}
}

func normalizeCaller(caller string) (string, error) {
	if !domain.ValidAddress(caller) {
		return "", domain.ErrBadCaller
	}
	return domain.NormalizeAddress(caller), nil
}
