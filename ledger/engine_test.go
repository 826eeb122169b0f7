package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearfund/backend/domain"
)

const (
	ownerAddr     = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	donorAddr     = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	recipientAddr = "0xcccccccccccccccccccccccccccccccccccccccc"
	strangerAddr  = "0xdddddddddddddddddddddddddddddddddddddddd"
)

type transferCall struct {
	recipient string
	amount    domain.Amount
}

// fakeChannel records transfer requests and can be told to reject them.
type fakeChannel struct {
	calls []transferCall
	err   error
}

func (f *fakeChannel) Transfer(_ context.Context, recipient string, amount domain.Amount) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, transferCall{recipient: recipient, amount: amount})
	return nil
}

type recordingSink struct {
	events []domain.Event
}

func (r *recordingSink) Record(_ context.Context, ev domain.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeChannel, *recordingSink) {
	t.Helper()
	channel := &fakeChannel{}
	sink := &recordingSink{}
	engine := New(Options{
		Transfer: channel,
		Sink:     sink,
		Clock:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	return engine, channel, sink
}

func mustCreate(t *testing.T, e *Engine, owner, metadata string) uint64 {
	t.Helper()
	id, err := e.CreateCampaign(context.Background(), owner, metadata)
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	return id
}

func mustDonate(t *testing.T, e *Engine, donor string, id uint64, amount uint64) {
	t.Helper()
	if err := e.Donate(context.Background(), donor, id, domain.NewAmount(amount)); err != nil {
		t.Fatalf("Donate(%d, %d): %v", id, amount, err)
	}
}

func TestCreateCampaign(t *testing.T) {
	e, _, _ := newTestEngine(t)

	first := mustCreate(t, e, ownerAddr, "clean water for the valley")
	if first != 1 {
		t.Fatalf("first campaign id = %d, want 1", first)
	}
	second := mustCreate(t, e, ownerAddr, "school roof repair")
	if second != 2 {
		t.Fatalf("second campaign id = %d, want 2", second)
	}

	c, err := e.Campaign(first)
	if err != nil {
		t.Fatalf("Campaign(%d): %v", first, err)
	}
	if !c.Active {
		t.Error("new campaign is not active")
	}
	if c.Owner != ownerAddr {
		t.Errorf("owner = %q, want %q", c.Owner, ownerAddr)
	}
	if !c.Balance.IsZero() || !c.TotalDonations.IsZero() || !c.TotalExpenses.IsZero() || !c.TotalWithdrawn.IsZero() {
		t.Errorf("new campaign has non-zero accumulators: %+v", c)
	}
	if e.TotalCampaigns() != 2 {
		t.Errorf("TotalCampaigns = %d, want 2", e.TotalCampaigns())
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if _, err := e.CreateCampaign(context.Background(), ownerAddr, "   "); !domain.IsDomainError(err, domain.ErrCodeInvalidInput) {
		t.Errorf("blank metadata: got %v, want INVALID_INPUT", err)
	}
	if _, err := e.CreateCampaign(context.Background(), "not-an-address", "food drive"); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("bad caller: got %v, want UNAUTHORIZED", err)
	}
}

func TestDonate(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")

	mustDonate(t, e, donorAddr, id, 500)
	mustDonate(t, e, donorAddr, id, 1500)
	mustDonate(t, e, strangerAddr, id, 250)

	c, _ := e.Campaign(id)
	if c.Balance.String() != "2250" {
		t.Errorf("balance = %s, want 2250", c.Balance)
	}
	if c.TotalDonations.String() != "2250" {
		t.Errorf("total donations = %s, want 2250", c.TotalDonations)
	}

	got, err := e.DonationAmount(id, donorAddr)
	if err != nil {
		t.Fatalf("DonationAmount: %v", err)
	}
	if got.String() != "2000" {
		t.Errorf("donor total = %s, want 2000", got)
	}

	// an address that never donated has a zero contribution
	none, err := e.DonationAmount(id, recipientAddr)
	if err != nil {
		t.Fatalf("DonationAmount: %v", err)
	}
	if !none.IsZero() {
		t.Errorf("non-donor contribution = %s, want 0", none)
	}
}

func TestDonateRejections(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")

	cases := []struct {
		name     string
		caller   string
		campaign uint64
		amount   domain.Amount
		code     domain.ErrorCode
	}{
		{name: "unknown campaign", caller: donorAddr, campaign: 99, amount: domain.NewAmount(1), code: domain.ErrCodeNotFound},
		{name: "zero amount", caller: donorAddr, campaign: id, amount: domain.Amount{}, code: domain.ErrCodeInvalidAmount},
		{name: "bad caller", caller: "0xzz", campaign: id, amount: domain.NewAmount(1), code: domain.ErrCodeUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Donate(context.Background(), tc.caller, tc.campaign, tc.amount)
			if !domain.IsDomainError(err, tc.code) {
				t.Fatalf("got %v, want code %s", err, tc.code)
			}
		})
	}

	if _, err := e.ToggleCampaign(context.Background(), ownerAddr, id); err != nil {
		t.Fatalf("ToggleCampaign: %v", err)
	}
	err := e.Donate(context.Background(), donorAddr, id, domain.NewAmount(1))
	if !domain.IsDomainError(err, domain.ErrCodeInactiveCampaign) {
		t.Fatalf("donation to deactivated campaign: got %v, want INACTIVE_CAMPAIGN", err)
	}
}

func TestRecordExpense(t *testing.T) {
	e, channel, _ := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")
	mustDonate(t, e, donorAddr, id, 5)

	err := e.RecordExpense(context.Background(), ownerAddr, id, recipientAddr, domain.NewAmount(1), "sandbags")
	if err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	c, _ := e.Campaign(id)
	if c.Balance.String() != "4" {
		t.Errorf("balance = %s, want 4", c.Balance)
	}
	if c.TotalExpenses.String() != "1" {
		t.Errorf("total expenses = %s, want 1", c.TotalExpenses)
	}

	expenses, err := e.Expenses(id)
	if err != nil {
		t.Fatalf("Expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expense count = %d, want 1", len(expenses))
	}
	exp := expenses[0]
	if exp.Sequence != 1 || exp.Recipient != recipientAddr || exp.Amount.String() != "1" || exp.Description != "sandbags" {
		t.Errorf("unexpected expense record: %+v", exp)
	}

	if len(channel.calls) != 1 {
		t.Fatalf("transfer calls = %d, want 1", len(channel.calls))
	}
	if channel.calls[0].recipient != recipientAddr || channel.calls[0].amount.String() != "1" {
		t.Errorf("unexpected transfer: %+v", channel.calls[0])
	}
}

func TestRecordExpenseRejections(t *testing.T) {
	e, channel, _ := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")
	mustDonate(t, e, donorAddr, id, 5)

	one := domain.NewAmount(1)
	cases := []struct {
		name      string
		caller    string
		recipient string
		amount    domain.Amount
		desc      string
		code      domain.ErrorCode
	}{
		{name: "not owner", caller: strangerAddr, recipient: recipientAddr, amount: one, desc: "x", code: domain.ErrCodeUnauthorized},
		{name: "zero amount", caller: ownerAddr, recipient: recipientAddr, amount: domain.Amount{}, desc: "x", code: domain.ErrCodeInvalidAmount},
		{name: "zero address recipient", caller: ownerAddr, recipient: domain.ZeroAddress, amount: one, desc: "x", code: domain.ErrCodeInvalidRecipient},
		{name: "malformed recipient", caller: ownerAddr, recipient: "somewhere", amount: one, desc: "x", code: domain.ErrCodeInvalidRecipient},
		{name: "blank description", caller: ownerAddr, recipient: recipientAddr, amount: one, desc: "  ", code: domain.ErrCodeInvalidInput},
		{name: "over balance", caller: ownerAddr, recipient: recipientAddr, amount: domain.NewAmount(10), desc: "x", code: domain.ErrCodeInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.RecordExpense(context.Background(), tc.caller, id, tc.recipient, tc.amount, tc.desc)
			if !domain.IsDomainError(err, tc.code) {
				t.Fatalf("got %v, want code %s", err, tc.code)
			}
		})
	}

	// nothing was transferred and nothing changed
	if len(channel.calls) != 0 {
		t.Errorf("transfer calls = %d, want 0", len(channel.calls))
	}
	c, _ := e.Campaign(id)
	if c.Balance.String() != "5" {
		t.Errorf("balance = %s, want 5", c.Balance)
	}
	if expenses, _ := e.Expenses(id); len(expenses) != 0 {
		t.Errorf("expense count = %d, want 0", len(expenses))
	}
}

func TestRecordExpenseRollbackOnTransferFailure(t *testing.T) {
	e, channel, sink := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")
	mustDonate(t, e, donorAddr, id, 5)
	eventsBefore := len(sink.events)

	channel.err = errors.New("downstream timeout")
	err := e.RecordExpense(context.Background(), ownerAddr, id, recipientAddr, domain.NewAmount(3), "pumps")
	if !domain.IsDomainError(err, domain.ErrCodeTransferFailed) {
		t.Fatalf("got %v, want TRANSFER_FAILED", err)
	}

	c, _ := e.Campaign(id)
	if c.Balance.String() != "5" {
		t.Errorf("balance after failed transfer = %s, want 5", c.Balance)
	}
	if !c.TotalExpenses.IsZero() {
		t.Errorf("total expenses = %s, want 0", c.TotalExpenses)
	}
	if expenses, _ := e.Expenses(id); len(expenses) != 0 {
		t.Errorf("expense count = %d, want 0", len(expenses))
	}
	if len(sink.events) != eventsBefore {
		t.Errorf("event emitted for a rolled back expense")
	}

	// the channel recovers and the same expense goes through
	channel.err = nil
	if err := e.RecordExpense(context.Background(), ownerAddr, id, recipientAddr, domain.NewAmount(3), "pumps"); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	c, _ = e.Campaign(id)
	if c.Balance.String() != "2" {
		t.Errorf("balance after retry = %s, want 2", c.Balance)
	}
}

func TestWithdrawFunds(t *testing.T) {
	e, channel, _ := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")
	mustDonate(t, e, donorAddr, id, 100)

	if err := e.WithdrawFunds(context.Background(), ownerAddr, id, domain.NewAmount(40)); err != nil {
		t.Fatalf("WithdrawFunds: %v", err)
	}

	c, _ := e.Campaign(id)
	if c.Balance.String() != "60" {
		t.Errorf("balance = %s, want 60", c.Balance)
	}
	if c.TotalWithdrawn.String() != "40" {
		t.Errorf("total withdrawn = %s, want 40", c.TotalWithdrawn)
	}
	if len(channel.calls) != 1 || channel.calls[0].recipient != ownerAddr {
		t.Errorf("withdrawal paid to %+v, want owner", channel.calls)
	}

	err := e.WithdrawFunds(context.Background(), ownerAddr, id, domain.NewAmount(100))
	if !domain.IsDomainError(err, domain.ErrCodeInsufficientBalance) {
		t.Errorf("over-withdrawal: got %v, want INSUFFICIENT_BALANCE", err)
	}
	err = e.WithdrawFunds(context.Background(), strangerAddr, id, domain.NewAmount(1))
	if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("non-owner withdrawal: got %v, want UNAUTHORIZED", err)
	}
}

func TestWithdrawRollbackOnTransferFailure(t *testing.T) {
	e, channel, _ := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")
	mustDonate(t, e, donorAddr, id, 100)

	channel.err = errors.New("bank closed")
	err := e.WithdrawFunds(context.Background(), ownerAddr, id, domain.NewAmount(40))
	if !domain.IsDomainError(err, domain.ErrCodeTransferFailed) {
		t.Fatalf("got %v, want TRANSFER_FAILED", err)
	}

	c, _ := e.Campaign(id)
	if c.Balance.String() != "100" || !c.TotalWithdrawn.IsZero() {
		t.Errorf("state changed after failed withdrawal: balance=%s withdrawn=%s", c.Balance, c.TotalWithdrawn)
	}
}

func TestToggleCampaign(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")

	active, err := e.ToggleCampaign(context.Background(), ownerAddr, id)
	if err != nil || active {
		t.Fatalf("first toggle: active=%v err=%v, want inactive", active, err)
	}
	active, err = e.ToggleCampaign(context.Background(), ownerAddr, id)
	if err != nil || !active {
		t.Fatalf("second toggle: active=%v err=%v, want active", active, err)
	}

	if _, err := e.ToggleCampaign(context.Background(), strangerAddr, id); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("non-owner toggle: got %v, want UNAUTHORIZED", err)
	}
	if _, err := e.ToggleCampaign(context.Background(), ownerAddr, 42); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("unknown campaign toggle: got %v, want NOT_FOUND", err)
	}
}

// balance must always equal donations minus expenses minus withdrawals
func checkAccounting(t *testing.T, e *Engine, id uint64) {
	t.Helper()
	c, err := e.Campaign(id)
	if err != nil {
		t.Fatalf("Campaign(%d): %v", id, err)
	}
	spent := c.TotalExpenses.Add(c.TotalWithdrawn)
	remaining, ok := c.TotalDonations.Sub(spent)
	if !ok {
		t.Fatalf("outflows %s exceed donations %s", spent, c.TotalDonations)
	}
	if c.Balance.Cmp(remaining) != 0 {
		t.Fatalf("balance %s != donations %s - expenses %s - withdrawn %s",
			c.Balance, c.TotalDonations, c.TotalExpenses, c.TotalWithdrawn)
	}
}

func TestAccountingIdentityHolds(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")

	mustDonate(t, e, donorAddr, id, 1000)
	checkAccounting(t, e, id)
	if err := e.RecordExpense(context.Background(), ownerAddr, id, recipientAddr, domain.NewAmount(300), "supplies"); err != nil {
		t.Fatal(err)
	}
	checkAccounting(t, e, id)
	if err := e.WithdrawFunds(context.Background(), ownerAddr, id, domain.NewAmount(200)); err != nil {
		t.Fatal(err)
	}
	checkAccounting(t, e, id)
	mustDonate(t, e, strangerAddr, id, 50)
	checkAccounting(t, e, id)

	c, _ := e.Campaign(id)
	if c.Balance.String() != "550" {
		t.Errorf("final balance = %s, want 550", c.Balance)
	}
}

func TestEventLog(t *testing.T) {
	e, _, sink := newTestEngine(t)
	first := mustCreate(t, e, ownerAddr, "flood relief")
	second := mustCreate(t, e, ownerAddr, "school roof")
	mustDonate(t, e, donorAddr, first, 10)
	if err := e.RecordExpense(context.Background(), ownerAddr, first, recipientAddr, domain.NewAmount(4), "tarps"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ToggleCampaign(context.Background(), ownerAddr, second); err != nil {
		t.Fatal(err)
	}

	all := e.Events(0, 0, 0)
	wantKinds := []domain.EventKind{
		domain.EventCampaignCreated,
		domain.EventCampaignCreated,
		domain.EventDonationReceived,
		domain.EventExpenseRecorded,
		domain.EventCampaignToggled,
	}
	if len(all) != len(wantKinds) {
		t.Fatalf("event count = %d, want %d", len(all), len(wantKinds))
	}
	for i, ev := range all {
		if ev.Kind != wantKinds[i] {
			t.Errorf("event %d kind = %s, want %s", i, ev.Kind, wantKinds[i])
		}
		if ev.Sequence != uint64(i)+1 {
			t.Errorf("event %d sequence = %d, want %d", i, ev.Sequence, i+1)
		}
		if ev.ID == "" {
			t.Errorf("event %d has no id", i)
		}
	}
	if e.LastSequence() != 5 {
		t.Errorf("LastSequence = %d, want 5", e.LastSequence())
	}

	// per-campaign and cursor filters
	forFirst := e.Events(first, 0, 0)
	if len(forFirst) != 3 {
		t.Errorf("events for campaign %d = %d, want 3", first, len(forFirst))
	}
	afterTwo := e.Events(0, 2, 0)
	if len(afterTwo) != 3 || afterTwo[0].Sequence != 3 {
		t.Errorf("events after seq 2: got %d starting at %d, want 3 starting at 3", len(afterTwo), afterTwo[0].Sequence)
	}
	limited := e.Events(0, 0, 2)
	if len(limited) != 2 {
		t.Errorf("limited events = %d, want 2", len(limited))
	}

	// every committed event reached the sink
	if len(sink.events) != len(all) {
		t.Errorf("sink received %d events, want %d", len(sink.events), len(all))
	}
}

func TestRestoreReplaysFullState(t *testing.T) {
	source, _, _ := newTestEngine(t)
	first := mustCreate(t, source, ownerAddr, "flood relief")
	second := mustCreate(t, source, ownerAddr, "school roof")
	mustDonate(t, source, donorAddr, first, 1000)
	mustDonate(t, source, strangerAddr, first, 200)
	if err := source.RecordExpense(context.Background(), ownerAddr, first, recipientAddr, domain.NewAmount(300), "supplies"); err != nil {
		t.Fatal(err)
	}
	if err := source.WithdrawFunds(context.Background(), ownerAddr, first, domain.NewAmount(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := source.ToggleCampaign(context.Background(), ownerAddr, second); err != nil {
		t.Fatal(err)
	}

	restored := New(Options{})
	if err := restored.Restore(source.Events(0, 0, 0)); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.TotalCampaigns() != source.TotalCampaigns() {
		t.Fatalf("campaign count = %d, want %d", restored.TotalCampaigns(), source.TotalCampaigns())
	}
	if restored.LastSequence() != source.LastSequence() {
		t.Errorf("last sequence = %d, want %d", restored.LastSequence(), source.LastSequence())
	}

	for _, id := range []uint64{first, second} {
		want, _ := source.Campaign(id)
		got, err := restored.Campaign(id)
		if err != nil {
			t.Fatalf("restored Campaign(%d): %v", id, err)
		}
		if got.Owner != want.Owner || got.Active != want.Active ||
			got.Balance.Cmp(want.Balance) != 0 ||
			got.TotalDonations.Cmp(want.TotalDonations) != 0 ||
			got.TotalExpenses.Cmp(want.TotalExpenses) != 0 ||
			got.TotalWithdrawn.Cmp(want.TotalWithdrawn) != 0 {
			t.Errorf("campaign %d mismatch:\n got %+v\nwant %+v", id, got, want)
		}
	}

	wantDonation, _ := source.DonationAmount(first, donorAddr)
	gotDonation, err := restored.DonationAmount(first, donorAddr)
	if err != nil {
		t.Fatalf("restored DonationAmount: %v", err)
	}
	if gotDonation.Cmp(wantDonation) != 0 {
		t.Errorf("restored donor total = %s, want %s", gotDonation, wantDonation)
	}

	wantExpenses, _ := source.Expenses(first)
	gotExpenses, err := restored.Expenses(first)
	if err != nil {
		t.Fatalf("restored Expenses: %v", err)
	}
	if len(gotExpenses) != len(wantExpenses) {
		t.Fatalf("restored expense count = %d, want %d", len(gotExpenses), len(wantExpenses))
	}
}

func TestRestoreRejectsBrokenLog(t *testing.T) {
	source, _, _ := newTestEngine(t)
	id := mustCreate(t, source, ownerAddr, "flood relief")
	mustDonate(t, source, donorAddr, id, 10)

	events := source.Events(0, 0, 0)
	// drop the creation event so the donation references an unknown campaign
	if err := New(Options{}).Restore(events[1:]); err == nil {
		t.Error("replay with missing creation event succeeded")
	}

	events[1].Kind = domain.EventKind("mystery")
	if err := New(Options{}).Restore(events); err == nil {
		t.Error("replay with unknown event kind succeeded")
	}
}

func TestReadsAreSideEffectFree(t *testing.T) {
	e, _, sink := newTestEngine(t)
	id := mustCreate(t, e, ownerAddr, "flood relief")
	mustDonate(t, e, donorAddr, id, 10)
	before := len(sink.events)

	for i := 0; i < 3; i++ {
		if _, err := e.Campaign(id); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Balance(id); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Expenses(id); err != nil {
			t.Fatal(err)
		}
		e.Campaigns()
		e.Events(0, 0, 0)
	}

	if len(sink.events) != before {
		t.Errorf("reads emitted events: %d -> %d", before, len(sink.events))
	}
	c, _ := e.Campaign(id)
	if c.Balance.String() != "10" {
		t.Errorf("balance changed across reads: %s", c.Balance)
	}
}
