package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/internal/infrastructure/journal"
	"github.com/clearfund/backend/pkg/metrics"
	"github.com/clearfund/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// SnapshotSource yields the authoritative campaign state for projection,
// satisfied by the ledger engine.
type SnapshotSource interface {
	Campaign(campaignID uint64) (domain.Campaign, error)
}

// EventPublisher broadcasts flushed events for live consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// ProcessorConfig controls how frequently the journal is drained.
type ProcessorConfig struct {
	Interval  time.Duration
	BatchSize int
}

// JournalProcessor flushes journaled ledger events to durable storage: the
// postgres event log first, then the campaign snapshot projection and the
// redis publisher. Events drain strictly in sequence order and are never
// discarded; a failed flush leaves the event journaled for the next attempt.
type JournalProcessor struct {
	journal   *journal.Store
	monitor   ConnectionHealth
	events    repository.EventRepository
	snapshots SnapshotSource
	campaigns repository.CampaignRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       ProcessorConfig

	cron    *cron.Cron
	drainMu sync.Mutex
}

func NewJournalProcessor(
	jrnl *journal.Store,
	monitor ConnectionHealth,
	events repository.EventRepository,
	snapshots SnapshotSource,
	campaigns repository.CampaignRepository,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *JournalProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &JournalProcessor{
		journal:   jrnl,
		monitor:   monitor,
		events:    events,
		snapshots: snapshots,
		campaigns: campaigns,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("journal drain failed", zap.Error(err))
		}
	})

	return p
}

// Start launches the cron scheduler.
func (p *JournalProcessor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("journal processor started")
}

// Stop gracefully stops the scheduler and attempts a final drain so a clean
// shutdown leaves no journaled events behind.
func (p *JournalProcessor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	if err := p.Drain(ctx); err != nil {
		p.logger.Warn("final journal drain incomplete", zap.Error(err))
	}
	p.logger.Info("journal processor stopped")
}

// Record journals a committed event and kicks an asynchronous flush.
func (p *JournalProcessor) Record(ctx context.Context, ev domain.Event) error {
	if p == nil || p.journal == nil {
		return fmt.Errorf("journal processor not configured")
	}
	if err := p.journal.Enqueue(ev); err != nil {
		return err
	}
	p.Kick()
	return nil
}

// Kick schedules an immediate background drain when collaborators are online.
func (p *JournalProcessor) Kick() {
	if p == nil {
		return
	}
	if p.monitor != nil && !p.monitor.IsOnline() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Debug("kicked journal drain failed", zap.Error(err))
		}
	}()
}

// Drain flushes journaled events in sequence order. It stops at the first
// event whose durable append fails, so later events never overtake it.
func (p *JournalProcessor) Drain(ctx context.Context) error {
	if p == nil || p.journal == nil {
		return nil
	}
	p.drainMu.Lock()
	defer p.drainMu.Unlock()

	if p.monitor != nil && !p.monitor.IsOnline() {
		p.logger.Debug("skipping journal drain (collaborators offline)")
		return nil
	}

	events, err := p.journal.GetBatch(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if err := p.events.Append(ctx, ev); err != nil {
			p.updateGauge()
			return fmt.Errorf("append event seq %d: %w", ev.Sequence, err)
		}
		p.project(ctx, ev)
		if err := p.journal.Remove(ev.Sequence); err != nil {
			p.logger.Warn("failed to remove flushed event from journal",
				zap.Uint64("sequence", ev.Sequence), zap.Error(err))
		}
	}
	p.updateGauge()
	return nil
}

// Size returns the number of journaled events awaiting flush.
func (p *JournalProcessor) Size() int {
	if p == nil || p.journal == nil {
		return 0
	}
	size, err := p.journal.Size()
	if err != nil {
		return 0
	}
	return size
}

// project refreshes the campaign snapshot and notifies live consumers. Both
// are derived views: failures are logged, never block the drain, and are
// corrected by the next flush for that campaign.
func (p *JournalProcessor) project(ctx context.Context, ev domain.Event) {
	if p.snapshots != nil && p.campaigns != nil {
		if c, err := p.snapshots.Campaign(ev.CampaignID); err == nil {
			if err := p.campaigns.Upsert(ctx, c); err != nil {
				p.logger.Warn("campaign snapshot upsert failed",
					zap.Uint64("campaign_id", ev.CampaignID), zap.Error(err))
			}
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, ev); err != nil {
			p.logger.Warn("event publish failed",
				zap.Uint64("sequence", ev.Sequence), zap.Error(err))
		}
	}
}

func (p *JournalProcessor) updateGauge() {
	p.metrics.JournalSize(p.Size())
}
